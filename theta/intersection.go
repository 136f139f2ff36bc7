/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package theta

import (
	"slices"

	"github.com/cardinalio/thetasketch/internal"
)

type intersectionOptions struct {
	policy Policy
	seed   uint64
}

type IntersectionOptionFunc func(*intersectionOptions)

func WithIntersectionPolicy(policy Policy) IntersectionOptionFunc {
	return func(o *intersectionOptions) { o.policy = policy }
}

func WithIntersectionSeed(seed uint64) IntersectionOptionFunc {
	return func(o *intersectionOptions) { o.seed = seed }
}

// Intersection accumulates a running set intersection across successive
// Update calls. It starts "virgin" (HasResult() == false); the first
// Update seeds its state from that sketch and every later Update narrows
// it further. Result is only defined once at least one Update has run.
type Intersection struct {
	hashtable *hashtable
	policy    Policy
	isValid   bool
}

func NewIntersection(opts ...IntersectionOptionFunc) *Intersection {
	o := &intersectionOptions{
		policy: &noopPolicy{},
		seed:   DefaultSeed,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Intersection{
		hashtable: newHashtable(0, 0, ResizeX1, 1.0, MaxTheta, o.seed, false),
		policy:    o.policy,
		isValid:   false,
	}
}

// UpdateBytes decodes data as a serialized sketch (using the
// intersection's configured seed) and narrows the state with it, same as
// Update.
func (in *Intersection) UpdateBytes(data []byte) error {
	sketch, err := Decode(data, in.hashtable.seed)
	if err != nil {
		return err
	}
	return in.Update(sketch)
}

func (in *Intersection) Update(sketch Sketch) error {
	if in.hashtable.isEmpty {
		return nil
	}

	seedHash, err := internal.ComputeSeedHash(int64(in.hashtable.seed))
	if err != nil {
		return newArgumentError("%s", err.Error())
	}
	sketchSeedHash, err := sketch.SeedHash()
	if err != nil {
		return err
	}
	if !sketch.IsEmpty() && sketchSeedHash != uint16(seedHash) {
		return ErrSeedMismatch
	}

	in.hashtable.isEmpty = in.hashtable.isEmpty || sketch.IsEmpty()
	if in.hashtable.isEmpty {
		in.hashtable.theta = MaxTheta
	} else {
		in.hashtable.theta = min(in.hashtable.theta, sketch.Theta64())
	}

	if in.isValid && in.hashtable.numEntries == 0 {
		return nil
	}

	if sketch.NumRetained() == 0 {
		in.isValid = true
		in.hashtable = newHashtable(0, 0, ResizeX1, 1.0, in.hashtable.theta, in.hashtable.seed, in.hashtable.isEmpty)
		return nil
	}

	if !in.isValid {
		in.isValid = true

		lgSize := internal.LgSizeFromCount(sketch.NumRetained(), rebuildThreshold)
		in.hashtable = newHashtable(lgSize, lgSize-1, ResizeX1, 1.0, in.hashtable.theta, in.hashtable.seed, in.hashtable.isEmpty)

		for entry := range sketch.All() {
			idx, err := in.hashtable.find(entry)
			if err == nil {
				return newArgumentError("duplicate key in input sketch, possibly corrupted")
			}
			in.hashtable.insert(idx, entry)
		}

		if in.hashtable.numEntries != sketch.NumRetained() {
			return newArgumentError("num entries mismatch, possibly corrupted input sketch")
		}
		return nil
	}

	maxMatches := min(in.hashtable.numEntries, sketch.NumRetained())
	matchesEntries := make([]uint64, 0, maxMatches)
	matchCount := 0
	count := 0

	for entry := range sketch.All() {
		if entry < in.hashtable.theta {
			key, err := in.hashtable.find(entry)
			if err == nil {
				if uint32(matchCount) == maxMatches {
					return newArgumentError("max matches exceeded, possibly corrupted input sketch")
				}
				in.policy.Apply(&in.hashtable.entries[key], entry)
				matchesEntries = append(matchesEntries, in.hashtable.entries[key])
				matchCount++
			}
		} else if sketch.IsOrdered() {
			break
		}
		count++
	}

	if count > int(sketch.NumRetained()) {
		return newArgumentError("more keys than expected, possibly corrupted input sketch")
	}
	if !sketch.IsOrdered() && count < int(sketch.NumRetained()) {
		return newArgumentError("fewer keys than expected, possibly corrupted input sketch")
	}

	if matchCount == 0 {
		in.hashtable = newHashtable(0, 0, ResizeX1, 1.0, in.hashtable.theta, in.hashtable.seed, in.hashtable.isEmpty)
		if in.hashtable.theta == MaxTheta {
			in.hashtable.isEmpty = true
		}
	} else {
		lgSize := internal.LgSizeFromCount(uint32(matchCount), rebuildThreshold)
		in.hashtable = newHashtable(lgSize, lgSize-1, ResizeX1, 1.0, in.hashtable.theta, in.hashtable.seed, in.hashtable.isEmpty)
		for j := 0; j < matchCount; j++ {
			key, err := in.hashtable.find(matchesEntries[j])
			if err != nil && err == ErrTableFull {
				return err
			}
			in.hashtable.insert(key, matchesEntries[j])
		}
	}
	return nil
}

// Result returns a snapshot of the current intersection state. Calling it
// before any Update is a state error.
func (in *Intersection) Result(ordered bool) (*CompactSketch, error) {
	if !in.isValid {
		return nil, ErrState
	}

	entries := make([]uint64, 0, in.hashtable.numEntries)
	if in.hashtable.numEntries > 0 {
		for _, hash := range in.hashtable.entries {
			if hash != 0 {
				entries = append(entries, hash)
			}
		}
		if ordered {
			slices.Sort(entries)
		}
	}

	seedHash, err := internal.ComputeSeedHash(int64(in.hashtable.seed))
	if err != nil {
		return nil, newArgumentError("%s", err.Error())
	}

	return newCompactSketchFromEntries(in.hashtable.isEmpty, ordered, uint16(seedHash), in.hashtable.theta, entries), nil
}

func (in *Intersection) OrderedResult() (*CompactSketch, error) {
	return in.Result(true)
}

// ResultInto snapshots the current intersection state, same as Result, and
// serializes the snapshot into dest instead of allocating a fresh []byte.
// An undersized dest fails with an *ArgumentError and is left untouched.
func (in *Intersection) ResultInto(ordered bool, dest []byte) (*CompactSketch, error) {
	result, err := in.Result(ordered)
	if err != nil {
		return nil, err
	}
	if _, err := result.WriteTo(false, dest); err != nil {
		return nil, err
	}
	return result, nil
}

// HasResult reports whether at least one Update has run.
func (in *Intersection) HasResult() bool { return in.isValid }

func (in *Intersection) Policy() Policy { return in.policy }
