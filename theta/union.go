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

// Union accumulates any number of input sketches into one combined
// estimate. Inputs are consumed via Update in any order; calling Result
// repeatedly is cheap and does not disturb further accumulation.
type Union struct {
	policy    Policy
	hashtable *hashtable
	theta     uint64
}

type unionOptions struct {
	seed uint64
	p    float32
	lgK  uint8
	rf   ResizeFactor
}

type UnionOptionFunc func(*unionOptions)

func WithUnionLgK(lgK uint8) UnionOptionFunc {
	return func(o *unionOptions) { o.lgK = lgK }
}

func WithUnionResizeFactor(rf ResizeFactor) UnionOptionFunc {
	return func(o *unionOptions) { o.rf = rf }
}

func WithUnionSketchP(p float32) UnionOptionFunc {
	return func(o *unionOptions) { o.p = p }
}

func WithUnionSeed(seed uint64) UnionOptionFunc {
	return func(o *unionOptions) { o.seed = seed }
}

func NewUnion(opts ...UnionOptionFunc) (*Union, error) {
	o := &unionOptions{
		lgK:  DefaultLgK,
		rf:   DefaultResizeFactor,
		p:    1.0,
		seed: DefaultSeed,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.lgK < MinLgK {
		return nil, newArgumentError("lg_k must not be less than %d: got %d", MinLgK, o.lgK)
	}
	if o.lgK > MaxLgK {
		return nil, newArgumentError("lg_k must not be greater than %d: got %d", MaxLgK, o.lgK)
	}
	if o.p <= 0 || o.p > 1 {
		return nil, newArgumentError("sampling probability must be in (0, 1]: got %v", o.p)
	}

	lgCurSize := startingSubMultiple(o.lgK+1, MinLgK, uint8(o.rf))
	theta := startingThetaFromP(o.p)
	table := newHashtable(lgCurSize, o.lgK, o.rf, o.p, theta, o.seed, true)

	return &Union{
		hashtable: table,
		policy:    &noopPolicy{},
		theta:     table.theta,
	}, nil
}

// Update folds sketch into the accumulating union state. An Empty input is
// a no-op; any non-Empty input must agree on seedHash or ErrSeedMismatch is
// returned and the union is left unchanged.
func (u *Union) Update(sketch Sketch) error {
	if sketch.IsEmpty() {
		return nil
	}

	seedHash, err := internal.ComputeSeedHash(int64(u.hashtable.seed))
	if err != nil {
		return newArgumentError("%s", err.Error())
	}
	sketchSeedHash, err := sketch.SeedHash()
	if err != nil {
		return err
	}
	if uint16(seedHash) != sketchSeedHash {
		return ErrSeedMismatch
	}

	u.hashtable.isEmpty = false
	u.theta = min(u.theta, sketch.Theta64())

	for entry := range sketch.All() {
		if entry < u.theta && entry < u.hashtable.theta {
			index, err := u.hashtable.find(entry)
			if err == ErrKeyNotFound {
				u.hashtable.insert(index, entry)
				continue
			}
			if err != nil {
				return err
			}
			u.policy.Apply(&u.hashtable.entries[index], entry)
		} else if sketch.IsOrdered() {
			break // entries below theta are exhausted; nothing further can pass
		}
	}

	u.theta = min(u.theta, u.hashtable.theta)
	return nil
}

// UpdateBytes decodes data as a serialized sketch (using the union's
// configured seed) and folds it in, same as Update.
func (u *Union) UpdateBytes(data []byte) error {
	sketch, err := Decode(data, u.hashtable.seed)
	if err != nil {
		return err
	}
	return u.Update(sketch)
}

// Result snapshots the union's current accumulated state without
// disturbing it; further Update calls may still follow.
func (u *Union) Result(ordered bool) (*CompactSketch, error) {
	seedHash, err := internal.ComputeSeedHash(int64(u.hashtable.seed))
	if err != nil {
		return nil, newArgumentError("%s", err.Error())
	}

	if u.hashtable.isEmpty {
		return newCompactSketchFromEntries(true, true, uint16(seedHash), u.theta, nil), nil
	}

	var entries []uint64
	theta := min(u.theta, u.hashtable.theta)
	nominalNum := uint32(1) << u.hashtable.lgNomSize

	for _, entry := range u.hashtable.entries {
		if entry != 0 && (u.theta >= u.hashtable.theta || entry < theta) {
			entries = append(entries, entry)
		}
	}

	if uint32(len(entries)) > nominalNum {
		internal.QuickSelect(entries, 0, len(entries)-1, int(nominalNum))
		theta = entries[nominalNum]
		entries = entries[:nominalNum]
	}

	if ordered {
		slices.Sort(entries)
	}

	return newCompactSketchFromEntries(u.hashtable.isEmpty, ordered, uint16(seedHash), theta, entries), nil
}

func (u *Union) OrderedResult() (*CompactSketch, error) {
	return u.Result(true)
}

// ResultInto snapshots the union's current state, same as Result, and
// serializes the snapshot into dest instead of allocating a fresh []byte.
// An undersized dest fails with an *ArgumentError and is left untouched.
func (u *Union) ResultInto(ordered bool, dest []byte) (*CompactSketch, error) {
	result, err := u.Result(ordered)
	if err != nil {
		return nil, err
	}
	if _, err := result.WriteTo(false, dest); err != nil {
		return nil, err
	}
	return result, nil
}

// Reset returns the union to its initial empty state, preserving its
// configured lgK/resize factor/p/seed.
func (u *Union) Reset() {
	u.hashtable.reset()
	u.theta = u.hashtable.theta
}

func (u *Union) Policy() Policy { return u.policy }
