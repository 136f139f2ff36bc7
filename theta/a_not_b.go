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

// ANotB computes the set difference a \ b in one stateless call. Use this
// when both inputs are already on hand; use StatefulANotB when a is fixed
// and several different b's are subtracted from it in sequence.
func ANotB(a, b Sketch, seed uint64, ordered bool) (*CompactSketch, error) {
	seedHash, err := internal.ComputeSeedHash(int64(seed))
	if err != nil {
		return nil, newArgumentError("%s", err.Error())
	}

	if a.IsEmpty() {
		return NewCompactSketch(a, ordered), nil
	}
	if a.NumRetained() > 0 && b.IsEmpty() {
		return NewCompactSketch(a, ordered), nil
	}

	aSeedHash, err := a.SeedHash()
	if err != nil {
		return nil, err
	}
	bSeedHash, err := b.SeedHash()
	if err != nil {
		return nil, err
	}
	if aSeedHash != uint16(seedHash) || bSeedHash != uint16(seedHash) {
		return nil, ErrSeedMismatch
	}

	theta := min(a.Theta64(), b.Theta64())
	var entries []uint64

	switch {
	case b.NumRetained() == 0:
		for entry := range a.All() {
			if entry < theta {
				entries = append(entries, entry)
			}
		}
	case a.IsOrdered() && b.IsOrdered():
		entries = anotbSortBased(a, b, theta)
	default:
		var err error
		entries, err = anotbHashBased(a, b, theta)
		if err != nil {
			return nil, err
		}
	}

	isEmpty := a.IsEmpty()
	if len(entries) == 0 && theta == MaxTheta {
		isEmpty = true
	}

	if ordered && !a.IsOrdered() {
		slices.Sort(entries)
	}

	return newCompactSketchFromEntries(isEmpty, a.IsOrdered() || ordered, uint16(seedHash), theta, entries), nil
}

// ANotBInto computes the set difference a \ b, same as ANotB, and
// serializes the result into dest instead of allocating a fresh []byte. An
// undersized dest fails with an *ArgumentError and is left untouched.
func ANotBInto(a, b Sketch, seed uint64, ordered bool, dest []byte) (*CompactSketch, error) {
	result, err := ANotB(a, b, seed, ordered)
	if err != nil {
		return nil, err
	}
	if _, err := result.WriteTo(false, dest); err != nil {
		return nil, err
	}
	return result, nil
}

func anotbSortBased(a, b Sketch, theta uint64) []uint64 {
	bEntries := make(map[uint64]struct{})
	for entry := range b.All() {
		bEntries[entry] = struct{}{}
	}

	var entries []uint64
	for entry := range a.All() {
		if _, ok := bEntries[entry]; ok {
			continue
		}
		if entry < theta {
			entries = append(entries, entry)
		}
	}
	return entries
}

func anotbHashBased(a, b Sketch, theta uint64) ([]uint64, error) {
	lgSize := internal.LgSizeFromCount(b.NumRetained(), rebuildThreshold)
	table := newHashtable(lgSize, lgSize, ResizeX1, 1, 0, 0, false)

	for entry := range b.All() {
		if entry < theta {
			idx, err := table.find(entry)
			if err != nil && err == ErrTableFull {
				return nil, err
			}
			table.insert(idx, entry)
		} else if b.IsOrdered() {
			break
		}
	}

	var entries []uint64
	for entry := range a.All() {
		if entry < theta {
			if _, err := table.find(entry); err == ErrKeyNotFound {
				entries = append(entries, entry)
			}
		} else if a.IsOrdered() {
			break
		}
	}

	return entries, nil
}

// StatefulANotB holds a in a reusable scratch table and subtracts a series
// of b sketches from it. SetA establishes the fixed left-hand side; each
// NotB narrows the held result further; GetResult reads it out, optionally
// clearing the scratch state back to virgin.
//
// This scratch buffer is not independently serializable: ToBytes always
// returns ErrUnsupported, since mid-sequence state has no documented wire
// shape. Call GetResult and serialize the CompactSketch it returns instead.
type StatefulANotB struct {
	seed      uint64
	hashtable *hashtable
	started   bool
}

func NewStatefulANotB(seed uint64) *StatefulANotB {
	return &StatefulANotB{seed: seed}
}

// ToBytes always fails with ErrUnsupported; see StatefulANotB.
func (s *StatefulANotB) ToBytes() ([]byte, error) {
	return nil, ErrUnsupported
}

// SetA establishes the left-hand operand, replacing any prior state.
func (s *StatefulANotB) SetA(a Sketch) error {
	if !a.IsEmpty() {
		aHash, err := a.SeedHash()
		if err != nil {
			return err
		}
		expected, err := internal.ComputeSeedHash(int64(s.seed))
		if err != nil {
			return newArgumentError("%s", err.Error())
		}
		if aHash != uint16(expected) {
			return ErrSeedMismatch
		}
	}

	lgSize := internal.LgSizeFromCount(max(a.NumRetained(), 1), rebuildThreshold)
	table := newHashtable(lgSize, lgSize, ResizeX1, 1.0, a.Theta64(), s.seed, a.IsEmpty())

	for entry := range a.All() {
		idx, err := table.find(entry)
		if err == ErrKeyNotFound {
			table.insert(idx, entry)
		}
	}

	s.hashtable = table
	s.started = true
	return nil
}

// NotB subtracts b from the currently held result. Calling it before SetA
// is a state error.
func (s *StatefulANotB) NotB(b Sketch) error {
	if !s.started {
		return ErrState
	}
	if b.IsEmpty() {
		return nil
	}

	bHash, err := b.SeedHash()
	if err != nil {
		return err
	}
	expected, err := internal.ComputeSeedHash(int64(s.seed))
	if err != nil {
		return newArgumentError("%s", err.Error())
	}
	if bHash != uint16(expected) {
		return ErrSeedMismatch
	}

	s.hashtable.theta = min(s.hashtable.theta, b.Theta64())

	for entry := range b.All() {
		if entry >= s.hashtable.theta {
			if b.IsOrdered() {
				break
			}
			continue
		}
		idx, err := s.hashtable.find(entry)
		if err == nil {
			s.hashtable.entries[idx] = 0
			s.hashtable.numEntries--
		}
	}

	// drop anything that aged out of the narrowed theta
	for i, entry := range s.hashtable.entries {
		if entry != 0 && entry >= s.hashtable.theta {
			s.hashtable.entries[i] = 0
			s.hashtable.numEntries--
		}
	}

	return nil
}

// GetResult reads out the currently held difference. If resetAfter, the
// scratch state returns to virgin (SetA must be called again before the
// next NotB).
func (s *StatefulANotB) GetResult(ordered, resetAfter bool) (*CompactSketch, error) {
	if !s.started {
		return nil, ErrState
	}

	var entries []uint64
	for _, entry := range s.hashtable.entries {
		if entry != 0 {
			entries = append(entries, entry)
		}
	}
	if ordered {
		slices.Sort(entries)
	}

	seedHash, err := internal.ComputeSeedHash(int64(s.seed))
	if err != nil {
		return nil, newArgumentError("%s", err.Error())
	}

	isEmpty := s.hashtable.isEmpty && len(entries) == 0
	result := newCompactSketchFromEntries(isEmpty, ordered, uint16(seedHash), s.hashtable.theta, entries)

	if resetAfter {
		s.hashtable = nil
		s.started = false
	}

	return result, nil
}

// GetResultInto reads out the currently held difference, same as
// GetResult, and serializes it into dest instead of allocating a fresh
// []byte. An undersized dest fails with an *ArgumentError and is left
// untouched; in that case the reset resetAfter would otherwise trigger
// does not happen, so the scratch state is still usable.
func (s *StatefulANotB) GetResultInto(ordered, resetAfter bool, dest []byte) (*CompactSketch, error) {
	result, err := s.GetResult(ordered, false)
	if err != nil {
		return nil, err
	}
	if _, err := result.WriteTo(false, dest); err != nil {
		return nil, err
	}
	if resetAfter {
		s.hashtable = nil
		s.started = false
	}
	return result, nil
}
