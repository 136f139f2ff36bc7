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
	"math"

	"github.com/cardinalio/thetasketch/internal"
)

const (
	resizeThreshold  = 0.5
	rebuildThreshold = 15.0 / 16.0
)

const (
	strideHashBits = 7
	strideMask     = (1 << strideHashBits) - 1
)

// hashtable is the open-addressing table shared by every mutable sketch and
// set-operator scratch buffer. Slot 0 (the zero value) always means empty;
// a real hash can never collide with it because itemHash64 et al. clear the
// top bit and screen reject raw zero before insertion is attempted.
type hashtable struct {
	entries    []uint64
	theta      uint64
	seed       uint64
	numEntries uint32
	p          float32
	lgCurSize  uint8
	lgNomSize  uint8
	rf         ResizeFactor
	isEmpty    bool
}

func newHashtable(lgCurSize, lgNomSize uint8, rf ResizeFactor, p float32, theta, seed uint64, isEmpty bool) *hashtable {
	t := &hashtable{
		isEmpty:    isEmpty,
		lgCurSize:  lgCurSize,
		lgNomSize:  lgNomSize,
		rf:         rf,
		p:          p,
		theta:      theta,
		seed:       seed,
	}
	if lgCurSize > 0 {
		t.entries = make([]uint64, 1<<lgCurSize)
	}
	return t
}

func (t *hashtable) copy() *hashtable {
	c := &hashtable{
		isEmpty:    t.isEmpty,
		lgCurSize:  t.lgCurSize,
		lgNomSize:  t.lgNomSize,
		rf:         t.rf,
		p:          t.p,
		numEntries: t.numEntries,
		theta:      t.theta,
		seed:       t.seed,
	}
	if t.entries != nil {
		c.entries = make([]uint64, 1<<t.lgCurSize)
		copy(c.entries, t.entries)
	}
	return c
}

// screen applies the running theta threshold and the reserved-zero rule,
// returning ok=false for a hash this table must not retain.
func (t *hashtable) screen(hash uint64) (h uint64, ok bool) {
	if hash == 0 || hash >= t.theta {
		return 0, false
	}
	return hash, true
}

func (t *hashtable) hashAndScreenBytes(data []byte) (uint64, bool) {
	t.isEmpty = false
	return t.screen(itemHash64(data, t.seed))
}

func (t *hashtable) hashAndScreenChars(data []byte) (uint64, bool) {
	t.isEmpty = false
	return t.screen(itemHashChars(data, t.seed))
}

func (t *hashtable) hashAndScreenInt32(v int32) (uint64, bool) {
	t.isEmpty = false
	return t.screen(itemHashInt32(v, t.seed))
}

func (t *hashtable) hashAndScreenInt64(v int64) (uint64, bool) {
	t.isEmpty = false
	return t.screen(itemHashInt64(v, t.seed))
}

// find probes for key and returns its slot index, or ErrKeyNotFound /
// ErrTableFull if it is absent.
func (t *hashtable) find(key uint64) (int, error) {
	return findSlot(t.entries, t.lgCurSize, key)
}

func findSlot(entries []uint64, lgSize uint8, key uint64) (int, error) {
	size := uint32(1) << lgSize
	mask := size - 1
	stride := computeStride(key, lgSize)
	index := uint32(key) & mask

	loopIndex := index
	for {
		probe := entries[index]
		if probe == 0 {
			return int(index), ErrKeyNotFound
		}
		if probe == key {
			return int(index), nil
		}
		index = (index + stride) & mask
		if index == loopIndex {
			return 0, ErrTableFull
		}
	}
}

// computeStride picks an odd stride independent of the starting index,
// using the strideHashBits bits of the key immediately above the lgSize bits
// already spent on the index so that successive table growths re-derive different probe
// sequences from the same key.
func computeStride(key uint64, lgSize uint8) uint32 {
	return (2 * uint32((key>>lgSize)&strideMask)) + 1
}

// insert places entry at index and grows or rebuilds the table if the load
// factor threshold for the current regime (below vs. at-or-above nominal
// size) has been crossed.
func (t *hashtable) insert(index int, entry uint64) {
	t.entries[index] = entry
	t.numEntries++

	if t.numEntries > computeCapacity(t.lgCurSize, t.lgNomSize) {
		if t.lgCurSize <= t.lgNomSize {
			t.resize()
		} else {
			t.rebuild()
		}
	}
}

func computeCapacity(lgCurSize, lgNomSize uint8) uint32 {
	fraction := resizeThreshold
	if lgCurSize > lgNomSize {
		fraction = rebuildThreshold
	}
	return uint32(math.Floor(fraction * float64(uint32(1)<<lgCurSize)))
}

func (t *hashtable) resize() {
	oldSize := 1 << t.lgCurSize
	lgNewSize := min(t.lgCurSize+uint8(t.rf), t.lgNomSize+1)
	newEntries := make([]uint64, 1<<lgNewSize)

	for i := 0; i < oldSize; i++ {
		key := t.entries[i]
		if key != 0 {
			index, _ := findSlot(newEntries, lgNewSize, key) // always finds a free slot in a larger table
			newEntries[index] = key
		}
	}

	t.entries = newEntries
	t.lgCurSize = lgNewSize
}

// rebuild quickselects the nominalSize-th smallest retained hash as the new
// theta and reinserts everything below it into a fresh table of the same
// size. Used both when growth has hit the 2*k ceiling and, through trim, on
// an explicit Trim.
func (t *hashtable) rebuild() {
	size := 1 << t.lgCurSize
	nominalSize := 1 << t.lgNomSize

	consolidateNonEmpty(t.entries, size, int(t.numEntries))

	internal.QuickSelect(t.entries[:t.numEntries], 0, int(t.numEntries)-1, nominalSize)
	t.theta = t.entries[nominalSize]

	oldEntries := t.entries
	t.entries = make([]uint64, size)
	t.numEntries = uint32(nominalSize)

	for i := 0; i < nominalSize; i++ {
		index, _ := findSlot(t.entries, t.lgCurSize, oldEntries[i])
		t.entries[index] = oldEntries[i]
	}
}

// trim forces the table down to nominal size regardless of current load.
func (t *hashtable) trim() {
	if t.numEntries > uint32(1<<t.lgNomSize) {
		t.rebuild()
	}
}

func (t *hashtable) reset() {
	startingLgSize := startingSubMultiple(t.lgNomSize+1, MinLgK, uint8(t.rf))

	if startingLgSize != t.lgCurSize {
		t.lgCurSize = startingLgSize
		t.entries = make([]uint64, 1<<startingLgSize)
	} else {
		for i := range t.entries {
			t.entries[i] = 0
		}
	}

	t.numEntries = 0
	t.theta = startingThetaFromP(t.p)
	t.isEmpty = true
}

// consolidateNonEmpty moves the num non-zero entries among the first size
// slots to the front, in place, so QuickSelect can operate on a dense
// prefix. Order among the moved entries is not preserved or meaningful.
func consolidateNonEmpty(entries []uint64, size, num int) {
	i := 0
	for i < size && entries[i] != 0 {
		i++
	}
	for j := i + 1; j < size && i < num; j++ {
		if entries[j] != 0 {
			entries[i] = entries[j]
			entries[j] = 0
			i++
		}
	}
}
