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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashtable_FindInsert(t *testing.T) {
	table := newHashtable(4, 4, ResizeX1, 1.0, MaxTheta, DefaultSeed, true)

	idx, err := table.find(12345)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	table.insert(idx, 12345)
	assert.Equal(t, uint32(1), table.numEntries)

	found, err := table.find(12345)
	assert.NoError(t, err)
	assert.Equal(t, idx, found)
}

func TestHashtable_ScreenRejectsZeroAndAboveTheta(t *testing.T) {
	table := newHashtable(4, 4, ResizeX1, 1.0, 100, DefaultSeed, false)

	_, ok := table.screen(0)
	assert.False(t, ok)

	_, ok = table.screen(100)
	assert.False(t, ok)

	_, ok = table.screen(200)
	assert.False(t, ok)

	h, ok := table.screen(50)
	assert.True(t, ok)
	assert.Equal(t, uint64(50), h)
}

func TestHashtable_ResizeGrowsBeforeNominal(t *testing.T) {
	table := newHashtable(2, 6, ResizeX2, 1.0, MaxTheta, DefaultSeed, true)
	startLg := table.lgCurSize

	for i := uint64(1); i <= 10; i++ {
		idx, err := table.find(i)
		if err == ErrKeyNotFound {
			table.insert(idx, i)
		}
	}
	assert.Greater(t, table.lgCurSize, startLg)
	assert.Equal(t, uint32(10), table.numEntries)
}

func TestHashtable_RebuildAtNominalCapAppliesTheta(t *testing.T) {
	// a ResizeX1 table starts at lgNomSize+1, as startingSubMultiple sizes it
	table := newHashtable(5, 4, ResizeX1, 1.0, MaxTheta, DefaultSeed, true)

	for i := uint64(1); i <= 64; i++ {
		if _, ok := table.screen(i); !ok {
			continue
		}
		idx, err := table.find(i)
		if err == ErrKeyNotFound {
			table.insert(idx, i)
		}
	}

	assert.LessOrEqual(t, table.numEntries, uint32(1)<<table.lgNomSize)
	assert.Less(t, table.theta, MaxTheta)
}

func TestHashtable_TrimNoopBelowNominal(t *testing.T) {
	table := newHashtable(4, 6, ResizeX1, 1.0, MaxTheta, DefaultSeed, true)
	idx, _ := table.find(7)
	table.insert(idx, 7)

	table.trim()
	assert.Equal(t, uint32(1), table.numEntries)
}

func TestHashtable_Reset(t *testing.T) {
	table := newHashtable(4, 4, ResizeX1, 0.5, MaxTheta, DefaultSeed, false)
	idx, _ := table.find(7)
	table.insert(idx, 7)

	table.reset()
	assert.True(t, table.isEmpty)
	assert.Equal(t, uint32(0), table.numEntries)
	assert.Equal(t, startingThetaFromP(0.5), table.theta)
}

func TestHashtable_Copy(t *testing.T) {
	table := newHashtable(4, 4, ResizeX1, 1.0, MaxTheta, DefaultSeed, false)
	idx, _ := table.find(7)
	table.insert(idx, 7)

	clone := table.copy()
	clone.entries[idx] = 999

	assert.Equal(t, uint64(7), table.entries[idx])
	assert.Equal(t, uint32(1), clone.numEntries)
}

func TestConsolidateNonEmpty(t *testing.T) {
	entries := []uint64{0, 5, 0, 7, 0, 9, 0, 0}
	consolidateNonEmpty(entries, len(entries), 3)

	nonZero := 0
	for _, e := range entries[:3] {
		if e != 0 {
			nonZero++
		}
	}
	assert.Equal(t, 3, nonZero)
}
