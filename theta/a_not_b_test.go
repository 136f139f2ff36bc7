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

func TestANotB_Basic(t *testing.T) {
	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4)
	b := makeSketch(t, DefaultSeed, 3, 4, 5, 6)

	result, err := ANotB(a, b, DefaultSeed, true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(2), result.NumRetained())
}

func TestANotB_AEmpty(t *testing.T) {
	empty, err := NewUpdateSketch()
	assert.NoError(t, err)
	b := makeSketch(t, DefaultSeed, 1, 2)

	result, err := ANotB(empty.Compact(true), b, DefaultSeed, true)
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestANotB_BEmpty(t *testing.T) {
	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	empty, err := NewUpdateSketch()
	assert.NoError(t, err)

	result, err := ANotB(a, empty.Compact(true), DefaultSeed, true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), result.NumRetained())
}

func TestANotB_SeedMismatch(t *testing.T) {
	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	b := makeSketch(t, DefaultSeed+1, 4, 5)

	_, err := ANotB(a, b, DefaultSeed, true)
	assert.ErrorIs(t, err, ErrSeedMismatch)
}

func TestANotB_HashBasedUnordered(t *testing.T) {
	aSketch, err := NewUpdateSketch(WithUpdateSketchResizeFactor(ResizeX1))
	assert.NoError(t, err)
	for i := 0; i < 2000; i++ {
		aSketch.UpdateInt64(int64(i))
	}
	bSketch, err := NewUpdateSketch(WithUpdateSketchResizeFactor(ResizeX1))
	assert.NoError(t, err)
	for i := 1000; i < 2000; i++ {
		bSketch.UpdateInt64(int64(i))
	}

	a := aSketch.Compact(false)
	b := bSketch.Compact(false)
	assert.False(t, a.IsOrdered())

	result, err := ANotB(a, b, DefaultSeed, true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(1000), result.NumRetained())
}

func TestStatefulANotB_SequentialSubtraction(t *testing.T) {
	s := NewStatefulANotB(DefaultSeed)

	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5)
	assert.NoError(t, s.SetA(a))

	b1 := makeSketch(t, DefaultSeed, 1)
	assert.NoError(t, s.NotB(b1))

	b2 := makeSketch(t, DefaultSeed, 2, 3)
	assert.NoError(t, s.NotB(b2))

	result, err := s.GetResult(true, false)
	assert.NoError(t, err)
	assert.Equal(t, uint32(2), result.NumRetained())

	entries := collectEntries(result)
	expected := collectEntries(makeSketch(t, DefaultSeed, 4, 5))
	assert.ElementsMatch(t, expected, entries)
}

func TestStatefulANotB_NotBBeforeSetAIsStateError(t *testing.T) {
	s := NewStatefulANotB(DefaultSeed)
	b := makeSketch(t, DefaultSeed, 1)

	err := s.NotB(b)
	assert.ErrorIs(t, err, ErrState)

	_, err = s.GetResult(true, false)
	assert.ErrorIs(t, err, ErrState)
}

func TestStatefulANotB_SeedMismatchOnSetA(t *testing.T) {
	s := NewStatefulANotB(DefaultSeed)
	other := makeSketch(t, DefaultSeed+1, 1, 2)

	err := s.SetA(other)
	assert.ErrorIs(t, err, ErrSeedMismatch)
}

func TestStatefulANotB_SeedMismatchOnNotB(t *testing.T) {
	s := NewStatefulANotB(DefaultSeed)
	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	assert.NoError(t, s.SetA(a))

	other := makeSketch(t, DefaultSeed+1, 4, 5)
	err := s.NotB(other)
	assert.ErrorIs(t, err, ErrSeedMismatch)
}

func TestStatefulANotB_ResetAfter(t *testing.T) {
	s := NewStatefulANotB(DefaultSeed)
	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	assert.NoError(t, s.SetA(a))

	_, err := s.GetResult(true, true)
	assert.NoError(t, err)

	_, err = s.GetResult(true, false)
	assert.ErrorIs(t, err, ErrState)
}

func TestANotBInto_UndersizedDestFailsWithoutMutating(t *testing.T) {
	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5)
	b := makeSketch(t, DefaultSeed, 4, 5)

	full, err := ANotB(a, b, DefaultSeed, true)
	assert.NoError(t, err)
	needed := full.SerializedSizeBytes(false)

	dest := make([]byte, needed-1)
	for i := range dest {
		dest[i] = 0xEE
	}

	result, err := ANotBInto(a, b, DefaultSeed, true, dest)
	assert.Nil(t, result)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
	for _, v := range dest {
		assert.Equal(t, byte(0xEE), v)
	}
}

func TestStatefulANotB_GetResultIntoUndersizedDestLeavesStateUsable(t *testing.T) {
	s := NewStatefulANotB(DefaultSeed)
	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	assert.NoError(t, s.SetA(a))

	full, err := s.GetResult(true, false)
	assert.NoError(t, err)
	needed := full.SerializedSizeBytes(false)

	dest := make([]byte, needed-1)
	for i := range dest {
		dest[i] = 0xFF
	}

	result, err := s.GetResultInto(true, true, dest)
	assert.Nil(t, result)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
	for _, v := range dest {
		assert.Equal(t, byte(0xFF), v)
	}

	// resetAfter must not have taken effect: the failed write should not
	// have consumed the scratch state's one-shot reset.
	_, err = s.GetResult(true, false)
	assert.NoError(t, err)
}
