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

func makeSketch(t *testing.T, seed uint64, values ...int64) *CompactSketch {
	t.Helper()
	sketch, err := NewUpdateSketch(WithUpdateSketchSeed(seed))
	assert.NoError(t, err)
	for _, v := range values {
		sketch.UpdateInt64(v)
	}
	return sketch.Compact(true)
}

func TestUnion_Disjoint(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)

	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	b := makeSketch(t, DefaultSeed, 4, 5, 6)

	assert.NoError(t, u.Update(a))
	assert.NoError(t, u.Update(b))

	result, err := u.Result(true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(6), result.NumRetained())
	assert.Equal(t, 6.0, result.Estimate())
}

func TestUnion_Overlapping(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)

	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4)
	b := makeSketch(t, DefaultSeed, 3, 4, 5, 6)

	assert.NoError(t, u.Update(a))
	assert.NoError(t, u.Update(b))

	result, err := u.Result(false)
	assert.NoError(t, err)
	assert.Equal(t, uint32(6), result.NumRetained())
}

func TestUnion_EmptyInputIsNoop(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)

	empty, err := NewUpdateSketch()
	assert.NoError(t, err)

	assert.NoError(t, u.Update(empty.Compact(true)))
	result, err := u.Result(true)
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestUnion_SeedMismatch(t *testing.T) {
	u, err := NewUnion(WithUnionSeed(DefaultSeed))
	assert.NoError(t, err)

	other := makeSketch(t, DefaultSeed+1, 1, 2, 3)
	err = u.Update(other)
	assert.ErrorIs(t, err, ErrSeedMismatch)
}

func TestUnion_Reset(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)

	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	assert.NoError(t, u.Update(a))

	u.Reset()
	result, err := u.Result(true)
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestUnion_OrderedResult(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)
	a := makeSketch(t, DefaultSeed, 3, 1, 2)
	assert.NoError(t, u.Update(a))

	result, err := u.OrderedResult()
	assert.NoError(t, err)
	assert.True(t, result.IsOrdered())

	var prev uint64
	for i, e := range collectEntries(result) {
		if i > 0 {
			assert.Greater(t, e, prev)
		}
		prev = e
	}
}

func TestUnion_NominalSizeCaps(t *testing.T) {
	u, err := NewUnion(WithUnionLgK(4))
	assert.NoError(t, err)

	a, err := NewUpdateSketch(WithUpdateSketchLgK(10), WithUpdateSketchResizeFactor(ResizeX1))
	assert.NoError(t, err)
	for i := 0; i < 5000; i++ {
		a.UpdateInt64(int64(i))
	}

	assert.NoError(t, u.Update(a.Compact(true)))
	result, err := u.Result(true)
	assert.NoError(t, err)

	k := uint32(1) << 4
	assert.LessOrEqual(t, result.NumRetained(), k)
	assert.True(t, result.IsEstimationMode())
}

func TestNewUnion_InvalidLgK(t *testing.T) {
	_, err := NewUnion(WithUnionLgK(3))
	assert.Error(t, err)

	_, err = NewUnion(WithUnionLgK(30))
	assert.Error(t, err)
}

func TestNewUnion_InvalidP(t *testing.T) {
	_, err := NewUnion(WithUnionSketchP(0))
	assert.Error(t, err)

	_, err = NewUnion(WithUnionSketchP(2))
	assert.Error(t, err)
}

func TestUnion_ResultIntoUndersizedDestFailsWithoutMutating(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)
	assert.NoError(t, u.Update(makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5)))

	full, err := u.Result(true)
	assert.NoError(t, err)
	needed := full.SerializedSizeBytes(false)

	dest := make([]byte, needed-1)
	for i := range dest {
		dest[i] = 0xCC
	}

	result, err := u.ResultInto(true, dest)
	assert.Nil(t, result)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
	for _, b := range dest {
		assert.Equal(t, byte(0xCC), b)
	}
}

func TestUnion_ResultIntoExactSizedDestSucceeds(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)
	assert.NoError(t, u.Update(makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5)))

	full, err := u.Result(true)
	assert.NoError(t, err)
	dest := make([]byte, full.SerializedSizeBytes(false))

	result, err := u.ResultInto(true, dest)
	assert.NoError(t, err)
	assert.Equal(t, full.Estimate(), result.Estimate())

	roundTripped, err := Decode(dest, DefaultSeed)
	assert.NoError(t, err)
	assert.Equal(t, full.Estimate(), roundTripped.Estimate())
}

func TestUnion_UpdateBytes(t *testing.T) {
	u, err := NewUnion()
	assert.NoError(t, err)

	sketch := makeSketch(t, DefaultSeed, 1, 2, 3)
	encoded, err := sketch.ToBytes(false)
	assert.NoError(t, err)

	assert.NoError(t, u.UpdateBytes(encoded))

	result, err := u.Result(true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), result.NumRetained())
}
