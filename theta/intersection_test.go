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

func TestIntersection_VirginHasNoResult(t *testing.T) {
	in := NewIntersection()
	assert.False(t, in.HasResult())

	_, err := in.Result(true)
	assert.ErrorIs(t, err, ErrState)
}

func TestIntersection_Overlapping(t *testing.T) {
	in := NewIntersection()

	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4)
	b := makeSketch(t, DefaultSeed, 3, 4, 5, 6)

	assert.NoError(t, in.Update(a))
	assert.NoError(t, in.Update(b))
	assert.True(t, in.HasResult())

	result, err := in.Result(true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(2), result.NumRetained())
	assert.Equal(t, 2.0, result.Estimate())
}

func TestIntersection_Disjoint(t *testing.T) {
	in := NewIntersection()

	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	b := makeSketch(t, DefaultSeed, 4, 5, 6)

	assert.NoError(t, in.Update(a))
	assert.NoError(t, in.Update(b))

	result, err := in.Result(true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), result.NumRetained())
}

func TestIntersection_WithEmptyYieldsEmpty(t *testing.T) {
	in := NewIntersection()

	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	empty, err := NewUpdateSketch()
	assert.NoError(t, err)

	assert.NoError(t, in.Update(a))
	assert.NoError(t, in.Update(empty.Compact(true)))

	result, err := in.Result(true)
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestIntersection_SeedMismatch(t *testing.T) {
	in := NewIntersection(WithIntersectionSeed(DefaultSeed))

	a := makeSketch(t, DefaultSeed, 1, 2, 3)
	assert.NoError(t, in.Update(a))

	other := makeSketch(t, DefaultSeed+1, 4, 5)
	err := in.Update(other)
	assert.ErrorIs(t, err, ErrSeedMismatch)
}

func TestIntersection_ThreeWay(t *testing.T) {
	in := NewIntersection()

	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5)
	b := makeSketch(t, DefaultSeed, 2, 3, 4, 5, 6)
	c := makeSketch(t, DefaultSeed, 3, 4, 5, 6, 7)

	assert.NoError(t, in.Update(a))
	assert.NoError(t, in.Update(b))
	assert.NoError(t, in.Update(c))

	result, err := in.Result(true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), result.NumRetained())
}

func TestIntersection_ResultIntoUndersizedDestFailsWithoutMutating(t *testing.T) {
	in := NewIntersection()
	assert.NoError(t, in.Update(makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5)))
	assert.NoError(t, in.Update(makeSketch(t, DefaultSeed, 2, 3, 4, 5, 6)))

	full, err := in.Result(true)
	assert.NoError(t, err)
	needed := full.SerializedSizeBytes(false)

	dest := make([]byte, needed-1)
	for i := range dest {
		dest[i] = 0xDD
	}

	result, err := in.ResultInto(true, dest)
	assert.Nil(t, result)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
	for _, b := range dest {
		assert.Equal(t, byte(0xDD), b)
	}
}

func TestIntersection_UpdateBytes(t *testing.T) {
	in := NewIntersection()

	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4)
	encodedA, err := a.ToBytes(false)
	assert.NoError(t, err)
	assert.NoError(t, in.UpdateBytes(encodedA))

	b := makeSketch(t, DefaultSeed, 2, 3, 4, 5)
	encodedB, err := b.ToBytes(false)
	assert.NoError(t, err)
	assert.NoError(t, in.UpdateBytes(encodedB))

	result, err := in.Result(true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), result.NumRetained())
}
