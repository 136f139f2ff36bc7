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

func TestEstimateOfBOverAInSketchedSets_ExactMode(t *testing.T) {
	a := makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	b := makeSketch(t, DefaultSeed, 1, 2, 3, 4, 5)

	est, err := estimateOfBOverAInSketchedSets(a, b)
	assert.NoError(t, err)
	assert.InDelta(t, 0.5, est, 1e-9)

	lb, err := lowerBoundForBOverAInSketchedSets(a, b)
	assert.NoError(t, err)
	ub, err := upperBoundForBOverAInSketchedSets(a, b)
	assert.NoError(t, err)
	assert.Equal(t, est, lb)
	assert.Equal(t, est, ub)
}

func TestBoundsForBOverAInSketchedSets_ThetaMismatchRejected(t *testing.T) {
	aSketch, err := NewUpdateSketch(WithUpdateSketchLgK(10), WithUpdateSketchResizeFactor(ResizeX1))
	assert.NoError(t, err)
	for i := 0; i < 2000; i++ {
		aSketch.UpdateInt64(int64(i))
	}
	a := aSketch.Compact(true)
	b := makeSketch(t, DefaultSeed, 1, 2, 3)

	// 2000 items overflow lgK 10, so a is in estimation mode (theta < 1.0)
	// while b is exact (theta = 1.0); this estimator requires sketchA's
	// theta to be at least as large as sketchB's.
	_, err = lowerBoundForBOverAInSketchedSets(a, b)
	assert.Error(t, err)
}
