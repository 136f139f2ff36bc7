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

package binomialbounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerBound_exactMode(t *testing.T) {
	lb, err := LowerBound(100, 1.0, 1)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, lb)
}

func TestUpperBound_exactMode(t *testing.T) {
	ub, err := UpperBound(100, 1.0, 1)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, ub)
}

func TestBounds_zeroSamples(t *testing.T) {
	lb, err := LowerBound(0, 0.5, 2)
	assert.NoError(t, err)
	assert.Zero(t, lb)

	ub, err := UpperBound(0, 0.5, 2)
	assert.NoError(t, err)
	assert.Zero(t, ub)
}

func TestBounds_straddleEstimate(t *testing.T) {
	const numSamples = 1000
	const theta = 0.25
	estimate := float64(numSamples) / theta

	for _, sd := range []uint{1, 2, 3} {
		lb, err := LowerBound(numSamples, theta, sd)
		assert.NoError(t, err)
		ub, err := UpperBound(numSamples, theta, sd)
		assert.NoError(t, err)

		assert.LessOrEqual(t, lb, estimate)
		assert.GreaterOrEqual(t, ub, estimate)
		assert.GreaterOrEqual(t, lb, float64(numSamples))
	}
}

func TestBounds_widenWithStdDevs(t *testing.T) {
	lb1, _ := LowerBound(1000, 0.25, 1)
	lb2, _ := LowerBound(1000, 0.25, 2)
	lb3, _ := LowerBound(1000, 0.25, 3)
	assert.GreaterOrEqual(t, lb1, lb2)
	assert.GreaterOrEqual(t, lb2, lb3)

	ub1, _ := UpperBound(1000, 0.25, 1)
	ub2, _ := UpperBound(1000, 0.25, 2)
	ub3, _ := UpperBound(1000, 0.25, 3)
	assert.LessOrEqual(t, ub1, ub2)
	assert.LessOrEqual(t, ub2, ub3)
}

func TestBounds_invalidArgs(t *testing.T) {
	_, err := LowerBound(10, 0, 1)
	assert.Error(t, err)

	_, err = LowerBound(10, 0.5, 4)
	assert.Error(t, err)

	_, err = UpperBound(10, 1.5, 1)
	assert.Error(t, err)
}
