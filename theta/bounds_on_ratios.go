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
	"errors"
	"math"

	"github.com/cardinalio/thetasketch/internal"
)

const ratioBoundNumStdDevs = 2.0

// lowerBoundForBOverAInSketchedSets returns the approximate 95%-confidence
// lower bound for |B|/|A|, where A and B are two sketches over the same
// domain (sketchA is generally the larger set, e.g. a Union of both).
func lowerBoundForBOverAInSketchedSets(sketchA, sketchB Sketch) (float64, error) {
	countA, countB, err := commonSampleCounts(sketchA, sketchB)
	if err != nil {
		return 0, err
	}
	if countA == 0 {
		return 0, nil
	}
	return lowerBoundForBOverA(countA, countB, sketchB.Theta())
}

// upperBoundForBOverAInSketchedSets returns the approximate 95%-confidence
// upper bound for |B|/|A|.
func upperBoundForBOverAInSketchedSets(sketchA, sketchB Sketch) (float64, error) {
	countA, countB, err := commonSampleCounts(sketchA, sketchB)
	if err != nil {
		return 0, err
	}
	if countA == 0 {
		return 1, nil
	}
	return upperBoundForBOverA(countA, countB, sketchB.Theta())
}

// estimateOfBOverAInSketchedSets returns the point estimate for |B|/|A|.
func estimateOfBOverAInSketchedSets(sketchA, sketchB Sketch) (float64, error) {
	countA, countB, err := commonSampleCounts(sketchA, sketchB)
	if err != nil {
		return 0, err
	}
	if countA == 0 {
		return 0.5, nil
	}
	return float64(countB) / float64(countA), nil
}

func commonSampleCounts(sketchA, sketchB Sketch) (countA, countB uint64, err error) {
	theta64A := sketchA.Theta64()
	theta64B := sketchB.Theta64()
	if theta64B > theta64A {
		return 0, 0, errors.New("theta: sketchA's theta must not be smaller than sketchB's")
	}

	countB = uint64(sketchB.NumRetained())
	if theta64A == theta64B {
		countA = uint64(sketchA.NumRetained())
	} else {
		countA = countHashesBelowTheta(sketchA, theta64B)
	}
	return countA, countB, nil
}

func countHashesBelowTheta(sketch Sketch, theta uint64) uint64 {
	var count uint64
	for entry := range sketch.All() {
		if entry < theta {
			count++
		}
	}
	return count
}

// lowerBoundForBOverA returns the approximate lower confidence bound for a
// proportion b/a observed by Bernoulli sampling with inclusion probability
// f. a is the sample size of the set A was drawn from, b the count of that
// sample also present in B.
func lowerBoundForBOverA(a, b uint64, f float64) (float64, error) {
	if err := validateRatioInputs(a, b, f); err != nil {
		return 0, err
	}
	if a == 0 {
		return 0, nil
	}
	if f == 1.0 {
		return float64(b) / float64(a), nil
	}
	return internal.ApproximateLowerBoundOnP(a, b, ratioBoundNumStdDevs*thetaSamplingAdjuster(f))
}

// upperBoundForBOverA returns the approximate upper confidence bound for a
// proportion b/a observed by Bernoulli sampling with inclusion probability
// f.
func upperBoundForBOverA(a, b uint64, f float64) (float64, error) {
	if err := validateRatioInputs(a, b, f); err != nil {
		return 0, err
	}
	if a == 0 {
		return 1, nil
	}
	if f == 1.0 {
		return float64(b) / float64(a), nil
	}
	return internal.ApproximateUpperBoundOnP(a, b, ratioBoundNumStdDevs*thetaSamplingAdjuster(f))
}

// thetaSamplingAdjuster widens the confidence interval as the inclusion
// probability f drops, so a ratio measured from a small theta-sampled tail
// isn't reported with unearned precision. Below f=0.5 this is just
// sqrt(1-f); above it a small additional correction keeps the bound
// conservative as f approaches 1.
func thetaSamplingAdjuster(f float64) float64 {
	adjustment := math.Sqrt(1.0 - f)
	if f <= 0.5 {
		return adjustment
	}
	return adjustment + (0.01 * (f - 0.5))
}

func validateRatioInputs(a, b uint64, f float64) error {
	if a < b {
		return errors.New("theta: sample count a must be >= subset count b")
	}
	if f > 1.0 || f <= 0.0 {
		return errors.New("theta: inclusion probability f must be in (0, 1]")
	}
	return nil
}
