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

import "github.com/cardinalio/thetasketch/internal"

// JaccardSimilarityResult is the lower/estimate/upper triple of a Jaccard
// index computation, at a 95.4% (+/- 2 std dev) confidence interval.
type JaccardSimilarityResult struct {
	LowerBound float64
	Estimate   float64
	UpperBound float64
}

// Jaccard computes the Jaccard similarity index J(A,B) = |A ∩ B| / |A ∪ B|
// between two sketches built with the same seed, along with its confidence
// bounds. J = 1.0 means the sketches are considered equal; J = 0 means they
// are disjoint.
//
// For very large sketches (configured nominal entries 2^25 or 2^26) this
// may produce unpredictable results, per the same caveat the underlying
// ratio-bound estimators carry.
func Jaccard(sketchA, sketchB Sketch, seed uint64) (JaccardSimilarityResult, error) {
	if sketchA == sketchB {
		return JaccardSimilarityResult{1, 1, 1}, nil
	}
	if sketchA.IsEmpty() && sketchB.IsEmpty() {
		return JaccardSimilarityResult{1, 1, 1}, nil
	}
	if sketchA.IsEmpty() || sketchB.IsEmpty() {
		return JaccardSimilarityResult{0, 0, 0}, nil
	}

	unionAB, err := computeUnionOf(sketchA, sketchB, seed)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}
	if setsAreIdentical(sketchA, sketchB, unionAB) {
		return JaccardSimilarityResult{1, 1, 1}, nil
	}

	intersection := NewIntersection(WithIntersectionSeed(seed))
	if err := intersection.Update(sketchA); err != nil {
		return JaccardSimilarityResult{}, err
	}
	if err := intersection.Update(sketchB); err != nil {
		return JaccardSimilarityResult{}, err
	}
	// Intersecting with unionAB guarantees the result is a subset of it,
	// which the ratio-bound estimators below assume.
	if err := intersection.Update(unionAB); err != nil {
		return JaccardSimilarityResult{}, err
	}
	interABU, err := intersection.Result(false)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}

	lb, err := lowerBoundForBOverAInSketchedSets(unionAB, interABU)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}
	est, err := estimateOfBOverAInSketchedSets(unionAB, interABU)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}
	ub, err := upperBoundForBOverAInSketchedSets(unionAB, interABU)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}

	return JaccardSimilarityResult{LowerBound: lb, Estimate: est, UpperBound: ub}, nil
}

// IsExactlyEqual reports whether two sketches are equivalent: same retained
// hashes, same theta.
func IsExactlyEqual(sketchA, sketchB Sketch, seed uint64) (bool, error) {
	if sketchA == sketchB {
		return true, nil
	}
	if sketchA.IsEmpty() && sketchB.IsEmpty() {
		return true, nil
	}
	if sketchA.IsEmpty() || sketchB.IsEmpty() {
		return false, nil
	}
	unionAB, err := computeUnionOf(sketchA, sketchB, seed)
	if err != nil {
		return false, err
	}
	return setsAreIdentical(sketchA, sketchB, unionAB), nil
}

// IsSimilar reports whether actual is similar to expected at the given
// threshold, with 97.7% confidence: true iff the Jaccard lower bound meets
// or exceeds threshold.
func IsSimilar(actual, expected Sketch, threshold float64, seed uint64) (bool, error) {
	jc, err := Jaccard(actual, expected, seed)
	if err != nil {
		return false, err
	}
	return jc.LowerBound >= threshold, nil
}

// IsDissimilar reports whether actual is dissimilar to expected at the
// given threshold, with 97.7% confidence: true iff the Jaccard upper bound
// falls at or below threshold.
func IsDissimilar(actual, expected Sketch, threshold float64, seed uint64) (bool, error) {
	jc, err := Jaccard(actual, expected, seed)
	if err != nil {
		return false, err
	}
	return jc.UpperBound <= threshold, nil
}

func computeUnionOf(sketchA, sketchB Sketch, seed uint64) (Sketch, error) {
	totalRetained := int(sketchA.NumRetained()) + int(sketchB.NumRetained())
	lgK := internal.Log2Floor(internal.CeilingPowerOf2(totalRetained))
	if lgK < MinLgK {
		lgK = MinLgK
	}
	if lgK > MaxLgK {
		lgK = MaxLgK
	}

	union, err := NewUnion(WithUnionLgK(lgK), WithUnionSeed(seed))
	if err != nil {
		return nil, err
	}
	if err := union.Update(sketchA); err != nil {
		return nil, err
	}
	if err := union.Update(sketchB); err != nil {
		return nil, err
	}
	return union.Result(false)
}

func setsAreIdentical(sketchA, sketchB, unionAB Sketch) bool {
	return unionAB.NumRetained() == sketchA.NumRetained() &&
		unionAB.NumRetained() == sketchB.NumRetained() &&
		unionAB.Theta64() == sketchA.Theta64() &&
		unionAB.Theta64() == sketchB.Theta64()
}
