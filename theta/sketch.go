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

import "iter"

// Sketch is the shared read contract implemented by every concrete sketch
// form: the mutable *UpdateSketch, the immutable *CompactSketch, and the
// read-only *WrappedCompactSketch view over a caller-owned byte slice.
//
// Set operations (Union, Intersection, ANotB) accept any Sketch, which is
// how they stay agnostic to whether an input is still being built, has
// already been compacted, or was just deserialized.
type Sketch interface {
	// IsEmpty reports whether this sketch represents the empty set. This is
	// distinct from NumRetained() == 0: a sketch that sampled its way down
	// to zero retained entries is non-empty but carries theta < 1.
	IsEmpty() bool

	// Estimate returns the cardinality estimate for the underlying stream.
	Estimate() float64

	// LowerBound returns the approximate lower confidence bound at
	// numStdDevs standard deviations (1, 2, or 3).
	LowerBound(numStdDevs uint8) (float64, error)

	// UpperBound returns the approximate upper confidence bound at
	// numStdDevs standard deviations (1, 2, or 3).
	UpperBound(numStdDevs uint8) (float64, error)

	// IsEstimationMode reports whether theta < 1.0 (sampling, as opposed to
	// an exact count).
	IsEstimationMode() bool

	// Theta returns the sampling fraction theta64/MaxTheta, in (0, 1].
	Theta() float64

	// Theta64 returns the raw 64-bit theta threshold.
	Theta64() uint64

	// NumRetained returns the number of hashes currently retained.
	NumRetained() uint32

	// SeedHash returns the 16-bit identity token for the hash seed this
	// sketch was built with. Set operations require their inputs to agree
	// on this value (an Empty sketch is a wildcard).
	SeedHash() (uint16, error)

	// IsOrdered reports whether retained hashes are known to be in
	// strictly ascending order.
	IsOrdered() bool

	// String renders a human-readable summary; if shouldPrintItems, the
	// full retained-hash list follows it.
	String(shouldPrintItems bool) string

	// All iterates the retained hashes. Not restartable — a fresh range
	// over the same Sketch value starts over, but a consumed iter.Seq does
	// not rewind itself.
	All() iter.Seq[uint64]

	// SerializedSizeBytes reports the buffer capacity WriteTo requires to
	// serialize this sketch's current state.
	SerializedSizeBytes(compressed bool) int

	// WriteTo serializes this sketch into dest, a caller-owned buffer. dest
	// must have at least SerializedSizeBytes(compressed) capacity, or
	// WriteTo returns an *ArgumentError and leaves dest untouched.
	WriteTo(compressed bool, dest []byte) (int, error)
}
