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
	"fmt"
	"iter"
	"strings"

	"github.com/cardinalio/thetasketch/internal/binomialbounds"
)

// WrappedCompactSketch is a read-only view over a caller-owned serialized
// buffer: no copy of the entry data is made, and every decode (uncompressed
// or bit-packed) happens lazily as All() is ranged over.
type WrappedCompactSketch struct {
	data *compactSketchData
}

// WrapCompactSketch parses buf's header (checking seed) without copying its
// entry region. buf must outlive the returned sketch and must not be
// mutated concurrently with reads.
func WrapCompactSketch(buf []byte, seed uint64) (*WrappedCompactSketch, error) {
	data, err := decodeCompactSketch(buf, seed)
	if err != nil {
		return nil, err
	}
	return &WrappedCompactSketch{data: &data}, nil
}

func (s *WrappedCompactSketch) IsEmpty() bool   { return s.data.isEmpty }
func (s *WrappedCompactSketch) IsOrdered() bool { return s.data.isOrdered }
func (s *WrappedCompactSketch) Theta64() uint64 { return s.data.theta }

func (s *WrappedCompactSketch) NumRetained() uint32 { return s.data.numEntries }

func (s *WrappedCompactSketch) SeedHash() (uint16, error) { return s.data.seedHash, nil }

func (s *WrappedCompactSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func (s *WrappedCompactSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.data.isEmpty
}

func (s *WrappedCompactSketch) Estimate() float64 {
	return float64(s.NumRetained()) / s.Theta()
}

func (s *WrappedCompactSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *WrappedCompactSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

// All decodes and iterates the wrapped sketch's retained hashes in place,
// undoing delta-packing for the compressed (entryBits < 64) wire shape.
func (s *WrappedCompactSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		if s.data.entryBits == 64 {
			for i := uint32(0); i < s.data.numEntries; i++ {
				offset := s.data.entriesStartIdx + int(i)*8
				b := s.data.bytes
				entry := uint64(b[offset]) | uint64(b[offset+1])<<8 | uint64(b[offset+2])<<16 |
					uint64(b[offset+3])<<24 | uint64(b[offset+4])<<32 | uint64(b[offset+5])<<40 |
					uint64(b[offset+6])<<48 | uint64(b[offset+7])<<56
				if !yield(entry) {
					return
				}
			}
			return
		}

		region := s.data.bytes[s.data.entriesStartIdx:]
		bitWidth := int(s.data.entryBits)
		var previous uint64
		var buffer [8]uint64

		index := uint32(0)
		byteOffset := 0
		for index+7 < s.data.numEntries {
			unpackBitsBlock8(buffer[:], 0, region[byteOffset:], 0, bitWidth)
			byteOffset += bitWidth
			for i := 0; i < 8; i++ {
				buffer[i] += previous
				previous = buffer[i]
				if !yield(buffer[i]) {
					return
				}
			}
			index += 8
		}

		bitOffset := 0
		tail := region[byteOffset:]
		for index < s.data.numEntries {
			var delta uint64
			delta, bitOffset = unpackOneBits(tail, bitOffset, bitWidth)
			value := delta + previous
			previous = value
			if !yield(value) {
				return
			}
			index++
		}
	}
}

// SerializedSizeBytes reports the length of the buffer this sketch wraps.
// compressed is accepted only to satisfy Sketch; a wrapped sketch re-emits
// exactly the bytes it was constructed from, whichever wire form those are.
func (s *WrappedCompactSketch) SerializedSizeBytes(compressed bool) int {
	return len(s.data.bytes)
}

// WriteTo copies the wrapped buffer into dest. dest must have at least
// SerializedSizeBytes capacity, or WriteTo returns an *ArgumentError and
// leaves dest untouched.
func (s *WrappedCompactSketch) WriteTo(compressed bool, dest []byte) (int, error) {
	needed := len(s.data.bytes)
	if len(dest) < needed {
		return 0, newArgumentError("destination buffer of %d bytes is smaller than the %d bytes required to serialize this sketch", len(dest), needed)
	}
	return copy(dest, s.data.bytes), nil
}

func (s *WrappedCompactSketch) String(shouldPrintItems bool) string {
	var sb strings.Builder

	seedHash, _ := s.SeedHash()
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

	sb.WriteString("### Theta sketch summary:\n")
	fmt.Fprintf(&sb, "   num retained entries : %d\n", s.NumRetained())
	fmt.Fprintf(&sb, "   seed hash            : %d\n", seedHash)
	fmt.Fprintf(&sb, "   empty?               : %t\n", s.IsEmpty())
	fmt.Fprintf(&sb, "   ordered?             : %t\n", s.IsOrdered())
	fmt.Fprintf(&sb, "   estimation mode?     : %t\n", s.IsEstimationMode())
	fmt.Fprintf(&sb, "   theta (fraction)     : %g\n", s.Theta())
	fmt.Fprintf(&sb, "   theta (raw 64-bit)   : %d\n", s.Theta64())
	fmt.Fprintf(&sb, "   estimate             : %g\n", s.Estimate())
	fmt.Fprintf(&sb, "   lower bound 95%% conf : %g\n", lb)
	fmt.Fprintf(&sb, "   upper bound 95%% conf : %g\n", ub)
	sb.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		sb.WriteString("### Retained entries\n")
		for entry := range s.All() {
			fmt.Fprintf(&sb, "%d\n", entry)
		}
		sb.WriteString("### End retained entries\n")
	}

	return sb.String()
}
