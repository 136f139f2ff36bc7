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
	"bytes"
	"fmt"
	"iter"
	"math/bits"
	"slices"
	"strings"

	"github.com/cardinalio/thetasketch/internal/binomialbounds"
)

// Wire-format constants. serVer 1-3 share an uncompressed, 8-byte-per-entry
// layout; serVer 4 is the bit-packed delta codec. Field offsets below are in
// units of the named type (byte/u16/u32/u64), matching how the reference
// family documents its preamble.
const (
	UncompressedSerialVersion = 3
	CompressedSerialVersion   = 4
	CompactSketchFamilyID     = 3
)

const (
	preLongsByte           = 0
	serialVersionByte      = 1
	familyIDByte           = 2
	flagsByte              = 5
	seedHashU16            = 3
	singleEntryU64         = 1
	numEntriesU32          = 2
	entriesExactU64        = 2
	entriesEstimationU64   = 3
	thetaU64               = 2
	v4EntryBitsByte        = 3
	v4NumEntriesBytesByte  = 4
	v4ThetaU64             = 1
	v4PackedDataExactByte  = 8
	v4PackedDataEstByte    = 16
)

// Flag bit positions within the preamble's flags byte.
const (
	flagIsBigEndian uint8 = iota
	flagIsReadOnly
	flagIsEmpty
	flagIsCompact
	flagIsOrdered
)

// CompactSketch is the immutable, serializable form of a theta sketch: a
// frozen snapshot of retained hashes below a fixed theta, with no further
// update capability. It satisfies Sketch but every mutator on the
// corresponding update sketch is simply absent from its method set.
type CompactSketch struct {
	entries   []uint64
	theta     uint64
	seedHash  uint16
	isEmpty   bool
	isOrdered bool
}

// NewCompactSketch captures a snapshot of source. If ordered is requested
// and source's entries are not already known-ordered, they are sorted once
// at snapshot time; a source that is already ordered (e.g. a prior compact
// sketch) is never re-sorted.
func NewCompactSketch(source Sketch, ordered bool) *CompactSketch {
	isEmpty := source.IsEmpty()
	sourceOrdered := source.IsOrdered()
	seedHash, _ := source.SeedHash()
	theta := source.Theta64()

	var entries []uint64
	if !isEmpty {
		for entry := range source.All() {
			entries = append(entries, entry)
		}
		if ordered && !sourceOrdered {
			slices.Sort(entries)
		}
	}

	return &CompactSketch{
		isEmpty:   isEmpty,
		isOrdered: sourceOrdered || ordered,
		seedHash:  seedHash,
		theta:     theta,
		entries:   entries,
	}
}

func newCompactSketchFromEntries(isEmpty, isOrdered bool, seedHash uint16, theta uint64, entries []uint64) *CompactSketch {
	if len(entries) <= 1 {
		isOrdered = true
	}
	return &CompactSketch{
		isEmpty:   isEmpty,
		isOrdered: isOrdered,
		seedHash:  seedHash,
		theta:     theta,
		entries:   entries,
	}
}

func (s *CompactSketch) IsEmpty() bool   { return s.isEmpty }
func (s *CompactSketch) IsOrdered() bool { return s.isOrdered }
func (s *CompactSketch) Theta64() uint64 { return s.theta }

func (s *CompactSketch) NumRetained() uint32 { return uint32(len(s.entries)) }

func (s *CompactSketch) SeedHash() (uint16, error) { return s.seedHash, nil }

func (s *CompactSketch) Estimate() float64 {
	return float64(s.NumRetained()) / s.Theta()
}

func (s *CompactSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(len(s.entries)), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *CompactSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(len(s.entries)), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *CompactSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.isEmpty
}

func (s *CompactSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func (s *CompactSketch) String(shouldPrintItems bool) string {
	seedHash, _ := s.SeedHash()
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

	var result strings.Builder
	result.WriteString("### Theta sketch summary:\n")
	fmt.Fprintf(&result, "   num retained entries : %d\n", s.NumRetained())
	fmt.Fprintf(&result, "   seed hash            : %d\n", seedHash)
	fmt.Fprintf(&result, "   empty?               : %t\n", s.IsEmpty())
	fmt.Fprintf(&result, "   ordered?             : %t\n", s.IsOrdered())
	fmt.Fprintf(&result, "   estimation mode?     : %t\n", s.IsEstimationMode())
	fmt.Fprintf(&result, "   theta (fraction)     : %f\n", s.Theta())
	fmt.Fprintf(&result, "   theta (raw 64-bit)   : %d\n", s.Theta64())
	fmt.Fprintf(&result, "   estimate             : %f\n", s.Estimate())
	fmt.Fprintf(&result, "   lower bound 95%% conf : %f\n", lb)
	fmt.Fprintf(&result, "   upper bound 95%% conf : %f\n", ub)
	result.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		result.WriteString("### Retained entries\n")
		for entry := range s.All() {
			fmt.Fprintf(&result, "%d\n", entry)
		}
		result.WriteString("### End retained entries\n")
	}

	return result.String()
}

func (s *CompactSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.entries {
			if !yield(entry) {
				return
			}
		}
	}
}

// MarshalBinary implements encoding.BinaryMarshaler using the uncompressed
// wire form (serVer 3). Use ToBytes(compressed) directly for the
// compressed form.
func (s *CompactSketch) MarshalBinary() ([]byte, error) {
	return s.ToBytes(false)
}

// ToBytes serializes the sketch. compressed selects the bit-packed delta
// codec (serVer 4); it silently falls back to the uncompressed form when
// the sketch shape is not a candidate for compression (unordered, or a
// single exact-mode entry, or empty). The returned slice is freshly
// allocated; use WriteTo to serialize into a caller-owned buffer instead.
func (s *CompactSketch) ToBytes(compressed bool) ([]byte, error) {
	return s.encodeBytes(compressed)
}

func (s *CompactSketch) encodeBytes(compressed bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, compressed)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the sketch into dest, a caller-owned buffer, instead
// of allocating one. dest must have at least SerializedSizeBytes(compressed)
// capacity; if it does not, WriteTo returns an *ArgumentError and leaves
// dest untouched. On success it returns the number of bytes written, which
// always equals SerializedSizeBytes(compressed).
func (s *CompactSketch) WriteTo(compressed bool, dest []byte) (int, error) {
	needed := s.SerializedSizeBytes(compressed)
	if len(dest) < needed {
		return 0, newArgumentError("destination buffer of %d bytes is smaller than the %d bytes required to serialize this sketch", len(dest), needed)
	}
	encoded, err := s.encodeBytes(compressed)
	if err != nil {
		return 0, err
	}
	return copy(dest, encoded), nil
}

func (s *CompactSketch) preambleLongs(compressed bool) uint8 {
	if compressed {
		if s.IsEstimationMode() {
			return 2
		}
		return 1
	}
	if s.IsEstimationMode() {
		return 3
	}
	if s.isEmpty || len(s.entries) == 1 {
		return 1
	}
	return 2
}

// SerializedSizeBytes computes the size in bytes required to serialize the
// current state of the sketch. Computing the compressed size requires a
// full pass over the retained hashes; the subsequent encode pass looks at
// them again, so callers sizing a buffer up front pay this cost twice.
func (s *CompactSketch) SerializedSizeBytes(compressed bool) int {
	if compressed && s.isSuitableForCompression() {
		entryBits := s.computeEntryBits()
		numEntriesBytes := s.numEntriesBytes()
		return s.compressedSerializedSizeBytes(entryBits, numEntriesBytes)
	}
	return int(s.preambleLongs(false))*8 + len(s.entries)*8
}

func (s *CompactSketch) isSuitableForCompression() bool {
	if !s.isOrdered ||
		len(s.entries) == 0 ||
		(len(s.entries) == 1 && !s.IsEstimationMode()) {
		return false
	}
	return true
}

// computeEntryBits finds the bit width that holds every consecutive delta
// between ordered retained hashes, via the OR of all deltas (its highest
// set bit bounds every individual delta).
func (s *CompactSketch) computeEntryBits() uint8 {
	var previous, ored uint64
	for _, entry := range s.entries {
		delta := entry - previous
		ored |= delta
		previous = entry
	}
	return uint8(64 - bits.LeadingZeros64(ored))
}

func (s *CompactSketch) numEntriesBytes() uint8 {
	n := uint32(len(s.entries))
	if n == 0 {
		return 1
	}
	leadingZeros := bits.LeadingZeros32(n)
	return uint8(bitsToBytes(32 - leadingZeros))
}

func (s *CompactSketch) compressedSerializedSizeBytes(entryBits, numEntriesBytes uint8) int {
	compressedBits := int(entryBits) * len(s.entries)
	return int(s.preambleLongs(true))*8 + int(numEntriesBytes) + bitsToBytes(compressedBits)
}
