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

	"github.com/cardinalio/thetasketch/internal"
	"github.com/cardinalio/thetasketch/internal/binomialbounds"
)

// UpdateSketch is a mutable Theta sketch built incrementally via the
// Update* methods, backed by a QuickSelect hash table. It is the only
// Sketch implementer that supports insertion; Compact snapshots it into an
// immutable CompactSketch for serialization or set operations that should
// not observe further mutation.
type UpdateSketch struct {
	table *hashtable
}

type updateSketchOptions struct {
	seed uint64
	p    float32
	lgK  uint8
	rf   ResizeFactor
}

// UpdateSketchOptionFunc configures a new UpdateSketch. See
// WithUpdateSketchLgK, WithUpdateSketchResizeFactor, WithUpdateSketchP, and
// WithUpdateSketchSeed.
type UpdateSketchOptionFunc func(*updateSketchOptions)

func WithUpdateSketchLgK(lgK uint8) UpdateSketchOptionFunc {
	return func(o *updateSketchOptions) { o.lgK = lgK }
}

func WithUpdateSketchResizeFactor(rf ResizeFactor) UpdateSketchOptionFunc {
	return func(o *updateSketchOptions) { o.rf = rf }
}

func WithUpdateSketchP(p float32) UpdateSketchOptionFunc {
	return func(o *updateSketchOptions) { o.p = p }
}

func WithUpdateSketchSeed(seed uint64) UpdateSketchOptionFunc {
	return func(o *updateSketchOptions) { o.seed = seed }
}

// NewUpdateSketch builds a fresh, empty UpdateSketch. Defaults: lgK =
// DefaultLgK, resize factor X8, p = 1 (no pre-sampling), seed = DefaultSeed.
func NewUpdateSketch(opts ...UpdateSketchOptionFunc) (*UpdateSketch, error) {
	o := &updateSketchOptions{
		lgK:  DefaultLgK,
		rf:   DefaultResizeFactor,
		p:    1.0,
		seed: DefaultSeed,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.lgK < MinLgK {
		return nil, newArgumentError("lg_k must not be less than %d: got %d", MinLgK, o.lgK)
	}
	if o.lgK > MaxLgK {
		return nil, newArgumentError("lg_k must not be greater than %d: got %d", MaxLgK, o.lgK)
	}
	if o.p <= 0 || o.p > 1 {
		return nil, newArgumentError("sampling probability must be in (0, 1]: got %v", o.p)
	}

	lgCurSize := startingSubMultiple(o.lgK+1, MinLgK, uint8(o.rf))
	theta := startingThetaFromP(o.p)

	return &UpdateSketch{
		table: newHashtable(lgCurSize, o.lgK, o.rf, o.p, theta, o.seed, true),
	}, nil
}

// Builder offers a fluent alternative to the functional-options
// constructor for callers assembling sketch parameters incrementally
// (e.g. from parsed CLI flags).
type Builder struct {
	opts []UpdateSketchOptionFunc
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) SetLogNominalEntries(lgK uint8) *Builder {
	b.opts = append(b.opts, WithUpdateSketchLgK(lgK))
	return b
}

// SetNominalEntries converts k to log2 and sets it the same as
// SetLogNominalEntries. k must be a power of two in [2^MinLgK, 2^MaxLgK];
// any other k is rounded down to the power of two below it.
func (b *Builder) SetNominalEntries(k uint32) *Builder {
	lgK := internal.Log2Floor(k)
	return b.SetLogNominalEntries(lgK)
}

func (b *Builder) SetResizeFactor(rf ResizeFactor) *Builder {
	b.opts = append(b.opts, WithUpdateSketchResizeFactor(rf))
	return b
}

func (b *Builder) SetP(p float32) *Builder {
	b.opts = append(b.opts, WithUpdateSketchP(p))
	return b
}

func (b *Builder) SetSeed(seed uint64) *Builder {
	b.opts = append(b.opts, WithUpdateSketchSeed(seed))
	return b
}

func (b *Builder) Build() (*UpdateSketch, error) {
	return NewUpdateSketch(b.opts...)
}

func (s *UpdateSketch) IsEmpty() bool   { return s.table.isEmpty }
func (s *UpdateSketch) IsOrdered() bool { return s.table.numEntries <= 1 }

func (s *UpdateSketch) Theta64() uint64 {
	if s.IsEmpty() {
		return MaxTheta
	}
	return s.table.theta
}

func (s *UpdateSketch) NumRetained() uint32 { return s.table.numEntries }

func (s *UpdateSketch) SeedHash() (uint16, error) {
	h, err := internal.ComputeSeedHash(int64(s.table.seed))
	if err != nil {
		return 0, newArgumentError("%s", err.Error())
	}
	return uint16(h), nil
}

func (s *UpdateSketch) Estimate() float64 {
	return float64(s.NumRetained()) / s.Theta()
}

func (s *UpdateSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		if numStdDevs < 1 || numStdDevs > 3 {
			return 0, newArgumentError("numStdDevs must be 1, 2, or 3: %d", numStdDevs)
		}
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *UpdateSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		if numStdDevs < 1 || numStdDevs > 3 {
			return 0, newArgumentError("numStdDevs must be 1, 2, or 3: %d", numStdDevs)
		}
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *UpdateSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.IsEmpty()
}

func (s *UpdateSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

// LgK returns the configured nominal entry count, as log2.
func (s *UpdateSketch) LgK() uint8 { return s.table.lgNomSize }

// ResizeFactor returns the configured table growth factor.
func (s *UpdateSketch) ResizeFactor() ResizeFactor { return s.table.rf }

func (s *UpdateSketch) String(shouldPrintItems bool) string {
	seedHash, _ := s.SeedHash()
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

	var sb strings.Builder
	sb.WriteString("### Theta sketch summary:\n")
	fmt.Fprintf(&sb, "   num retained entries : %d\n", s.NumRetained())
	fmt.Fprintf(&sb, "   seed hash            : %d\n", seedHash)
	fmt.Fprintf(&sb, "   empty?               : %t\n", s.IsEmpty())
	fmt.Fprintf(&sb, "   ordered?             : %t\n", s.IsOrdered())
	fmt.Fprintf(&sb, "   estimation mode?     : %t\n", s.IsEstimationMode())
	fmt.Fprintf(&sb, "   theta (fraction)     : %f\n", s.Theta())
	fmt.Fprintf(&sb, "   theta (raw 64-bit)   : %d\n", s.Theta64())
	fmt.Fprintf(&sb, "   estimate             : %f\n", s.Estimate())
	fmt.Fprintf(&sb, "   lower bound 95%% conf : %f\n", lb)
	fmt.Fprintf(&sb, "   upper bound 95%% conf : %f\n", ub)
	fmt.Fprintf(&sb, "   lg nominal size      : %d\n", s.LgK())
	fmt.Fprintf(&sb, "   lg current size      : %d\n", s.table.lgCurSize)
	fmt.Fprintf(&sb, "   resize factor        : %d\n", 1<<s.ResizeFactor())
	sb.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		sb.WriteString("### Retained entries\n")
		for hash := range s.All() {
			fmt.Fprintf(&sb, "%d\n", hash)
		}
		sb.WriteString("### End retained entries\n")
	}

	return sb.String()
}

// insertOrDuplicate inserts hash if absent and reports which happened. A
// hash already present is left untouched: the retained set only ever grows
// through a hash the table has not seen before.
func (s *UpdateSketch) insertOrDuplicate(hash uint64) UpdateResult {
	index, err := s.table.find(hash)
	if err == ErrKeyNotFound {
		s.table.insert(index, hash)
		return InsertedCountIncremented
	}
	return RejectedDuplicate
}

func (s *UpdateSketch) UpdateInt64(value int64) UpdateResult {
	hash, ok := s.table.hashAndScreenInt64(value)
	if !ok {
		return RejectedOverTheta
	}
	return s.insertOrDuplicate(hash)
}

func (s *UpdateSketch) UpdateUint64(value uint64) UpdateResult { return s.UpdateInt64(int64(value)) }

func (s *UpdateSketch) UpdateInt32(value int32) UpdateResult {
	hash, ok := s.table.hashAndScreenInt32(value)
	if !ok {
		return RejectedOverTheta
	}
	return s.insertOrDuplicate(hash)
}

func (s *UpdateSketch) UpdateUint32(value uint32) UpdateResult { return s.UpdateInt64(int64(value)) }
func (s *UpdateSketch) UpdateInt16(value int16) UpdateResult   { return s.UpdateInt32(int32(value)) }
func (s *UpdateSketch) UpdateUint16(value uint16) UpdateResult { return s.UpdateInt32(int32(value)) }
func (s *UpdateSketch) UpdateInt8(value int8) UpdateResult     { return s.UpdateInt32(int32(value)) }
func (s *UpdateSketch) UpdateUint8(value uint8) UpdateResult   { return s.UpdateInt32(int32(value)) }

func (s *UpdateSketch) UpdateFloat64(value float64) UpdateResult {
	return s.UpdateInt64(canonicalDouble(value))
}

func (s *UpdateSketch) UpdateFloat32(value float32) UpdateResult {
	return s.UpdateFloat64(float64(value))
}

// UpdateString updates with a UTF-8 string's code points treated as UTF-16
// code units (the reference hashing contract's char encoding). An empty
// string is rejected rather than hashed.
func (s *UpdateSketch) UpdateString(value string) UpdateResult {
	if value == "" {
		return RejectedNullEmpty
	}
	hash, ok := s.table.hashAndScreenChars(utf16Bytes(value))
	if !ok {
		return RejectedOverTheta
	}
	return s.insertOrDuplicate(hash)
}

// UpdateBytes updates with a raw byte slice. A nil or empty slice is
// rejected rather than hashed.
func (s *UpdateSketch) UpdateBytes(data []byte) UpdateResult {
	if len(data) == 0 {
		return RejectedNullEmpty
	}
	hash, ok := s.table.hashAndScreenBytes(data)
	if !ok {
		return RejectedOverTheta
	}
	return s.insertOrDuplicate(hash)
}

// Trim rebuilds the table down to nominal size if it currently holds more.
func (s *UpdateSketch) Trim() { s.table.trim() }

// Reset clears the sketch back to its initial empty state, preserving its
// configured lgK/resize factor/p/seed.
func (s *UpdateSketch) Reset() { s.table.reset() }

func (s *UpdateSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.table.entries {
			if entry != 0 {
				if !yield(entry) {
					return
				}
			}
		}
	}
}

// Compact snapshots the sketch into an immutable CompactSketch.
func (s *UpdateSketch) Compact(ordered bool) *CompactSketch {
	return NewCompactSketch(s, ordered)
}

func (s *UpdateSketch) CompactOrdered() *CompactSketch {
	return s.Compact(true)
}

// CompactInto snapshots the sketch and serializes the snapshot into dest, a
// caller-owned buffer, rather than allocating a fresh []byte. dest must
// have at least the snapshot's SerializedSizeBytes(false) capacity; an
// undersized dest fails with an *ArgumentError and is left untouched.
func (s *UpdateSketch) CompactInto(ordered bool, dest []byte) (*CompactSketch, error) {
	compact := NewCompactSketch(s, ordered)
	if _, err := compact.WriteTo(false, dest); err != nil {
		return nil, err
	}
	return compact, nil
}

// SerializedSizeBytes reports the buffer capacity WriteTo would need for an
// uncompressed snapshot of the sketch's current state.
func (s *UpdateSketch) SerializedSizeBytes(compressed bool) int {
	return s.Compact(false).SerializedSizeBytes(compressed)
}

// WriteTo snapshots the sketch and serializes the snapshot into dest. See
// CompactInto to also keep the intermediate CompactSketch.
func (s *UpdateSketch) WriteTo(compressed bool, dest []byte) (int, error) {
	return s.Compact(false).WriteTo(compressed, dest)
}
