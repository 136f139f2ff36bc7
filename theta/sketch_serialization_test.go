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
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildTestSketch(t *testing.T, n int, lgK uint8) *CompactSketch {
	t.Helper()
	sketch, err := NewUpdateSketch(WithUpdateSketchLgK(lgK))
	assert.NoError(t, err)
	for i := 0; i < n; i++ {
		sketch.UpdateInt64(int64(i))
	}
	return sketch.CompactOrdered()
}

func TestRoundTrip_Empty(t *testing.T) {
	sketch, err := NewUpdateSketch()
	assert.NoError(t, err)
	compact := sketch.Compact(true)

	for _, compressed := range []bool{false, true} {
		buf, err := compact.ToBytes(compressed)
		assert.NoError(t, err)

		decoded, err := Decode(buf, DefaultSeed)
		assert.NoError(t, err)
		assert.True(t, decoded.IsEmpty())
		assert.Equal(t, uint32(0), decoded.NumRetained())
	}
}

func TestRoundTrip_SingleItem(t *testing.T) {
	sketch, err := NewUpdateSketch()
	assert.NoError(t, err)
	sketch.UpdateInt64(42)
	compact := sketch.Compact(true)

	buf, err := compact.ToBytes(false)
	assert.NoError(t, err)

	decoded, err := Decode(buf, DefaultSeed)
	assert.NoError(t, err)
	assert.False(t, decoded.IsEmpty())
	assert.Equal(t, uint32(1), decoded.NumRetained())
	assert.Equal(t, compact.Theta64(), decoded.Theta64())
}

func TestRoundTrip_ExactMode(t *testing.T) {
	compact := buildTestSketch(t, 20, 8)
	assert.False(t, compact.IsEstimationMode())

	for _, compressed := range []bool{false, true} {
		buf, err := compact.ToBytes(compressed)
		assert.NoError(t, err)

		decoded, err := Decode(buf, DefaultSeed)
		assert.NoError(t, err)
		assert.Equal(t, compact.NumRetained(), decoded.NumRetained())
		assert.Equal(t, compact.Theta64(), decoded.Theta64())
		assert.Equal(t, collectEntries(compact), collectEntries(decoded))
	}
}

func TestRoundTrip_EstimationMode(t *testing.T) {
	compact := buildTestSketch(t, 8000, 10)
	assert.True(t, compact.IsEstimationMode())

	for _, compressed := range []bool{false, true} {
		buf, err := compact.ToBytes(compressed)
		assert.NoError(t, err)

		decoded, err := Decode(buf, DefaultSeed)
		assert.NoError(t, err)
		assert.Equal(t, compact.NumRetained(), decoded.NumRetained())
		assert.Equal(t, compact.Theta64(), decoded.Theta64())
		assert.Equal(t, collectEntries(compact), collectEntries(decoded))
	}
}

func TestDecode_SeedMismatch(t *testing.T) {
	compact := buildTestSketch(t, 20, 8)
	buf, err := compact.ToBytes(false)
	assert.NoError(t, err)

	_, err = Decode(buf, DefaultSeed+1)
	assert.ErrorIs(t, err, ErrSeedMismatch)
}

func TestDecode_UnsupportedFamily(t *testing.T) {
	compact := buildTestSketch(t, 5, 8)
	buf, err := compact.ToBytes(false)
	assert.NoError(t, err)

	buf[familyIDByte] = 99
	_, err = Decode(buf, DefaultSeed)
	assert.Error(t, err)
	var verr *VersionError
	assert.ErrorAs(t, err, &verr)
}

func TestDecode_TruncatedBuffer(t *testing.T) {
	compact := buildTestSketch(t, 20, 8)
	buf, err := compact.ToBytes(false)
	assert.NoError(t, err)

	_, err = Decode(buf[:len(buf)-4], DefaultSeed)
	assert.Error(t, err)
}

func TestWrapCompactSketch_MatchesDecode(t *testing.T) {
	for _, compressed := range []bool{false, true} {
		compact := buildTestSketch(t, 8000, 10)
		buf, err := compact.ToBytes(compressed)
		assert.NoError(t, err)

		wrapped, err := WrapCompactSketch(buf, DefaultSeed)
		assert.NoError(t, err)
		assert.Equal(t, compact.NumRetained(), wrapped.NumRetained())
		assert.Equal(t, compact.Theta64(), wrapped.Theta64())
		assert.Equal(t, collectEntries(compact), collectEntriesWrapped(wrapped))
	}
}

func TestDecoder_Decode(t *testing.T) {
	compact := buildTestSketch(t, 20, 8)
	buf, err := compact.ToBytes(false)
	assert.NoError(t, err)

	dec := NewDecoder(DefaultSeed)
	decoded, err := dec.Decode(bytes.NewReader(buf))
	assert.NoError(t, err)
	assert.Equal(t, compact.NumRetained(), decoded.NumRetained())
}

func TestMarshalBinary(t *testing.T) {
	compact := buildTestSketch(t, 20, 8)
	buf, err := compact.MarshalBinary()
	assert.NoError(t, err)
	assert.Equal(t, buf[serialVersionByte], byte(UncompressedSerialVersion))
}

func collectEntries(s *CompactSketch) []uint64 {
	var out []uint64
	for e := range s.All() {
		out = append(out, e)
	}
	return out
}

func collectEntriesWrapped(s *WrappedCompactSketch) []uint64 {
	var out []uint64
	for e := range s.All() {
		out = append(out, e)
	}
	return out
}
