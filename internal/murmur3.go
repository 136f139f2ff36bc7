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

// Package internal holds the hashing and selection primitives shared by the
// theta sketch package but not meant for external consumption.
//
// The 128-bit hash below is a from-scratch port of the MurmurHash3 variant
// used by the reference implementation of this sketch family. Item hashes
// and seed hashes are wire-format identity: two implementations that hash
// the same bytes must agree bit-for-bit, so the constants and mixing steps
// here are not open to "equivalent" substitutes.
package internal

// murmur3 finalization/mixing constants (128-bit, x64 variant).
const (
	mmix1 = 0x87c37b91114253d5
	mmix2 = 0x4cf5ad432745937f
)

// murmur128 accumulates the two 64-bit lanes of the 128-bit hash state.
type murmur128 struct {
	h1 uint64
	h2 uint64
}

// HashBytes hashes a byte slice under seed, returning both 64-bit lanes of
// the 128-bit digest.
func HashBytes(key []byte, offset, length int, seed uint64) (uint64, uint64) {
	st := murmur128{h1: seed, h2: seed}

	nblocks := length >> 4 // 16 bytes per 128-bit block
	for i := 0; i < nblocks; i++ {
		k1 := getUint64(key, offset+(i<<4), 8)
		k2 := getUint64(key, offset+(i<<4)+8, 8)
		st.mixBlock(k1, k2)
	}

	tail := nblocks << 4
	rem := length - tail

	var k1, k2 uint64
	if rem > 8 {
		k1 = getUint64(key, offset+tail, 8)
		k2 = getUint64(key, offset+tail+8, rem-8)
	} else if rem != 0 {
		k1 = getUint64(key, offset+tail, rem)
	}

	return st.finalize(k1, k2, uint64(length))
}

// HashChars hashes lengthChars UTF-16 code units, stored little-endian in
// key, under seed. Four code units (8 bytes) pack into each 64-bit lane, so
// the result equals HashBytes over the same 2*lengthChars bytes, matching the
// reference implementation's treatment of Java chars.
func HashChars(key []byte, offsetChars, lengthChars int, seed uint64) (uint64, uint64) {
	return HashBytes(key, offsetChars<<1, lengthChars<<1, seed)
}

// HashInt32s hashes lengthInts signed 32-bit values under seed.
func HashInt32s(key []int32, offset, length int, seed uint64) (uint64, uint64) {
	st := murmur128{h1: seed, h2: seed}

	// two little-endian int32 values fill one 64-bit lane
	lane := func(i, n int) uint64 {
		v := uint64(uint32(key[i]))
		if n > 1 {
			v |= uint64(uint32(key[i+1])) << 32
		}
		return v
	}

	nblocks := length >> 2
	for i := 0; i < nblocks; i++ {
		k1 := lane(offset+(i<<2), 2)
		k2 := lane(offset+(i<<2)+2, 2)
		st.mixBlock(k1, k2)
	}

	tail := nblocks << 2
	rem := length - tail

	var k1, k2 uint64
	if rem > 2 {
		k1 = lane(offset+tail, 2)
		k2 = lane(offset+tail+2, rem-2)
	} else if rem != 0 {
		k1 = lane(offset+tail, rem)
	}

	return st.finalize(k1, k2, uint64(length)<<2)
}

// HashInt64s hashes lengthLongs signed 64-bit values under seed.
func HashInt64s(key []int64, offset, length int, seed uint64) (uint64, uint64) {
	st := murmur128{h1: seed, h2: seed}

	nblocks := length >> 1
	for i := 0; i < nblocks; i++ {
		k1 := uint64(key[offset+(i<<1)])
		k2 := uint64(key[offset+(i<<1)+1])
		st.mixBlock(k1, k2)
	}

	tail := nblocks << 1
	var k1 uint64
	if length != tail {
		k1 = uint64(key[offset+tail])
	}

	return st.finalize(k1, 0, uint64(length)<<3)
}

func getUint64(b []byte, index, rem int) uint64 {
	var out uint64
	for i := rem - 1; i >= 0; i-- {
		out ^= uint64(b[index+i]) << uint(i*8)
	}
	return out
}

func (m *murmur128) mixBlock(k1, k2 uint64) {
	m.h1 ^= mixK1(k1)
	m.h1 = rotl64(m.h1, 27)
	m.h1 += m.h2
	m.h1 = m.h1*5 + 0x52dce729

	m.h2 ^= mixK2(k2)
	m.h2 = rotl64(m.h2, 31)
	m.h2 += m.h1
	m.h2 = m.h2*5 + 0x38495ab5
}

func (m *murmur128) finalize(k1, k2, lengthBytes uint64) (uint64, uint64) {
	m.h1 ^= mixK1(k1)
	m.h2 ^= mixK2(k2)
	m.h1 ^= lengthBytes
	m.h2 ^= lengthBytes
	m.h1 += m.h2
	m.h2 += m.h1
	m.h1 = avalanche(m.h1)
	m.h2 = avalanche(m.h2)
	m.h1 += m.h2
	m.h2 += m.h1
	return m.h1, m.h2
}

func mixK1(k1 uint64) uint64 {
	k1 *= mmix1
	k1 = rotl64(k1, 31)
	k1 *= mmix2
	return k1
}

func mixK2(k2 uint64) uint64 {
	k2 *= mmix2
	k2 = rotl64(k2, 33)
	k2 *= mmix1
	return k2
}

func avalanche(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

func rotl64(x uint64, r uint) uint64 {
	return (x << r) | (x >> (64 - r))
}
