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
	"math"
	"unicode/utf16"

	"github.com/cardinalio/thetasketch/internal"
)

// itemHash64 returns the upper 64 bits of the 128-bit hash of data under
// seed, with the top bit cleared so the result always lands in (0, 2^63).
// A result of exactly 0 cannot be distinguished from an empty table slot
// and is handled by callers as a reject (see hashtable.screen).
func itemHash64(data []byte, seed uint64) uint64 {
	h1, _ := internal.HashBytes(data, 0, len(data), seed)
	return h1 >> 1
}

func itemHashInt32(value int32, seed uint64) uint64 {
	h1, _ := internal.HashInt32s([]int32{value}, 0, 1, seed)
	return h1 >> 1
}

func itemHashInt64(value int64, seed uint64) uint64 {
	h1, _ := internal.HashInt64s([]int64{value}, 0, 1, seed)
	return h1 >> 1
}

// itemHashChars hashes packedUTF16, a little-endian UTF-16 code unit
// sequence produced by utf16Bytes, under seed.
func itemHashChars(packedUTF16 []byte, seed uint64) uint64 {
	h1, _ := internal.HashChars(packedUTF16, 0, len(packedUTF16)/2, seed)
	return h1 >> 1
}

// utf16Bytes encodes s as little-endian UTF-16 code units, matching the
// char encoding the reference hashing contract uses for string updates.
func utf16Bytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

// canonicalDouble normalizes -0.0 to +0.0 and collapses every NaN bit
// pattern to Java's canonical Double.doubleToLongBits() NaN, so that
// semantically-equal float inputs always hash identically regardless of
// which particular NaN payload or signed zero produced them.
func canonicalDouble(value float64) int64 {
	if value == 0.0 {
		return 0
	}
	if math.IsNaN(value) {
		return 0x7ff8000000000000
	}
	return int64(math.Float64bits(value))
}

// SeedHash computes the 16-bit identity token for seed: the low 16 bits of
// the 128-bit hash of seed's 8-byte little-endian encoding. Two sketches
// (or a sketch and a set operator) must agree on SeedHash before they can
// be combined — see ErrSeedMismatch.
func SeedHash(seed uint64) (uint16, error) {
	h, err := internal.ComputeSeedHash(int64(seed))
	if err != nil {
		return 0, newArgumentError("%s", err.Error())
	}
	return uint16(h), nil
}

