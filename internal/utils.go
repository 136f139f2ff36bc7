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

package internal

import (
	"fmt"
	"math/bits"
)

// ComputeSeedHash derives the 16-bit identity token for seed: the low 16
// bits of the 128-bit hash of seed's 8-byte little-endian encoding. A
// seedHash of zero is reserved (it doubles as the Empty-sketch wildcard),
// so a seed that happens to produce one is rejected at construction time.
func ComputeSeedHash(seed int64) (int16, error) {
	h1, _ := HashInt64s([]int64{seed}, 0, 1, 0)
	h1 &= 0xFFFF
	if h1 == 0 {
		return 0, fmt.Errorf("seed %d hashes to a zero seedHash; choose a different seed", seed)
	}
	return int16(h1), nil
}

// Log2Floor returns floor(log2(n)), or 0 for n == 0.
func Log2Floor(n uint32) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(bits.Len32(n) - 1)
}

// LgSizeFromCount picks the smallest lg(table size) such that n entries fit
// under loadFactor, used when sizing a hash table from a known entry count
// (e.g. seeding an Intersection's table from the first input sketch).
func LgSizeFromCount(n uint32, loadFactor float64) uint8 {
	lgN := Log2Floor(n)
	capacityAtNextSize := uint32(1) << (lgN + 1)
	threshold := uint32(float64(capacityAtNextSize) * loadFactor)
	if n > threshold {
		return lgN + 2
	}
	return lgN + 1
}

// CeilingPowerOf2 returns the smallest power of two >= n, or 1 if n <= 1.
func CeilingPowerOf2(n int) uint32 {
	if n <= 1 {
		return 1
	}
	return uint32(1) << bits.Len32(uint32(n-1))
}
