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
	"encoding/binary"
	"io"
)

// Encoder writes CompactSketch values to a stream in either the
// uncompressed (serVer 3) or bit-packed delta (serVer 4) wire form.
type Encoder struct {
	w          io.Writer
	compressed bool
}

// NewEncoder returns an Encoder writing to w. compressed selects serVer 4;
// Encode falls back to the uncompressed form automatically for shapes the
// compressed codec cannot represent (see CompactSketch.isSuitableForCompression).
func NewEncoder(w io.Writer, compressed bool) Encoder {
	return Encoder{w: w, compressed: compressed}
}

func (enc Encoder) Encode(sketch *CompactSketch) error {
	if enc.compressed {
		return enc.encodeCompressed(sketch)
	}
	return enc.encodeUncompressed(sketch)
}

func (enc Encoder) encodeCompressed(sketch *CompactSketch) error {
	if !sketch.isSuitableForCompression() {
		return enc.encodeUncompressed(sketch)
	}

	entryBits := sketch.computeEntryBits()
	numEntriesBytes := sketch.numEntriesBytes()
	size := sketch.compressedSerializedSizeBytes(entryBits, numEntriesBytes)
	buf := make([]byte, size)

	preambleLongs := sketch.preambleLongs(true)
	offset := 0

	buf[offset] = preambleLongs
	offset++
	buf[offset] = CompressedSerialVersion
	offset++
	buf[offset] = CompactSketchFamilyID
	offset++
	buf[offset] = entryBits
	offset++
	buf[offset] = numEntriesBytes
	offset++

	flags := byte(0)
	flags |= 1 << flagIsCompact
	flags |= 1 << flagIsReadOnly
	flags |= 1 << flagIsOrdered
	buf[offset] = flags
	offset++

	binary.LittleEndian.PutUint16(buf[offset:offset+2], sketch.seedHash)
	offset += 2

	if sketch.IsEstimationMode() {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], sketch.theta)
		offset += 8
	}

	numEntries := uint32(len(sketch.entries))
	for i := uint8(0); i < numEntriesBytes; i++ {
		buf[offset] = byte(numEntries >> (i << 3))
		offset++
	}

	previous := uint64(0)
	deltas := make([]uint64, 8)
	i := 0
	bitOffset := 0
	for i+7 < len(sketch.entries) {
		for j := 0; j < 8; j++ {
			deltas[j] = sketch.entries[i+j] - previous
			previous = sketch.entries[i+j]
		}
		packBitsBlock8(deltas, 0, buf[offset:], bitOffset, int(entryBits))
		offset += int(entryBits)
		i += 8
	}

	bitOffset = 0
	tailBuf := buf[offset:]
	for i < len(sketch.entries) {
		delta := sketch.entries[i] - previous
		previous = sketch.entries[i]
		bitOffset = packOneBits(delta, int(entryBits), tailBuf, bitOffset)
		i++
	}

	n, err := enc.w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

func (enc Encoder) encodeUncompressed(sketch *CompactSketch) error {
	preambleLongs := sketch.preambleLongs(false)
	buf := make([]byte, sketch.SerializedSizeBytes(false))

	offset := 0
	buf[offset] = preambleLongs
	offset++
	buf[offset] = UncompressedSerialVersion
	offset++
	buf[offset] = CompactSketchFamilyID
	offset++
	offset += 2 // unused

	flags := byte(0)
	flags |= 1 << flagIsCompact
	flags |= 1 << flagIsReadOnly
	if sketch.IsEmpty() {
		flags |= 1 << flagIsEmpty
	}
	if sketch.IsOrdered() {
		flags |= 1 << flagIsOrdered
	}
	buf[offset] = flags
	offset++

	seedHash, _ := sketch.SeedHash()
	binary.LittleEndian.PutUint16(buf[offset:offset+2], seedHash)
	offset += 2

	if preambleLongs > 1 {
		binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(len(sketch.entries)))
		offset += 4
		offset += 4 // unused
	}

	if sketch.IsEstimationMode() {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], sketch.theta)
		offset += 8
	}

	for _, entry := range sketch.entries {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], entry)
		offset += 8
	}

	n, err := enc.w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}
