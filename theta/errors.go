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
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is against these, or errors.As against
// the wrapping *ArgumentError / *VersionError types when a message needs
// structured detail.
var (
	// ErrSeedMismatch is returned when two sketches participating in a set
	// operation were built with different seeds (and neither is the Empty
	// wildcard).
	ErrSeedMismatch = errors.New("theta: seed hash mismatch")

	// ErrReadOnly names the read-only failure kind. The read-only sketch
	// types (CompactSketch, WrappedCompactSketch) have no mutator methods,
	// so no method in this package currently returns it.
	ErrReadOnly = errors.New("theta: sketch is read-only")

	// ErrState is returned for operations invalid in the operator's
	// current state: GetResult on a virgin Intersection, NotB before SetA.
	ErrState = errors.New("theta: invalid operator state")

	// ErrUnsupported is returned by ToBytes on the stateful A-not-B
	// scratch buffer, which is not independently serializable.
	ErrUnsupported = errors.New("theta: operation not supported")

	// ErrKeyNotFound indicates a probe reached an empty slot without a match.
	ErrKeyNotFound = errors.New("theta: key not found")

	// ErrTableFull indicates a probe cycled the whole table without
	// finding an empty slot or a match — the caller has a sizing bug, since
	// tables are always grown/rebuilt before this can legitimately happen.
	ErrTableFull = errors.New("theta: key not found and table has no empty slots")
)

// ArgumentError reports an invalid caller-supplied value: out-of-range k,
// invalid p, a destination buffer too small, or a corrupt/mismatched
// serialized header field.
type ArgumentError struct {
	msg string
}

func newArgumentError(format string, args ...any) *ArgumentError {
	return &ArgumentError{msg: fmt.Sprintf(format, args...)}
}

func (e *ArgumentError) Error() string { return "theta: " + e.msg }

// VersionError reports a serialized blob whose serVer or familyID the
// decoder does not recognize for the shape being decoded.
type VersionError struct {
	msg string
}

func newVersionError(format string, args ...any) *VersionError {
	return &VersionError{msg: fmt.Sprintf(format, args...)}
}

func (e *VersionError) Error() string { return "theta: " + e.msg }
