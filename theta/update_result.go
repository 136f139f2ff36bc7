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

// UpdateResult reports what an Update* call actually did to the sketch,
// distinguishing a new insertion from the several ways an update can be
// rejected without one. Callers that only care about the resulting
// cardinality can ignore the return value entirely.
type UpdateResult int

const (
	// InsertedCountIncremented means the hash passed the theta screen, was
	// not already retained, and was added: NumRetained grew by one.
	InsertedCountIncremented UpdateResult = iota

	// RejectedOverTheta means the hash was computed but did not survive
	// the theta screen (it landed at or above the current theta, or hit
	// the reserved zero value), so it carries no information about set
	// membership and was discarded unseen.
	RejectedOverTheta

	// RejectedNullEmpty means the call itself carried nothing to hash: an
	// empty string to UpdateString, or a nil/empty slice to UpdateBytes.
	RejectedNullEmpty

	// RejectedDuplicate means the hash survived the theta screen but was
	// already retained: the update carries no new information and
	// NumRetained is unchanged.
	RejectedDuplicate

	// InsertedCountNotIncremented is an alias of RejectedDuplicate, named
	// for readers coming from the reference enum's phrasing of the same
	// outcome ("found, so not incremented" rather than "rejected"). It is
	// never produced as a distinct code path; the two names mean one thing.
	InsertedCountNotIncremented = RejectedDuplicate
)

func (r UpdateResult) String() string {
	switch r {
	case InsertedCountIncremented:
		return "InsertedCountIncremented"
	case RejectedOverTheta:
		return "RejectedOverTheta"
	case RejectedNullEmpty:
		return "RejectedNullEmpty"
	case RejectedDuplicate:
		return "RejectedDuplicate"
	default:
		return "UpdateResult(unknown)"
	}
}

// Inserted reports whether the update grew the retained set.
func (r UpdateResult) Inserted() bool { return r == InsertedCountIncremented }

// Rejected reports whether the update was discarded for any reason,
// including a duplicate.
func (r UpdateResult) Rejected() bool { return r != InsertedCountIncremented }
