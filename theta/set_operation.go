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

// Policy lets a Union or Intersection customize what happens when an
// incoming hash collides with one already retained — e.g. summing an
// associated weight instead of keeping the table's default "first seen
// wins" behavior. Plain cardinality estimation never needs one; it exists
// as an extension point for callers carrying auxiliary data alongside each
// hash in a derived sketch family.
type Policy interface {
	// Apply is invoked when incomingEntry matches an already-retained hash.
	// internalEntry points at the retained table slot, which holds the
	// same hash value; implementations mutate auxiliary state keyed on it
	// elsewhere, since the hash itself must not change.
	Apply(internalEntry *uint64, incomingEntry uint64)
}

type noopPolicy struct{}

func (*noopPolicy) Apply(internalEntry *uint64, incomingEntry uint64) {}
