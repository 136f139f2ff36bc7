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

// Package theta implements Theta sketches: a mergeable, fixed-memory
// cardinality estimator supporting Union, Intersection, and A-not-B over
// compact, wire-stable serialized forms.
package theta

import "math"

// ResizeFactor controls how aggressively the internal hash table grows
// between nominal size and the full 2*k it may reach before a rebuild.
type ResizeFactor uint8

const (
	// ResizeX1 never grows the table past its starting size; the first
	// overflow goes straight to a quickselect rebuild.
	ResizeX1 ResizeFactor = iota
	// ResizeX2 doubles the table on growth.
	ResizeX2
	// ResizeX4 quadruples the table on growth.
	ResizeX4
	// ResizeX8 multiplies the table by 8 on growth.
	ResizeX8
)

// DefaultResizeFactor is used when a builder does not set one explicitly.
const DefaultResizeFactor = ResizeX8

// MaxTheta is theta's saturated value, representing a sampling fraction of
// 1.0. Chosen as signed int64 max (not uint64 max) so hash values, which
// always have their top bit cleared, compare correctly against it.
const MaxTheta uint64 = math.MaxInt64

// MinLgK is the minimum allowed log2(k).
const MinLgK uint8 = 4

// MaxLgK is the maximum allowed log2(k).
const MaxLgK uint8 = 26

// DefaultLgK is used when a builder does not set log2(k) explicitly.
const DefaultLgK uint8 = 12

// DefaultSeed is the hash seed used when a caller does not supply one.
// Sketches built with different seeds are never set-operation compatible
// with each other (see SeedHash).
const DefaultSeed uint64 = 9001
