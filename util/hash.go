//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package util

// Quick FNV1a hash to distribute strings across required cache buckets
// Using it instead of hash/fnv to avoid pointless memory allocation
func HashString(id string, hashes int) int {
	var h uint = 2166136261
	for _, c := range []byte(id) {
		h ^= uint(c)
		h *= 16777619
	}
	return int(h % uint(hashes))
}

// 31 multiplier polynomial hash over UTF-16 code units, matching the JVM
// String.hashCode() that legacy protocol clients use to address statements.
// Surrogate pairs are hashed half by half, overflow wraps at 32 bits.
// Inlined rather than going through unicode/utf16 to avoid allocating a
// code unit slice per call.
func HashJavaString(s string) int32 {
	var h int32
	for _, r := range s {
		if r > 0xffff {
			r -= 0x10000
			h = 31*h + (0xd800 + (r >> 10))
			h = 31*h + (0xdc00 + (r & 0x3ff))
		} else {
			h = 31*h + r
		}
	}
	return h
}
