//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package prepareds

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"

	"github.com/stranddb/query/util"
)

// Scheme is one of the two disjoint key spaces statements are addressed by.
// Names are never looked up across schemes.
type Scheme int

const (
	PRIMARY Scheme = iota // 128 bit digest addressing
	LEGACY                // 32 bit hash addressing, narrower legacy protocol
)

func (this Scheme) String() string {
	if this == LEGACY {
		return "legacy"
	}
	return "primary"
}

// PrimaryName computes the primary scheme identity of a statement: the MD5
// digest of the keyspace and query text, as hex. The keyspace is part of the
// digest so that a statement prepared under one keyspace can never alias a
// syntactically identical statement resolving differently in another.
func PrimaryName(text, keyspace string) string {
	digest := md5.Sum([]byte(keyspace + text))
	return hex.EncodeToString(digest[:])
}

// LegacyName computes the legacy scheme identity over the same
// concatenation, byte compatible with the historical client protocol.
func LegacyName(text, keyspace string) int32 {
	return util.HashJavaString(keyspace + text)
}

// LegacyId is the cache addressing id for a legacy name
func LegacyId(name int32) string {
	return strconv.FormatInt(int64(name), 10)
}
