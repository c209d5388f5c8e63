//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package prepareds

import (
	"github.com/stranddb/query/plan"
)

// Weigher estimates the retained heap footprint of a cache entry, in bytes.
// It is an estimate driving capacity accounting, not an allocator limit:
// summed weights need to track memory pressure, not match it.
type Weigher func(id string, prepared *plan.Prepared) int

const (
	_ENTRY_OVERHEAD   = 256 // entry, map cell, list links, prepared header
	_BINDING_OVERHEAD = 64  // binding struct and slice cell
	_STATEMENT_FACTOR = 4   // parsed statement nodes, per byte of text
)

// DefaultWeigher prices an entry off the lengths of what it pins: the cache
// id, the statement text (and the parse tree, sized as a multiple of it),
// the keyspace and the binding metadata.
func DefaultWeigher(id string, prepared *plan.Prepared) int {
	weight := _ENTRY_OVERHEAD + len(id) + len(prepared.Keyspace()) +
		len(prepared.Text())*(1+_STATEMENT_FACTOR)
	for _, b := range prepared.Bindings() {
		weight += _BINDING_OVERHEAD + len(b.Name()) + len(b.DataType()) +
			len(b.Keyspace()) + len(b.Table())
	}
	return weight
}
