//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

/*
Package algebra defines the contracts the preparation and caching layer
consumes from the statement implementations: parsing, semantic analysis,
access checking, validation and execution. The statement kinds themselves
(SELECT, INSERT, UPDATE, DELETE, BATCH, schema changes) live behind these
interfaces and are never interpreted here.
*/
package algebra

import (
	"github.com/stranddb/query/datastore"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/value"
)

// Parser turns query text into a statement, or a syntax error.
type Parser interface {
	Parse(text string) (Statement, errors.Error)
}

// Statement is the narrow capability surface every statement kind provides.
// Statements are immutable once formalized and safely shared by reference.
type Statement interface {

	// semantic analysis: resolves names against the context's active
	// keyspace and produces the bound variable specifications, in
	// marker order
	Formalize(context datastore.Context) (Bindings, errors.Error)

	// authorization hook, invoked before any execution side effect
	CheckAccess(context datastore.Context) errors.Error

	// semantic validation hook (e.g. consistency applicability)
	Validate(context datastore.Context) errors.Error

	// execution hook; a nil result stands for a void acknowledgment
	// and is normalized by the caller, never passed through
	Execute(context datastore.Context, options *ExecuteOptions) (value.Result, errors.Error)

	// statement kind, for monitoring ("SELECT", "INSERT", ...)
	Type() string
}

// TableStatement is implemented by the statement kinds that reference
// exactly one table. Only these are eligible for targeted invalidation on
// schema drops; every other kind stays cached until naturally ejected.
type TableStatement interface {
	Statement
	Keyspace() string
	Table() string
}

// BatchStatement is implemented by statement kinds composed of other
// statements, which carry an extra composition check.
type BatchStatement interface {
	Statement
	ValidateComposition(context datastore.Context) errors.Error
}

// PageableStatement is implemented by statement kinds that can hand their
// results out a page at a time.
type PageableStatement interface {
	Statement
	Pager(context datastore.Context, options *ExecuteOptions) (Pager, errors.Error)
}

// Pager walks a paged result set. Cursor mechanics beyond this hand-off
// point belong to the statement implementation.
type Pager interface {
	NextPage() (*value.Rows, errors.Error) // nil rows when exhausted
	Close()
}

// ExecuteOptions carries the per-invocation execution inputs.
type ExecuteOptions struct {
	Values   value.Values // bound values, in marker order
	PageSize int          // rows per page for paged execution, 0 for unpaged
}
