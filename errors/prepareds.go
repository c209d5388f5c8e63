//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package errors

import (
	"fmt"
)

// Prepared statement errors - errors that are created in the prepareds package

const E_NO_SUCH_PREPARED ErrorCode = 4040

func NewNoSuchPreparedError(name string) Error {
	return &err{level: EXCEPTION, ICode: E_NO_SUCH_PREPARED, IKey: "prepareds.no_such_name",
		InternalMsg: fmt.Sprintf("No such prepared statement: %s", name), InternalCaller: CallerN(1)}
}

const E_PREPARED_ENCODING ErrorCode = 4050

func NewPreparedEncodingError(name string, e error) Error {
	return &err{level: EXCEPTION, ICode: E_PREPARED_ENCODING, IKey: "prepareds.encoding", ICause: e,
		InternalMsg: fmt.Sprintf("Unable to encode prepared statement: %s", name), InternalCaller: CallerN(1)}
}

const E_PREPARED_DECODING ErrorCode = 4060

func NewPreparedDecodingError(name string, e error) Error {
	return &err{level: EXCEPTION, ICode: E_PREPARED_DECODING, IKey: "prepareds.decoding", ICause: e,
		InternalMsg: fmt.Sprintf("Unable to decode prepared statement: %s", name), InternalCaller: CallerN(1)}
}

const E_TOO_MANY_BOUND_TERMS ErrorCode = 4070

func NewTooManyBoundTermsError(got, limit int) Error {
	return &err{level: EXCEPTION, ICode: E_TOO_MANY_BOUND_TERMS, IKey: "prepareds.too_many_bound_terms",
		InternalMsg:    fmt.Sprintf("Too many bound terms in statement: %d (maximum %d)", got, limit),
		InternalCaller: CallerN(1)}
}

const E_PREPARED_TOO_LARGE ErrorCode = 4080

// An oversized statement is refused before execution: ejecting the whole
// cache to make room for an entry that can never fit helps nobody.
func NewPreparedTooLargeError(name string, weight int, capacity int64) Error {
	return &err{level: EXCEPTION, ICode: E_PREPARED_TOO_LARGE, IKey: "prepareds.statement_too_large",
		InternalMsg:    fmt.Sprintf("Prepared statement %s too large to cache: %d bytes (capacity %d)", name, weight, capacity),
		InternalCaller: CallerN(1)}
}
