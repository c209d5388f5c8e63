//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package errors

// Parse errors - errors that are created wrapping parser failures

const E_PARSE_SYNTAX ErrorCode = 3000

// The parser reports position context in its own message, which is kept
// verbatim: syntax errors are never cached and never rewritten.
func NewParseSyntaxError(e error, msg string) Error {
	switch e := e.(type) {
	case Error: // if given error is already an Error, just return it:
		return e
	default:
		return &err{level: EXCEPTION, ICode: E_PARSE_SYNTAX, IKey: "parse.syntax_error", ICause: e,
			InternalMsg: msg, InternalCaller: CallerN(1)}
	}
}
