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

// Execution errors - errors that are created in the execution package

const E_INTERNAL ErrorCode = 5000

const E_ARITY_MISMATCH ErrorCode = 5010

func NewArityMismatchError(expected, got int) Error {
	return &err{level: EXCEPTION, ICode: E_ARITY_MISMATCH, IKey: "execution.arity_mismatch",
		InternalMsg:    fmt.Sprintf("Expected %d bound values, got %d", expected, got),
		InternalCaller: CallerN(1)}
}

const E_INVALID_KEY ErrorCode = 5020

func NewInvalidKeyError(msg string) Error {
	return &err{level: EXCEPTION, ICode: E_INVALID_KEY, IKey: "execution.invalid_key",
		InternalMsg: "Invalid key: " + msg, InternalCaller: CallerN(1)}
}

const E_NOT_PAGEABLE ErrorCode = 5030

func NewNotPageableError(stmt string) Error {
	return &err{level: EXCEPTION, ICode: E_NOT_PAGEABLE, IKey: "execution.not_pageable",
		InternalMsg:    fmt.Sprintf("Statement does not support paged execution: %s", stmt),
		InternalCaller: CallerN(1)}
}

const E_INTERNAL_STATEMENT ErrorCode = 5040

// Internal statements are trusted traffic: a preparation failure here is a
// programming defect, not user error, hence the severity.
func NewInternalStatementError(text string, e error) Error {
	return &err{level: EXCEPTION, ICode: E_INTERNAL_STATEMENT, IKey: "execution.internal_statement_error",
		ICause: e, InternalMsg: "Error preparing internal statement: " + text, InternalCaller: CallerN(1)}
}
