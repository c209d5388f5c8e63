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

// admin level errors - errors that are created in the server and server/http packages

const E_ADMIN_BODY ErrorCode = 2010

func NewAdminBodyError(e error) Error {
	return &err{level: EXCEPTION, ICode: E_ADMIN_BODY, IKey: "admin.request_body_error", ICause: e,
		InternalMsg: "Error processing request body", InternalCaller: CallerN(1)}
}

const E_ADMIN_UNKNOWN_SETTING ErrorCode = 2020

func NewAdminUnknownSettingError(setting string) Error {
	return &err{level: EXCEPTION, ICode: E_ADMIN_UNKNOWN_SETTING, IKey: "admin.unknown_setting",
		InternalMsg: fmt.Sprintf("Unknown setting: %s", setting), InternalCaller: CallerN(1)}
}

const E_ADMIN_SETTING_TYPE ErrorCode = 2030

func NewAdminSettingTypeError(setting string, value interface{}) Error {
	return &err{level: EXCEPTION, ICode: E_ADMIN_SETTING_TYPE, IKey: "admin.setting_type_error",
		InternalMsg: fmt.Sprintf("Incorrect value %v (%T) for setting: %s", value, value, setting),
		InternalCaller: CallerN(1)}
}

const E_ADMIN_HTTP_METHOD ErrorCode = 2040

func NewAdminHttpMethodError(method string) Error {
	return &err{level: EXCEPTION, ICode: E_ADMIN_HTTP_METHOD, IKey: "admin.http_method_error",
		InternalMsg: fmt.Sprintf("Unsupported http method: %s", method), InternalCaller: CallerN(1)}
}

const E_ADMIN_INVALID_URL ErrorCode = 2050

func NewAdminInvalidURLError(component string, url string) Error {
	return &err{level: EXCEPTION, ICode: E_ADMIN_INVALID_URL, IKey: "admin.invalid_url",
		InternalMsg: fmt.Sprintf("Invalid %s url: %s", component, url), InternalCaller: CallerN(1)}
}
