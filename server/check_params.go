//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package server

import (
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/logging"
)

const (
	LOGLEVEL          = "loglevel"
	PRPCACHESIZE      = "prepared-cache-size"
	PRPREPORTINTERVAL = "prepared-report-interval"

	// read-only, reported in the settings snapshot but never settable
	MAXBOUNDTERMS = "max-bound-terms"
)

type Checker func(interface{}) (bool, errors.Error)

var CHECKERS = map[string]Checker{
	LOGLEVEL: checkLogLevel,
	PRPCACHESIZE: func(val interface{}) (bool, errors.Error) {
		return checkNumberMin(val, 1)
	},
	PRPREPORTINTERVAL: func(val interface{}) (bool, errors.Error) {
		return checkNumberMin(val, 1)
	},
}

func checkNumberMin(val interface{}, min int) (bool, errors.Error) {
	switch val := val.(type) {
	case int64:
		return val >= int64(min), nil
	case float64:
		return val >= float64(min), nil
	}
	return false, nil
}

func checkLogLevel(val interface{}) (bool, errors.Error) {
	level, is_string := val.(string)
	if !is_string {
		return false, nil
	}
	_, ok := logging.ParseLevel(level)
	return ok, nil
}
