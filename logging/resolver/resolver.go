//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package resolver

import (
	"os"
	"strings"

	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/logging"
	"github.com/stranddb/query/logging/logger_golog"
)

func NewLogger(uri string) (logging.Logger, errors.Error) {
	switch {
	case strings.HasPrefix(uri, "golog"):
		logger := logger_golog.NewLogger(os.Stderr, logging.INFO, strings.HasSuffix(uri, "json"))
		logging.SetLogger(logger)
		return logger, nil
	}
	return nil, errors.NewAdminInvalidURLError("Logger", uri)
}

func init() {
	logger := logger_golog.NewLogger(os.Stderr, logging.INFO, false)
	logging.SetLogger(logger)
}
