//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package server

import (
	"time"

	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/logging"
)

type Setter func(*Server, interface{}) errors.Error

var _SETTERS = map[string]Setter{
	LOGLEVEL: func(s *Server, o interface{}) errors.Error {
		value, _ := o.(string)
		s.SetLogLevel(value)
		return nil
	},
	PRPCACHESIZE: func(s *Server, o interface{}) errors.Error {
		value := getNumber(o)
		s.SetPreparedsCacheSize(int64(value))
		return nil
	},
	PRPREPORTINTERVAL: func(s *Server, o interface{}) errors.Error {
		value := getNumber(o)
		s.SetPreparedsReportInterval(time.Duration(value) * time.Second)
		return nil
	},
}

func getNumber(o interface{}) float64 {
	switch o := o.(type) {
	case int64:
		return float64(o)
	case float64:
		return o
	}
	return -1
}

// ProcessSettings validates the whole batch first, then applies: a batch
// with any unknown or mistyped setting changes nothing.
func ProcessSettings(settings map[string]interface{}, srvr *Server) errors.Error {
	for setting, value := range settings {
		if check_it, ok := CHECKERS[setting]; !ok {
			return errors.NewAdminUnknownSettingError(setting)
		} else {
			ok, err := check_it(value)
			if !ok {
				if err == nil {
					return errors.NewAdminSettingTypeError(setting, value)
				} else {
					return err
				}
			}
		}
	}
	for setting, value := range settings {
		set_it := _SETTERS[setting]
		err := set_it(srvr, value)
		if err == nil {
			logging.Infof("Query configuration changed for %v. New value is %v", setting, value)
		} else {
			logging.Infof("Could not change query configuration %v to %v: %v", setting, value, err)
		}
	}
	return nil
}
