//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package server

import (
	"testing"
	"time"

	"github.com/stranddb/query/algebra"
	"github.com/stranddb/query/datastore"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/logging"
	"github.com/stranddb/query/prepareds"
	"github.com/stranddb/query/value"
)

type testParser struct {
}

func (this *testParser) Parse(text string) (algebra.Statement, errors.Error) {
	return &testStatement{text: text}, nil
}

type testStatement struct {
	text string
}

func (this *testStatement) Formalize(context datastore.Context) (algebra.Bindings, errors.Error) {
	return nil, nil
}

func (this *testStatement) CheckAccess(context datastore.Context) errors.Error {
	return nil
}

func (this *testStatement) Validate(context datastore.Context) errors.Error {
	return nil
}

func (this *testStatement) Execute(context datastore.Context, options *algebra.ExecuteOptions) (value.Result, errors.Error) {
	return value.VOID_RESULT, nil
}

func (this *testStatement) Type() string {
	return "SELECT"
}

func newTestServer() *Server {
	return NewServer(&testParser{}, nil, datastore.NewSchemaEvents(), prepareds.Config{
		Capacity: 1024 * 1024,
	})
}

func TestServerSettings(t *testing.T) {
	srvr := newTestServer()
	defer srvr.Close()

	settings := srvr.Settings()
	if settings[PRPCACHESIZE] != int64(1024*1024) {
		t.Errorf("Settings test: expected cache size 1048576, got %v", settings[PRPCACHESIZE])
	}
	if settings[MAXBOUNDTERMS] != prepareds.MAX_BOUND_TERMS {
		t.Errorf("Settings test: expected max bound terms %v, got %v",
			prepareds.MAX_BOUND_TERMS, settings[MAXBOUNDTERMS])
	}
	if _, ok := settings[LOGLEVEL]; !ok {
		t.Errorf("Settings test: expected a log level")
	}
	if _, ok := settings[PRPREPORTINTERVAL]; !ok {
		t.Errorf("Settings test: expected a report interval")
	}

	// the read-only setting has no checker and no setter
	if _, ok := CHECKERS[MAXBOUNDTERMS]; ok {
		t.Errorf("Settings test: expected max bound terms to be read-only")
	}
}

func TestProcessSettings(t *testing.T) {
	srvr := newTestServer()
	defer srvr.Close()
	level := logging.LogLevel()
	defer logging.SetLevel(level)

	err := ProcessSettings(map[string]interface{}{
		PRPCACHESIZE:      float64(2048),
		PRPREPORTINTERVAL: float64(30),
		LOGLEVEL:          "debug",
	}, srvr)
	if err != nil {
		t.Fatalf("Process settings test: expected success, got %v", err)
	}
	if size := srvr.PreparedsCacheSize(); size != 2048 {
		t.Errorf("Process settings test: expected cache size 2048, got %v", size)
	}
	if interval := srvr.PreparedsReportInterval(); interval != 30*time.Second {
		t.Errorf("Process settings test: expected report interval 30s, got %v", interval)
	}
	if lvl := logging.LogLevel(); lvl != logging.DEBUG {
		t.Errorf("Process settings test: expected debug level, got %v", lvl)
	}
}

func TestProcessSettingsRejection(t *testing.T) {
	srvr := newTestServer()
	defer srvr.Close()

	// unknown setting
	err := ProcessSettings(map[string]interface{}{"no-such-setting": 1}, srvr)
	if err == nil || err.Code() != errors.E_ADMIN_UNKNOWN_SETTING {
		t.Errorf("Rejection test: expected unknown setting, got %v", err)
	}

	// mistyped setting
	err = ProcessSettings(map[string]interface{}{PRPCACHESIZE: "lots"}, srvr)
	if err == nil || err.Code() != errors.E_ADMIN_SETTING_TYPE {
		t.Errorf("Rejection test: expected setting type error, got %v", err)
	}

	// out of range
	err = ProcessSettings(map[string]interface{}{PRPCACHESIZE: float64(0)}, srvr)
	if err == nil || err.Code() != errors.E_ADMIN_SETTING_TYPE {
		t.Errorf("Rejection test: expected setting type error, got %v", err)
	}

	// unparseable log level
	err = ProcessSettings(map[string]interface{}{LOGLEVEL: "chatty"}, srvr)
	if err == nil || err.Code() != errors.E_ADMIN_SETTING_TYPE {
		t.Errorf("Rejection test: expected setting type error, got %v", err)
	}

	// one bad setting fails the whole batch, the good one included
	err = ProcessSettings(map[string]interface{}{
		PRPCACHESIZE: float64(4096),
		LOGLEVEL:     42,
	}, srvr)
	if err == nil {
		t.Errorf("Rejection test: expected the batch rejected")
	}
	if size := srvr.PreparedsCacheSize(); size != 1024*1024 {
		t.Errorf("Rejection test: expected cache size unchanged, got %v", size)
	}
}
