//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

// Package server owns the wiring of the query front end: the statement
// caches, the execution pipeline, accounting and the runtime settings.
package server

import (
	"time"

	"github.com/stranddb/query/accounting"
	"github.com/stranddb/query/algebra"
	"github.com/stranddb/query/datastore"
	"github.com/stranddb/query/execution"
	"github.com/stranddb/query/logging"
	_ "github.com/stranddb/query/logging/resolver" // installs the default logger
	"github.com/stranddb/query/prepareds"
)

type Server struct {
	cache     *prepareds.Cache
	processor *execution.Processor
	store     accounting.AccountingStore
	events    *datastore.SchemaEvents
}

// NewServer wires a complete query front end: one cache service subscribed
// to schema events, one processor on top of it. Everything is owned here
// and injected downward; there is no package level state.
func NewServer(parser algebra.Parser, store accounting.AccountingStore,
	events *datastore.SchemaEvents, cacheConfig prepareds.Config) *Server {
	if store != nil && cacheConfig.Registry == nil {
		cacheConfig.Registry = store.MetricRegistry()
	}
	cacheConfig.Parser = parser
	cache := prepareds.NewCache(cacheConfig)
	if events != nil {
		events.Subscribe(cache)
	}
	return &Server{
		cache:     cache,
		processor: execution.NewProcessor(parser, cache, cacheConfig.Registry),
		store:     store,
		events:    events,
	}
}

func (this *Server) Close() {
	this.cache.Close()
}

func (this *Server) Cache() *prepareds.Cache {
	return this.cache
}

func (this *Server) Processor() *execution.Processor {
	return this.processor
}

func (this *Server) AccountingStore() accounting.AccountingStore {
	return this.store
}

func (this *Server) SchemaEvents() *datastore.SchemaEvents {
	return this.events
}

func (this *Server) SetPreparedsCacheSize(size int64) {
	this.cache.SetCapacity(size)
}

func (this *Server) PreparedsCacheSize() int64 {
	return this.cache.Capacity()
}

func (this *Server) SetPreparedsReportInterval(interval time.Duration) {
	this.cache.SetReportInterval(interval)
}

func (this *Server) PreparedsReportInterval() time.Duration {
	return this.cache.ReportInterval()
}

func (this *Server) SetLogLevel(level string) {
	lvl, ok := logging.ParseLevel(level)
	if !ok {
		logging.Errorf("SetLogLevel: unrecognized level %v", level)
		return
	}
	logging.SetLevel(lvl)
}

// current values of all settings, read-only ones included
func (this *Server) Settings() map[string]interface{} {
	return map[string]interface{}{
		PRPCACHESIZE:      this.PreparedsCacheSize(),
		PRPREPORTINTERVAL: int64(this.PreparedsReportInterval() / time.Second),
		LOGLEVEL:          logging.LogLevel().String(),
		MAXBOUNDTERMS:     prepareds.MAX_BOUND_TERMS,
	}
}
