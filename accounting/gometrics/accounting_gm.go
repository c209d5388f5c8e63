//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

// Implementation of the accounting API using the go-metrics package

package accounting_gm

import (
	"runtime"
	"sync"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/stranddb/query/accounting"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/logging"
	"github.com/stranddb/query/system"
)

type gometricsAccountingStore struct {
	sync.Mutex
	registry  accounting.MetricRegistry
	stats     *system.SystemStats
	lastUtime uint64
	lastNow   time.Time
	startTime time.Time
}

func NewAccountingStore() (accounting.AccountingStore, errors.Error) {
	rv := &gometricsAccountingStore{
		registry: &goMetricRegistry{registry: metrics.NewRegistry()},
	}

	stats, err := system.NewSystemStats()
	if err != nil {
		logging.Errorf("Accounting store error: %v", err)
		return nil, errors.NewError(err, "accounting store start")
	}
	rv.stats = stats

	// skip the first sample
	rv.stats.ProcessCpuStats()
	rv.stats.ProcessRSS()

	rv.startTime = time.Now()
	rv.lastNow = rv.startTime

	return rv, nil
}

func (g *gometricsAccountingStore) Id() string {
	return "gometrics"
}

func (g *gometricsAccountingStore) MetricRegistry() accounting.MetricRegistry {
	return g.registry
}

func (g *gometricsAccountingStore) Vitals() (map[string]interface{}, errors.Error) {
	var mem runtime.MemStats

	runtime.ReadMemStats(&mem)
	requestTimer := g.registry.Timer(accounting.REQUEST_TIMER)
	prepared := g.registry.Counter(accounting.REQUESTS_PREPARED)
	regular := g.registry.Counter(accounting.REQUESTS_REGULAR)

	now := time.Now()
	_, newUtime, _, _ := g.stats.ProcessCpuStats()

	g.Lock()
	uptime := now.Sub(g.startTime)
	dur := float64(now.Sub(g.lastNow)) / float64(time.Millisecond)
	var cpuPerc float64
	if dur > 0 {
		cpuPerc = float64(newUtime-g.lastUtime) / dur
	}
	g.lastNow = now
	g.lastUtime = newUtime
	g.Unlock()

	totCount := prepared.Count() + regular.Count()
	var prepPercent float64
	if totCount > 0 {
		prepPercent = float64(prepared.Count()) / float64(totCount)
	}
	rv := map[string]interface{}{
		"uptime":                uptime.String(),
		"local.time":            now.Format(time.RFC3339),
		"total.threads":         runtime.NumGoroutine(),
		"cores":                 runtime.GOMAXPROCS(0),
		"memory.usage":          mem.Alloc,
		"memory.total":          mem.TotalAlloc,
		"memory.system":         mem.Sys,
		"cpu.percent":           cpuPerc,
		"request.per.sec.1min":  requestTimer.Rate1(),
		"request.per.sec.5min":  requestTimer.Rate5(),
		"request.per.sec.15min": requestTimer.Rate15(),
		"request.prepared.percent": prepPercent,
	}
	_, rss, err := g.stats.ProcessRSS()
	if err == nil {
		rv["process.rss"] = rss
	}
	total, err := g.stats.SystemTotalMem()
	if err == nil {
		rv["host.memory.total"] = total
	}
	free, err := g.stats.SystemActualFreeMem()
	if err == nil {
		rv["host.memory.free"] = free
	}
	return rv, nil
}

type goMetricRegistry struct {
	registry metrics.Registry
}

func (g *goMetricRegistry) Register(name string, metric accounting.Metric) errors.Error {
	err := g.registry.Register(name, metric)
	if err != nil {
		return errors.NewError(err, "register metric "+name)
	}
	return nil
}

func (g *goMetricRegistry) Get(name string) accounting.Metric {
	return g.registry.Get(name)
}

func (g *goMetricRegistry) Unregister(name string) errors.Error {
	g.registry.Unregister(name)
	return nil
}

func (g *goMetricRegistry) Counter(name string) accounting.Counter {
	return metrics.GetOrRegisterCounter(name, g.registry)
}

func (g *goMetricRegistry) Gauge(name string) accounting.Gauge {
	return metrics.GetOrRegisterGauge(name, g.registry)
}

func (g *goMetricRegistry) Meter(name string) accounting.Meter {
	return metrics.GetOrRegisterMeter(name, g.registry)
}

func (g *goMetricRegistry) Timer(name string) accounting.Timer {
	return metrics.GetOrRegisterTimer(name, g.registry)
}

func (g *goMetricRegistry) Counters() map[string]accounting.Counter {
	counters := make(map[string]accounting.Counter)
	g.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			counters[name] = m
		}
	})
	return counters
}

func (g *goMetricRegistry) Gauges() map[string]accounting.Gauge {
	gauges := make(map[string]accounting.Gauge)
	g.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Gauge:
			gauges[name] = m
		}
	})
	return gauges
}

func (g *goMetricRegistry) Meters() map[string]accounting.Meter {
	meters := make(map[string]accounting.Meter)
	g.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Meter:
			meters[name] = m
		}
	})
	return meters
}

func (g *goMetricRegistry) Timers() map[string]accounting.Timer {
	timers := make(map[string]accounting.Timer)
	g.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Timer:
			timers[name] = m
		}
	})
	return timers
}
