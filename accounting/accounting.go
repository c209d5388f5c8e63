//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

// Package accounting provides a common API for workload and monitoring data -
// metrics, statistics, vitals.

package accounting

import (
	"time"

	"github.com/stranddb/query/errors"
)

// AccountingStore represents a store for maintaining all accounting data
type AccountingStore interface {
	Id() string                                   // Id of this AccountingStore
	MetricRegistry() MetricRegistry               // The MetricRegistry that this AccountingStore is managing
	Vitals() (map[string]interface{}, errors.Error) // The vital signs of the process
}

// Metric types

// A Metric is a property that can be measured repeatedly and/or periodically
type Metric interface {
}

// Counter is an incrementing/decrementing count (#statements evicted, #requests executed)
type Counter interface {
	Metric
	Inc(amount int64) // Increment the counter by the given amount
	Dec(amount int64) // Decrement the counter by the given amount
	Count() int64     // Current Count value
	Clear()
}

// Gauge is an instantaneous measurement of a property (cached statement count, memory)
type Gauge interface {
	Metric
	Update(n int64) // Set the value of the Gauge
	Value() int64   // The value of the Gauge
}

// Meter is a rate of change metric (requests per second)
type Meter interface {
	Metric
	Rate1() float64    // 1-minute moving average rate
	Rate5() float64    // 5-minute moving average rate
	Rate15() float64   // 15-minute moving average rate
	RateMean() float64 // Mean throughput rate
	Mark(n int64)      // Mark the occurance of n events
	Count() int64      // The overall count of events
}

// Timer is a measurement of how long an activity took
type Timer interface {
	Metric
	Count() int64                 // The number of values in the timer
	Rate1() float64               // 1-minute moving average rate
	Rate5() float64               // 5-minute moving average rate
	Rate15() float64              // 15-minute moving average rate
	RateMean() float64            // Mean throughput rate
	Max() int64                   // The maximum value in the timer
	Mean() float64                // The mean value in the timer
	Min() int64                   // The minimum value in the timer
	Percentile(n float64) float64 // The Nth percentile value (e.g. n = .5)
	StdDev() float64              // The Standard Deviation of the values in the timer
	Update(t time.Duration)       // Sample a new value
}

// MetricRegistry is the container for creating and maintaining Metrics
type MetricRegistry interface {

	// Register a metric with a name.
	// Possible reasons for error: name already in use
	Register(name string, metric Metric) errors.Error

	// Get the named metric or nil if no such name in use
	Get(name string) Metric

	// Unregister the metric with the given name
	Unregister(name string) errors.Error

	// The following methods create or fetch a specific
	// type of metric with the given name
	Counter(name string) Counter
	Gauge(name string) Gauge
	Meter(name string) Meter
	Timer(name string) Timer

	Counters() map[string]Counter // all registered counters
	Gauges() map[string]Gauge     // all registered gauges
	Meters() map[string]Meter     // all registered meters
	Timers() map[string]Timer     // all registered timers
}

// Names for all the metrics we are interested in
const (
	PREPAREDS_EVICTIONS = "prepareds.evictions"
	PREPAREDS_COUNT     = "prepareds.count"
	PREPAREDS_MEMORY    = "prepareds.memory"

	REQUESTS_PREPARED = "requests.prepared"
	REQUESTS_REGULAR  = "requests.regular"
	REQUESTS_INTERNAL = "requests.internal"

	REQUEST_TIMER = "request_timer"
)
