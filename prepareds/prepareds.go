//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

/*
Package prepareds is the prepared statement cache service: statement
identity under two addressing schemes, two weight bounded caches with LRU
ejection, an unbounded cache for internal statements, schema drop
invalidation and the encoded plan hand-off between query nodes.
*/
package prepareds

import (
	"math"
	"sync"
	"time"

	atomic "github.com/couchbase/go-couchbase/platform"
	"github.com/stranddb/query/accounting"
	"github.com/stranddb/query/algebra"
	"github.com/stranddb/query/datastore"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/logging"
	"github.com/stranddb/query/plan"
	"github.com/stranddb/query/system"
	"github.com/stranddb/query/util"
)

const (
	// each bounded cache gets this fraction of total host memory
	_MEMORY_FRACTION = 256

	// eviction reporter cadence
	_DEF_REPORT_INTERVAL = time.Minute

	// protocol ceiling on bound markers, both addressing schemes
	MAX_BOUND_TERMS = math.MaxUint16
)

type CacheEntry struct {
	Prepared       *plan.Prepared
	LastUse        time.Time
	Uses           int32
	ServiceTime    atomic.AlignedUint64
	MinServiceTime atomic.AlignedUint64
	MaxServiceTime atomic.AlignedUint64
}

type Config struct {
	Capacity       int64         // per cache weight ceiling, 0 derives from host memory
	ReportInterval time.Duration // 0 for the default
	Weigher        Weigher       // nil for DefaultWeigher
	Parser         algebra.Parser
	Registry       accounting.MetricRegistry // nil disables metrics
}

// Cache is the cache service instance, owned by the server and dependency
// injected into the execution pipeline: no package level state, tests build
// their own.
type Cache struct {
	primary  *util.WeightedCache
	legacy   *util.WeightedCache
	weigher  Weigher
	parser   algebra.Parser
	registry accounting.MetricRegistry

	// rolling eviction count, drained by the reporter
	evicted atomic.AlignedUint64

	// internal statements, never subject to ejection or user metrics
	internalLock sync.RWMutex
	internal     map[string]*plan.Prepared

	intervalLock sync.Mutex
	interval     time.Duration
	stop         chan bool
	stopOnce     sync.Once
}

func NewCache(config Config) *Cache {
	capacity := config.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity()
	}
	interval := config.ReportInterval
	if interval <= 0 {
		interval = _DEF_REPORT_INTERVAL
	}
	weigher := config.Weigher
	if weigher == nil {
		weigher = DefaultWeigher
	}
	rv := &Cache{
		weigher:  weigher,
		parser:   config.Parser,
		registry: config.Registry,
		internal: make(map[string]*plan.Prepared),
		interval: interval,
		stop:     make(chan bool),
	}
	rv.primary = util.NewWeightedCache(capacity, rv.onEvict)
	rv.legacy = util.NewWeightedCache(capacity, rv.onEvict)
	go rv.reporter()
	return rv
}

// stops the eviction reporter; the caches themselves need no teardown
func (this *Cache) Close() {
	this.stopOnce.Do(func() {
		close(this.stop)
	})
}

func defaultCapacity() int64 {
	stats, err := system.NewSystemStats()
	if err == nil {
		defer stats.Close()
		total, err := stats.SystemTotalMem()
		if err == nil && total > 0 {
			return int64(total / _MEMORY_FRACTION)
		}
	}

	// no host memory reading, fall back to a fixed ceiling
	logging.Warnf("Prepared statements cache: no host memory reading, using fixed capacity")
	return 32 * 1024 * 1024
}

// fired by either bounded cache, after the bucket lock is released,
// exactly once per ejected entry
func (this *Cache) onEvict(id string, contents interface{}) {
	atomic.AddUint64(&this.evicted, 1)
	if this.registry != nil {
		this.registry.Counter(accounting.PREPAREDS_EVICTIONS).Inc(1)
	}
}

func (this *Cache) ReportInterval() time.Duration {
	this.intervalLock.Lock()
	defer this.intervalLock.Unlock()
	return this.interval
}

// takes effect from the next tick
func (this *Cache) SetReportInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	this.intervalLock.Lock()
	this.interval = interval
	this.intervalLock.Unlock()
}

// Drain the rolling eviction counter every interval and report it if any.
// Strictly observability: correctness does not depend on this loop.
func (this *Cache) reporter() {
	for {
		interval := this.ReportInterval()
		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
			evicted := this.drainEvicted()
			if evicted > 0 {
				logging.Infof("%v prepared statements ejected from cache in the last %v", evicted, interval)
			}
			if this.registry != nil {
				this.registry.Gauge(accounting.PREPAREDS_COUNT).Update(int64(this.CountPrepareds()))
				this.registry.Gauge(accounting.PREPAREDS_MEMORY).Update(this.Weight())
			}
		case <-this.stop:
			timer.Stop()
			return
		}
	}
}

// swap the counter out without losing concurrent increments
func (this *Cache) drainEvicted() uint64 {
	for {
		cur := uint64(this.evicted)
		if atomic.CompareAndSwapUint64(&this.evicted, cur, 0) {
			return cur
		}
	}
}

func (this *Cache) cache(scheme Scheme) *util.WeightedCache {
	if scheme == LEGACY {
		return this.legacy
	}
	return this.primary
}

// name a prepared is addressed by under a scheme
func (this *Cache) id(prepared *plan.Prepared, scheme Scheme) string {
	if scheme == LEGACY {
		return LegacyId(prepared.LegacyName())
	}
	return prepared.Name()
}

func (this *Cache) get(cache *util.WeightedCache, id string, track bool) *CacheEntry {
	var cv interface{}

	if track {
		cv = cache.Use(id, nil)
	} else {
		cv = cache.Get(id, nil)
	}
	rv, ok := cv.(*CacheEntry)
	if ok {
		if track {
			atomic.AddInt32(&rv.Uses, 1)

			// this is not exactly accurate, but since the MRU queue is
			// managed properly, we'd rather be inaccurate and make the
			// change outside of the lock than take a performance hit
			rv.LastUse = time.Now()
		}
		return rv
	}
	return nil
}

// GetPrimary returns the statement cached under a primary scheme name, or
// nil, tracking the use.
func (this *Cache) GetPrimary(name string) *plan.Prepared {
	ce := this.get(this.primary, name, true)
	if ce == nil {
		return nil
	}
	return ce.Prepared
}

// GetLegacy returns the statement cached under a legacy scheme name, or
// nil, tracking the use.
func (this *Cache) GetLegacy(name int32) *plan.Prepared {
	ce := this.get(this.legacy, LegacyId(name), true)
	if ce == nil {
		return nil
	}
	return ce.Prepared
}

func (this *Cache) GetPrepared(id string, scheme Scheme) *plan.Prepared {
	ce := this.get(this.cache(scheme), id, true)
	if ce == nil {
		return nil
	}
	return ce.Prepared
}

// AddPrepared caches a statement under the given scheme. A statement too
// heavy to ever fit is refused rather than ejecting everything in a doomed
// attempt to make room. Re-adding the identical statement leaves the
// existing entry in place; a different statement under the same name is a
// last write wins replacement.
func (this *Cache) AddPrepared(prepared *plan.Prepared, scheme Scheme) errors.Error {
	cache := this.cache(scheme)
	id := this.id(prepared, scheme)
	weight := this.weigher(id, prepared)

	ce := &CacheEntry{
		Prepared:       prepared,
		LastUse:        time.Now(),
		MinServiceTime: math.MaxUint64,
	}
	if !cache.Add(ce, id, weight, func(entry interface{}) util.Operation {
		oldEntry := entry.(*CacheEntry)
		if oldEntry.Prepared.Text() == prepared.Text() {

			// idempotent prepare: the existing entry stands
			return util.IGNORE
		}
		return util.REPLACE
	}) {
		return errors.NewPreparedTooLargeError(id, weight, cache.Capacity())
	}
	return nil
}

func (this *Cache) DeletePrepared(id string, scheme Scheme) errors.Error {
	if this.cache(scheme).Delete(id, nil) {
		return nil
	}
	return errors.NewNoSuchPreparedError(id)
}

// record execution times against the cache entry, if still present
func (this *Cache) RecordPreparedMetrics(prepared *plan.Prepared, serviceTime time.Duration) {
	if prepared == nil || prepared.Name() == "" {
		return
	}
	process := func(entry interface{}) {
		ce := entry.(*CacheEntry)
		atomic.AddUint64(&ce.ServiceTime, uint64(serviceTime))
		util.TestAndSetUint64(&ce.MinServiceTime, uint64(serviceTime),
			func(old, new uint64) bool { return old > new }, 0)
		util.TestAndSetUint64(&ce.MaxServiceTime, uint64(serviceTime),
			func(old, new uint64) bool { return old < new }, 0)
	}
	if this.primary.Get(prepared.Name(), process) == nil {
		this.legacy.Get(LegacyId(prepared.LegacyName()), process)
	}
}

// Prepareds and system keyspaces

func (this *Cache) CountPrepareds() int {
	return this.primary.Size() + this.legacy.Size()
}

func (this *Cache) Weight() int64 {
	return this.primary.Weight() + this.legacy.Weight()
}

func (this *Cache) Capacity() int64 {
	return this.primary.Capacity()
}

// applies to both bounded caches, ejecting down if shrunk
func (this *Cache) SetCapacity(capacity int64) {
	this.primary.SetCapacity(capacity)
	this.legacy.SetCapacity(capacity)
}

func (this *Cache) NamePrepareds() []string {
	names := this.primary.Names()
	return append(names, this.legacy.Names()...)
}

func (this *Cache) PreparedsForeach(nonBlocking func(string, *CacheEntry) bool,
	blocking func() bool) {
	dummyF := func(id string, r interface{}) bool {
		return nonBlocking(id, r.(*CacheEntry))
	}
	this.primary.ForEach(dummyF, blocking)
	this.legacy.ForEach(dummyF, blocking)
}

func (this *Cache) PreparedDo(id string, scheme Scheme, f func(*CacheEntry)) {
	var process func(interface{}) = nil

	if f != nil {
		process = func(entry interface{}) {
			f(entry.(*CacheEntry))
		}
	}
	_ = this.cache(scheme).Get(id, process)
}

// PrepareInternal prepares a statement issued by the system itself, in an
// unbounded cache keyed by raw text: internal traffic must neither be
// ejected by user pressure nor show up in user metrics. Two concurrent
// preparers of the same text both parse and the last write wins; the
// parses are equivalent, so we'll live with the duplicate work rather
// than serialize.
func (this *Cache) PrepareInternal(text string) (*plan.Prepared, errors.Error) {
	this.internalLock.RLock()
	prepared, ok := this.internal[text]
	this.internalLock.RUnlock()
	if ok {
		return prepared, nil
	}

	stmt, err := this.parser.Parse(text)
	if err != nil {
		return nil, errors.NewInternalStatementError(text, err)
	}
	bindings, err := stmt.Formalize(datastore.INTERNAL_CONTEXT)
	if err != nil {
		return nil, errors.NewInternalStatementError(text, err)
	}
	prepared = plan.NewPrepared(stmt, bindings)
	prepared.SetText(text)
	prepared.SetKeyspace(datastore.SYSTEM_KEYSPACE)
	prepared.SetName(PrimaryName(text, datastore.SYSTEM_KEYSPACE))
	prepared.SetLegacyName(LegacyName(text, datastore.SYSTEM_KEYSPACE))
	prepared.Done()

	this.internalLock.Lock()
	this.internal[text] = prepared
	this.internalLock.Unlock()
	return prepared, nil
}

func (this *Cache) CountInternal() int {
	this.internalLock.RLock()
	defer this.internalLock.RUnlock()
	return len(this.internal)
}
