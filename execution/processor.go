//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package execution

import (
	"time"

	"github.com/stranddb/query/accounting"
	"github.com/stranddb/query/algebra"
	"github.com/stranddb/query/datastore"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/logging"
	"github.com/stranddb/query/plan"
	"github.com/stranddb/query/prepareds"
	"github.com/stranddb/query/value"
)

// Processor is the sole entry point for incoming statements. It holds no
// per request state: any number of requests flow through one instance
// concurrently, the caches being the only shared structures underneath.
type Processor struct {
	parser   algebra.Parser
	cache    *prepareds.Cache
	registry accounting.MetricRegistry
}

func NewProcessor(parser algebra.Parser, cache *prepareds.Cache, registry accounting.MetricRegistry) *Processor {
	return &Processor{
		parser:   parser,
		cache:    cache,
		registry: registry,
	}
}

func (this *Processor) Cache() *prepareds.Cache {
	return this.cache
}

// Prepare computes the statement's identity under the caller's scheme and
// keyspace and returns the cached entry if one exists: preparing the same
// text twice yields the same name and entry, never a duplicate. On a miss
// it parses, formalizes, enforces the bound marker ceiling and caches.
func (this *Processor) Prepare(text string, context datastore.Context, scheme prepareds.Scheme) (*plan.Prepared, errors.Error) {
	keyspace := context.Keyspace()
	name := prepareds.PrimaryName(text, keyspace)
	legacyName := prepareds.LegacyName(text, keyspace)

	var id string
	if scheme == prepareds.LEGACY {
		id = prepareds.LegacyId(legacyName)
	} else {
		id = name
	}
	if existing := this.cache.GetPrepared(id, scheme); existing != nil && existing.Text() == text {
		return existing, nil
	}

	stmt, err := this.parser.Parse(text)
	if err != nil {
		return nil, err
	}
	bindings, err := stmt.Formalize(context)
	if err != nil {
		return nil, err
	}
	if len(bindings) > prepareds.MAX_BOUND_TERMS {
		return nil, errors.NewTooManyBoundTermsError(len(bindings), prepareds.MAX_BOUND_TERMS)
	}

	prepared := plan.NewPrepared(stmt, bindings)
	prepared.SetText(text)
	prepared.SetKeyspace(keyspace)
	prepared.SetName(name)
	prepared.SetLegacyName(legacyName)
	prepared.Done()

	if err = this.cache.AddPrepared(prepared, scheme); err != nil {
		return nil, err
	}
	return prepared, nil
}

// Process runs a one shot statement: parse, formalize, then the common
// check / validate / execute sequence.
func (this *Processor) Process(text string, context datastore.Context, options *algebra.ExecuteOptions) (value.Result, errors.Error) {
	start := time.Now()
	stmt, err := this.parser.Parse(text)
	if err != nil {
		return nil, err
	}
	bindings, err := stmt.Formalize(context)
	if err != nil {
		return nil, err
	}
	result, err := this.processStatement(stmt, len(bindings), context, options)
	if err != nil {
		return nil, err
	}
	if this.registry != nil {
		this.registry.Counter(accounting.REQUESTS_REGULAR).Inc(1)
		this.registry.Timer(accounting.REQUEST_TIMER).Update(time.Since(start))
	}
	return result, nil
}

// ProcessPrepared runs a statement previously prepared under the given
// scheme, addressed by its name.
func (this *Processor) ProcessPrepared(id string, scheme prepareds.Scheme, context datastore.Context,
	options *algebra.ExecuteOptions) (value.Result, errors.Error) {
	start := time.Now()
	prepared := this.cache.GetPrepared(id, scheme)
	if prepared == nil {
		return nil, errors.NewNoSuchPreparedError(id)
	}
	result, err := this.processStatement(prepared.Statement(), prepared.BoundTerms(), context, options)
	if err != nil {
		return nil, err
	}
	serviceTime := time.Since(start)
	this.cache.RecordPreparedMetrics(prepared, serviceTime)
	if this.registry != nil {
		this.registry.Counter(accounting.REQUESTS_PREPARED).Inc(1)
		this.registry.Timer(accounting.REQUEST_TIMER).Update(serviceTime)
	}
	return result, nil
}

// ProcessBatch runs a composed statement: the composition check runs
// between access checking and statement validation.
func (this *Processor) ProcessBatch(batch algebra.BatchStatement, context datastore.Context,
	options *algebra.ExecuteOptions) (value.Result, errors.Error) {
	if !context.IsInternal() {
		if err := batch.CheckAccess(context); err != nil {
			return nil, err
		}
	}
	if err := batch.ValidateComposition(context); err != nil {
		return nil, err
	}
	if err := batch.Validate(context); err != nil {
		return nil, err
	}
	return this.execute(batch, context, options)
}

// ExecuteInternal runs a system issued statement through the unbounded
// internal cache, under the synthetic internal identity. Access checks do
// not apply to internal traffic.
func (this *Processor) ExecuteInternal(text string, values ...interface{}) (value.Result, errors.Error) {
	prepared, err := this.cache.PrepareInternal(text)
	if err != nil {
		return nil, err
	}
	context := newInternalContext()
	options := &algebra.ExecuteOptions{Values: value.NewValues(values...)}
	result, err := this.processStatement(prepared.Statement(), prepared.BoundTerms(), context, options)
	if err != nil {
		return nil, err
	}
	if this.registry != nil {
		this.registry.Counter(accounting.REQUESTS_INTERNAL).Inc(1)
	}
	return result, nil
}

// ExecuteOnceInternal is ExecuteInternal without populating the internal
// cache, for statements known to run only once (e.g. during bootstrap).
func (this *Processor) ExecuteOnceInternal(text string, values ...interface{}) (value.Result, errors.Error) {
	stmt, err := this.parser.Parse(text)
	if err != nil {
		return nil, errors.NewInternalStatementError(text, err)
	}
	context := newInternalContext()
	bindings, err := stmt.Formalize(context)
	if err != nil {
		return nil, errors.NewInternalStatementError(text, err)
	}
	options := &algebra.ExecuteOptions{Values: value.NewValues(values...)}
	result, err := this.processStatement(stmt, len(bindings), context, options)
	if err != nil {
		return nil, err
	}
	if this.registry != nil {
		this.registry.Counter(accounting.REQUESTS_INTERNAL).Inc(1)
	}
	return result, nil
}

// ExecuteInternalWithPaging hands out a pager over an internal statement's
// results. Only statement kinds supporting paged hand-off qualify.
func (this *Processor) ExecuteInternalWithPaging(text string, pageSize int, values ...interface{}) (algebra.Pager, errors.Error) {
	prepared, err := this.cache.PrepareInternal(text)
	if err != nil {
		return nil, err
	}
	stmt := prepared.Statement()
	pageable, ok := stmt.(algebra.PageableStatement)
	if !ok {
		return nil, errors.NewNotPageableError(stmt.Type())
	}
	context := newInternalContext()
	options := &algebra.ExecuteOptions{
		Values:   value.NewValues(values...),
		PageSize: pageSize,
	}
	if supplied := len(options.Values); supplied != prepared.BoundTerms() {
		return nil, errors.NewArityMismatchError(prepared.BoundTerms(), supplied)
	}
	if err = stmt.Validate(context); err != nil {
		return nil, err
	}
	if this.registry != nil {
		this.registry.Counter(accounting.REQUESTS_INTERNAL).Inc(1)
	}
	return pageable.Pager(context, options)
}

// the common per statement sequence: arity, authorize, validate, execute
func (this *Processor) processStatement(stmt algebra.Statement, boundTerms int, context datastore.Context,
	options *algebra.ExecuteOptions) (value.Result, errors.Error) {
	if options == nil {
		options = &algebra.ExecuteOptions{}
	}

	// the supplied values must exactly match the declared markers; zero
	// and zero is the trivial match
	if supplied := len(options.Values); supplied != boundTerms {
		return nil, errors.NewArityMismatchError(boundTerms, supplied)
	}
	if !context.IsInternal() {
		if err := stmt.CheckAccess(context); err != nil {
			return nil, err
		}
	}
	if err := stmt.Validate(context); err != nil {
		return nil, err
	}
	return this.execute(stmt, context, options)
}

func (this *Processor) execute(stmt algebra.Statement, context datastore.Context,
	options *algebra.ExecuteOptions) (value.Result, errors.Error) {
	result, err := stmt.Execute(context, options)
	if err != nil {
		if rc, ok := context.(*Context); ok {
			logging.Debugf("request %v: statement execution failed: %v", rc.RequestId(), err)
		}
		return nil, err
	}

	// callers never see an absent result
	if result == nil {
		result = value.VOID_RESULT
	}
	return result, nil
}
