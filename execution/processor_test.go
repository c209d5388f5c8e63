//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package execution

import (
	"strings"
	"testing"

	"github.com/stranddb/query/accounting"
	gometrics "github.com/stranddb/query/accounting/gometrics"
	"github.com/stranddb/query/algebra"
	"github.com/stranddb/query/datastore"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/prepareds"
	"github.com/stranddb/query/value"
)

// testParser hands out canned statements when one is registered for the
// text, and otherwise builds a stub with one binding per ? marker.
type testParser struct {
	canned map[string]algebra.Statement
}

func (this *testParser) Parse(text string) (algebra.Statement, errors.Error) {
	if stmt, ok := this.canned[text]; ok {
		return stmt, nil
	}
	if text == "" {
		return nil, errors.NewParseSyntaxError(nil, "empty statement")
	}
	stmt := &testStatement{text: text}
	for i := 0; i < strings.Count(text, "?"); i++ {
		stmt.bindings = append(stmt.bindings, algebra.NewBinding("?", "any", "", ""))
	}
	return stmt, nil
}

type testStatement struct {
	text       string
	bindings   algebra.Bindings
	trace      *[]string
	accessErr  errors.Error
	validErr   errors.Error
	result     value.Result
	voidResult bool
}

func (this *testStatement) record(call string) {
	if this.trace != nil {
		*this.trace = append(*this.trace, call)
	}
}

func (this *testStatement) Formalize(context datastore.Context) (algebra.Bindings, errors.Error) {
	this.record("Formalize")
	return this.bindings, nil
}

func (this *testStatement) CheckAccess(context datastore.Context) errors.Error {
	this.record("CheckAccess")
	return this.accessErr
}

func (this *testStatement) Validate(context datastore.Context) errors.Error {
	this.record("Validate")
	return this.validErr
}

func (this *testStatement) Execute(context datastore.Context, options *algebra.ExecuteOptions) (value.Result, errors.Error) {
	this.record("Execute")
	if this.voidResult {
		return nil, nil
	}
	if this.result != nil {
		return this.result, nil
	}
	return value.VOID_RESULT, nil
}

func (this *testStatement) Type() string {
	return "SELECT"
}

type testBatchStatement struct {
	testStatement
	compositionErr errors.Error
}

func (this *testBatchStatement) ValidateComposition(context datastore.Context) errors.Error {
	this.record("ValidateComposition")
	return this.compositionErr
}

type testPageableStatement struct {
	testStatement
	pages []*value.Rows
}

func (this *testPageableStatement) Pager(context datastore.Context,
	options *algebra.ExecuteOptions) (algebra.Pager, errors.Error) {
	this.record("Pager")
	return &testPager{pages: this.pages}, nil
}

type testPager struct {
	pages []*value.Rows
	next  int
}

func (this *testPager) NextPage() (*value.Rows, errors.Error) {
	if this.next >= len(this.pages) {
		return nil, nil
	}
	page := this.pages[this.next]
	this.next++
	return page, nil
}

func (this *testPager) Close() {
}

func newTestProcessor(parser algebra.Parser, registry accounting.MetricRegistry) *Processor {
	cache := prepareds.NewCache(prepareds.Config{
		Capacity: 1024 * 1024,
		Parser:   parser,
		Registry: registry,
	})
	return NewProcessor(parser, cache, registry)
}

func TestProcessorPrepare(t *testing.T) {
	processor := newTestProcessor(&testParser{}, nil)
	defer processor.Cache().Close()

	text := "SELECT * FROM users WHERE id = ?"
	context := NewContext("alice", "shop")
	prepared, err := processor.Prepare(text, context, prepareds.PRIMARY)
	if err != nil {
		t.Fatalf("Prepare test: expected success, got %v", err)
	}
	if prepared.Name() != prepareds.PrimaryName(text, "shop") {
		t.Errorf("Prepare test: expected primary identity, got %v", prepared.Name())
	}
	if prepared.BoundTerms() != 1 {
		t.Errorf("Prepare test: expected 1 bound term, got %v", prepared.BoundTerms())
	}

	// preparing the same text again yields the same entry, not a duplicate
	again, err := processor.Prepare(text, context, prepareds.PRIMARY)
	if err != nil {
		t.Fatalf("Prepare test: expected success, got %v", err)
	}
	if again != prepared {
		t.Errorf("Prepare test: expected the cached statement on re-prepare")
	}
	if n := processor.Cache().CountPrepareds(); n != 1 {
		t.Errorf("Prepare test: expected 1 entry, got %v", n)
	}

	// the legacy scheme caches independently under the narrow identity
	legacy, err := processor.Prepare(text, context, prepareds.LEGACY)
	if err != nil {
		t.Fatalf("Prepare test: expected success, got %v", err)
	}
	if p := processor.Cache().GetLegacy(legacy.LegacyName()); p == nil {
		t.Errorf("Prepare test: expected the statement under its legacy name")
	}
	if n := processor.Cache().CountPrepareds(); n != 2 {
		t.Errorf("Prepare test: expected 2 entries across schemes, got %v", n)
	}
}

func TestProcessorPrepareBoundTermsCeiling(t *testing.T) {
	text := "SELECT * FROM wide"
	stmt := &testStatement{text: text}
	stmt.bindings = make(algebra.Bindings, prepareds.MAX_BOUND_TERMS+1)
	for i := range stmt.bindings {
		stmt.bindings[i] = algebra.NewBinding("?", "any", "", "")
	}
	parser := &testParser{canned: map[string]algebra.Statement{text: stmt}}
	processor := newTestProcessor(parser, nil)
	defer processor.Cache().Close()

	_, err := processor.Prepare(text, NewContext("alice", "shop"), prepareds.PRIMARY)
	if err == nil || err.Code() != errors.E_TOO_MANY_BOUND_TERMS {
		t.Errorf("Bound terms test: expected too many bound terms, got %v", err)
	}
	if n := processor.Cache().CountPrepareds(); n != 0 {
		t.Errorf("Bound terms test: expected nothing cached, got %v entries", n)
	}
}

func TestProcessorArity(t *testing.T) {
	processor := newTestProcessor(&testParser{}, nil)
	defer processor.Cache().Close()

	context := NewContext("alice", "shop")
	text := "UPDATE users SET name = ? WHERE id = ?"
	prepared, err := processor.Prepare(text, context, prepareds.PRIMARY)
	if err != nil {
		t.Fatalf("Arity test: expected success, got %v", err)
	}

	// one value against two markers
	_, err = processor.ProcessPrepared(prepared.Name(), prepareds.PRIMARY, context,
		&algebra.ExecuteOptions{Values: value.NewValues("bob")})
	if err == nil || err.Code() != errors.E_ARITY_MISMATCH {
		t.Errorf("Arity test: expected arity mismatch, got %v", err)
	}

	// exactly two
	result, err := processor.ProcessPrepared(prepared.Name(), prepareds.PRIMARY, context,
		&algebra.ExecuteOptions{Values: value.NewValues("bob", 42)})
	if err != nil {
		t.Errorf("Arity test: expected success, got %v", err)
	}
	if result == nil {
		t.Errorf("Arity test: expected a result")
	}

	// zero against zero is the trivial match, nil options included
	if _, err = processor.Process("SELECT * FROM users", context, nil); err != nil {
		t.Errorf("Arity test: expected success with no markers, got %v", err)
	}
}

func TestProcessorNoSuchPrepared(t *testing.T) {
	processor := newTestProcessor(&testParser{}, nil)
	defer processor.Cache().Close()

	_, err := processor.ProcessPrepared("0123456789abcdef0123456789abcdef", prepareds.PRIMARY,
		NewContext("alice", "shop"), nil)
	if err == nil || err.Code() != errors.E_NO_SUCH_PREPARED {
		t.Errorf("No such prepared test: expected no such prepared, got %v", err)
	}
}

func TestProcessorVoidResult(t *testing.T) {
	text := "DELETE FROM users"
	stmt := &testStatement{text: text, voidResult: true}
	parser := &testParser{canned: map[string]algebra.Statement{text: stmt}}
	processor := newTestProcessor(parser, nil)
	defer processor.Cache().Close()

	// a nil statement result surfaces as the explicit void acknowledgment
	result, err := processor.Process(text, NewContext("alice", "shop"), nil)
	if err != nil {
		t.Fatalf("Void test: expected success, got %v", err)
	}
	if result != value.VOID_RESULT {
		t.Errorf("Void test: expected void result, got %v", result)
	}
	if !result.Void() {
		t.Errorf("Void test: expected Void() true")
	}
}

func TestProcessorPipelineOrder(t *testing.T) {
	var trace []string
	text := "SELECT * FROM users"
	stmt := &testStatement{text: text, trace: &trace}
	parser := &testParser{canned: map[string]algebra.Statement{text: stmt}}
	processor := newTestProcessor(parser, nil)
	defer processor.Cache().Close()

	if _, err := processor.Process(text, NewContext("alice", "shop"), nil); err != nil {
		t.Fatalf("Pipeline test: expected success, got %v", err)
	}
	expected := []string{"Formalize", "CheckAccess", "Validate", "Execute"}
	if len(trace) != len(expected) {
		t.Fatalf("Pipeline test: expected calls %v, got %v", expected, trace)
	}
	for i := range expected {
		if trace[i] != expected[i] {
			t.Errorf("Pipeline test: expected calls %v, got %v", expected, trace)
			break
		}
	}

	// access failures stop the pipeline before validation
	trace = trace[:0]
	stmt.accessErr = errors.NewParseSyntaxError(nil, "denied")
	if _, err := processor.Process(text, NewContext("alice", "shop"), nil); err == nil {
		t.Errorf("Pipeline test: expected the access failure surfaced")
	}
	for _, call := range trace {
		if call == "Validate" || call == "Execute" {
			t.Errorf("Pipeline test: %v ran after access was denied", call)
		}
	}
	stmt.accessErr = nil

	// internal traffic bypasses access checks
	trace = trace[:0]
	if _, err := processor.ExecuteInternal(text); err != nil {
		t.Fatalf("Pipeline test: expected success, got %v", err)
	}
	for _, call := range trace {
		if call == "CheckAccess" {
			t.Errorf("Pipeline test: access check ran for internal traffic")
		}
	}
}

func TestProcessorBatch(t *testing.T) {
	var trace []string
	batch := &testBatchStatement{}
	batch.text = "BATCH"
	batch.trace = &trace
	processor := newTestProcessor(&testParser{}, nil)
	defer processor.Cache().Close()

	if _, err := processor.ProcessBatch(batch, NewContext("alice", "shop"), nil); err != nil {
		t.Fatalf("Batch test: expected success, got %v", err)
	}

	// the composition check runs between access checking and validation
	expected := []string{"CheckAccess", "ValidateComposition", "Validate", "Execute"}
	if len(trace) != len(expected) {
		t.Fatalf("Batch test: expected calls %v, got %v", expected, trace)
	}
	for i := range expected {
		if trace[i] != expected[i] {
			t.Errorf("Batch test: expected calls %v, got %v", expected, trace)
			break
		}
	}

	trace = trace[:0]
	batch.compositionErr = errors.NewParseSyntaxError(nil, "mixed batch")
	if _, err := processor.ProcessBatch(batch, NewContext("alice", "shop"), nil); err == nil {
		t.Errorf("Batch test: expected the composition failure surfaced")
	}
	for _, call := range trace {
		if call == "Validate" || call == "Execute" {
			t.Errorf("Batch test: %v ran after composition was rejected", call)
		}
	}
}

func TestProcessorInternalPaging(t *testing.T) {
	text := "SELECT * FROM #system.tables"
	pageable := &testPageableStatement{
		pages: []*value.Rows{
			{Columns: []string{"name"}, Values: [][]interface{}{{"users"}, {"orders"}}},
			{Columns: []string{"name"}, Values: [][]interface{}{{"items"}}},
		},
	}
	pageable.text = text
	parser := &testParser{canned: map[string]algebra.Statement{text: pageable}}
	processor := newTestProcessor(parser, nil)
	defer processor.Cache().Close()

	pager, err := processor.ExecuteInternalWithPaging(text, 2)
	if err != nil {
		t.Fatalf("Paging test: expected success, got %v", err)
	}
	defer pager.Close()

	sizes := []int{2, 1}
	for i, expected := range sizes {
		page, err := pager.NextPage()
		if err != nil {
			t.Fatalf("Paging test: expected page %v, got %v", i, err)
		}
		if page == nil || page.Len() != expected {
			t.Errorf("Paging test: expected %v rows in page %v, got %v", expected, i, page)
		}
	}
	if page, _ := pager.NextPage(); page != nil {
		t.Errorf("Paging test: expected exhaustion, got %v", page)
	}

	// statement kinds with no paged hand-off are refused
	_, err = processor.ExecuteInternalWithPaging("SELECT * FROM users", 2)
	if err == nil || err.Code() != errors.E_NOT_PAGEABLE {
		t.Errorf("Paging test: expected not pageable, got %v", err)
	}
}

func TestProcessorCounters(t *testing.T) {
	store, aerr := gometrics.NewAccountingStore()
	if aerr != nil {
		t.Fatalf("Counters test: cannot build store: %v", aerr)
	}
	registry := store.MetricRegistry()
	processor := newTestProcessor(&testParser{}, registry)
	defer processor.Cache().Close()

	context := NewContext("alice", "shop")
	if _, err := processor.Process("SELECT * FROM users", context, nil); err != nil {
		t.Fatalf("Counters test: expected success, got %v", err)
	}
	prepared, err := processor.Prepare("SELECT * FROM orders", context, prepareds.PRIMARY)
	if err != nil {
		t.Fatalf("Counters test: expected success, got %v", err)
	}
	if _, err = processor.ProcessPrepared(prepared.Name(), prepareds.PRIMARY, context, nil); err != nil {
		t.Fatalf("Counters test: expected success, got %v", err)
	}
	if _, err = processor.ExecuteInternal("SELECT * FROM #system.tables"); err != nil {
		t.Fatalf("Counters test: expected success, got %v", err)
	}

	counts := map[string]int64{
		accounting.REQUESTS_REGULAR:  1,
		accounting.REQUESTS_PREPARED: 1,
		accounting.REQUESTS_INTERNAL: 1,
	}
	for name, expected := range counts {
		if count := registry.Counter(name).Count(); count != expected {
			t.Errorf("Counters test: expected %v for %v, got %v", expected, name, count)
		}
	}

	// one regular and one prepared execution through the shared timer
	if count := registry.Timer(accounting.REQUEST_TIMER).Count(); count != 2 {
		t.Errorf("Counters test: expected 2 timed requests, got %v", count)
	}

	// prepared side metrics recorded on the cache entry
	processor.Cache().PreparedDo(prepared.Name(), prepareds.PRIMARY, func(ce *prepareds.CacheEntry) {
		if ce.Uses < 1 {
			t.Errorf("Counters test: expected tracked uses, got %v", ce.Uses)
		}
	})
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey([]byte("users/42")); err != nil {
		t.Errorf("Key test: expected success, got %v", err)
	}
	if err := ValidateKey(nil); err == nil || err.Code() != errors.E_INVALID_KEY {
		t.Errorf("Key test: expected invalid key for empty, got %v", err)
	}
	long := make([]byte, MAX_KEY_LENGTH+1)
	if err := ValidateKey(long); err == nil || err.Code() != errors.E_INVALID_KEY {
		t.Errorf("Key test: expected invalid key for oversize, got %v", err)
	}
	if err := ValidateKeyComponents([]byte("users"), []byte("42")); err != nil {
		t.Errorf("Key test: expected success, got %v", err)
	}
	if err := ValidateKeyComponents(long); err == nil || err.Code() != errors.E_INVALID_KEY {
		t.Errorf("Key test: expected invalid key for oversize component, got %v", err)
	}
}
