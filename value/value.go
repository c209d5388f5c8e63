//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

/*
Package value represents the data handed across the statement execution
boundary: bound variable values supplied by clients, and the results
statements hand back.
*/
package value

import (
	"fmt"

	json "github.com/couchbase/go_json"
)

type Tristate int

const (
	NONE Tristate = iota
	FALSE
	TRUE
)

func ToTristate(b bool) Tristate {
	if b {
		return TRUE
	}
	return FALSE
}

func ToBool(t Tristate) bool {
	return t == TRUE
}

// Value is an opaque bound variable value. Values are treated as immutable
// once supplied and are never interpreted by the preparation layer, only
// counted and passed through.
type Value interface {
	Actual() interface{}
	MarshalJSON() ([]byte, error)
	String() string
}

type Values []Value

func NewValue(actual interface{}) Value {
	switch actual := actual.(type) {
	case Value:
		return actual
	default:
		return &simpleValue{actual: actual}
	}
}

func NewValues(actuals ...interface{}) Values {
	rv := make(Values, len(actuals))
	for i, a := range actuals {
		rv[i] = NewValue(a)
	}
	return rv
}

type simpleValue struct {
	actual interface{}
}

func (this *simpleValue) Actual() interface{} {
	return this.actual
}

func (this *simpleValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(this.actual)
}

func (this *simpleValue) String() string {
	b, err := this.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", this.actual)
	}
	return string(b)
}

// Result is what executing a statement yields: either rows or an explicit
// void acknowledgment. Callers never see an absent result.
type Result interface {
	Void() bool
	MarshalJSON() ([]byte, error)
}

type voidResult struct {
}

var VOID_RESULT Result = &voidResult{}

func (this *voidResult) Void() bool {
	return true
}

func (this *voidResult) MarshalJSON() ([]byte, error) {
	return []byte("{\"void\":true}"), nil
}

// Rows is a materialized set of rows with their column names.
type Rows struct {
	Columns []string
	Values  [][]interface{}
}

func (this *Rows) Void() bool {
	return false
}

func (this *Rows) Len() int {
	return len(this.Values)
}

func (this *Rows) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"columns": this.Columns,
		"values":  this.Values,
	})
}
