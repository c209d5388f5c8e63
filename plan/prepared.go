//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

// Package plan holds the reusable execution plan a prepared statement
// resolves to.
package plan

import (
	"encoding/json"
	"time"

	"github.com/stranddb/query/algebra"
)

// Prepared is the unit the statement caches hold: the parsed statement, its
// bound variable specifications and its identity under both addressing
// schemes. Built once per distinct (text, keyspace) pair, then shared
// read-only across all executing requests. Never mutated after Done().
type Prepared struct {
	statement    algebra.Statement
	bindings     algebra.Bindings
	text         string
	keyspace     string
	name         string
	legacyName   int32
	encodedPlan  string
	preparedTime time.Time
}

func NewPrepared(statement algebra.Statement, bindings algebra.Bindings) *Prepared {
	return &Prepared{
		statement: statement,
		bindings:  bindings,
	}
}

func (this *Prepared) Statement() algebra.Statement {
	return this.statement
}

func (this *Prepared) Bindings() algebra.Bindings {
	return this.bindings
}

// declared bound term count; execution supplies exactly this many values
func (this *Prepared) BoundTerms() int {
	return len(this.bindings)
}

func (this *Prepared) Text() string {
	return this.text
}

func (this *Prepared) SetText(text string) {
	this.text = text
}

func (this *Prepared) Keyspace() string {
	return this.keyspace
}

func (this *Prepared) SetKeyspace(keyspace string) {
	this.keyspace = keyspace
}

// primary scheme identity, as hex digest text
func (this *Prepared) Name() string {
	return this.name
}

func (this *Prepared) SetName(name string) {
	this.name = name
}

// legacy scheme identity
func (this *Prepared) LegacyName() int32 {
	return this.legacyName
}

func (this *Prepared) SetLegacyName(name int32) {
	this.legacyName = name
}

func (this *Prepared) EncodedPlan() string {
	return this.encodedPlan
}

func (this *Prepared) SetEncodedPlan(encoded string) {
	this.encodedPlan = encoded
}

func (this *Prepared) PreparedTime() time.Time {
	return this.preparedTime
}

// marks the prepared complete and records the preparation time
func (this *Prepared) Done() {
	this.preparedTime = time.Now()
}

func (this *Prepared) MarshalJSON() ([]byte, error) {
	r := map[string]interface{}{
		"text":       this.text,
		"name":       this.name,
		"legacyName": this.legacyName,
		"preparedAt": this.preparedTime.Format(time.RFC3339Nano),
	}
	if this.keyspace != "" {
		r["keyspace"] = this.keyspace
	}
	if len(this.bindings) > 0 {
		r["bindings"] = this.bindings
	}
	return json.Marshal(r)
}

// The statement body is not part of the wire form: a decoded prepared is
// reparsed from its text by the receiving node.
func (this *Prepared) UnmarshalJSON(body []byte) error {
	var _unmarshalled struct {
		Text       string            `json:"text"`
		Name       string            `json:"name"`
		LegacyName int32             `json:"legacyName"`
		Keyspace   string            `json:"keyspace"`
		Bindings   []json.RawMessage `json:"bindings"`
		PreparedAt string            `json:"preparedAt"`
	}

	err := json.Unmarshal(body, &_unmarshalled)
	if err != nil {
		return err
	}
	this.text = _unmarshalled.Text
	this.name = _unmarshalled.Name
	this.legacyName = _unmarshalled.LegacyName
	this.keyspace = _unmarshalled.Keyspace
	if len(_unmarshalled.Bindings) > 0 {
		this.bindings = make(algebra.Bindings, len(_unmarshalled.Bindings))
		for i, raw := range _unmarshalled.Bindings {
			b := &algebra.Binding{}
			if err = b.UnmarshalJSON(raw); err != nil {
				return err
			}
			this.bindings[i] = b
		}
	}
	if _unmarshalled.PreparedAt != "" {
		this.preparedTime, _ = time.Parse(time.RFC3339Nano, _unmarshalled.PreparedAt)
	}
	return nil
}
