//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package algebra

import (
	json "github.com/couchbase/go_json"
)

// Binding is the specification of one bound variable: its name, declared
// type and the keyspace / table it selects against, in marker order.
type Binding struct {
	name     string
	dataType string
	keyspace string
	table    string
}

func NewBinding(name, dataType, keyspace, table string) *Binding {
	return &Binding{name: name, dataType: dataType, keyspace: keyspace, table: table}
}

func (this *Binding) Name() string {
	return this.name
}

func (this *Binding) DataType() string {
	return this.dataType
}

func (this *Binding) Keyspace() string {
	return this.keyspace
}

func (this *Binding) Table() string {
	return this.table
}

func (this *Binding) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"name":     this.name,
		"type":     this.dataType,
		"keyspace": this.keyspace,
		"table":    this.table,
	})
}

func (this *Binding) UnmarshalJSON(body []byte) error {
	var _unmarshalled struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Keyspace string `json:"keyspace"`
		Table    string `json:"table"`
	}

	err := json.Unmarshal(body, &_unmarshalled)
	if err != nil {
		return err
	}
	this.name = _unmarshalled.Name
	this.dataType = _unmarshalled.Type
	this.keyspace = _unmarshalled.Keyspace
	this.table = _unmarshalled.Table
	return nil
}

type Bindings []*Binding
