//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package plan

import (
	"testing"

	"github.com/stranddb/query/algebra"
)

func TestPreparedWireForm(t *testing.T) {
	prepared := NewPrepared(nil, algebra.Bindings{
		algebra.NewBinding("id", "bigint", "shop", "users"),
		algebra.NewBinding("name", "text", "shop", "users"),
	})
	prepared.SetText("UPDATE users SET name = ? WHERE id = ?")
	prepared.SetKeyspace("shop")
	prepared.SetName("0123456789abcdef0123456789abcdef")
	prepared.SetLegacyName(-42)
	prepared.Done()

	if prepared.BoundTerms() != 2 {
		t.Errorf("Wire form test: expected 2 bound terms, got %v", prepared.BoundTerms())
	}

	body, err := prepared.MarshalJSON()
	if err != nil {
		t.Fatalf("Wire form test: marshal failed: %v", err)
	}

	decoded := NewPrepared(nil, nil)
	if err = decoded.UnmarshalJSON(body); err != nil {
		t.Fatalf("Wire form test: unmarshal failed: %v", err)
	}
	if decoded.Text() != prepared.Text() {
		t.Errorf("Wire form test: expected text %v, got %v", prepared.Text(), decoded.Text())
	}
	if decoded.Keyspace() != "shop" || decoded.Name() != prepared.Name() ||
		decoded.LegacyName() != -42 {
		t.Errorf("Wire form test: identity lost: %v %v %v",
			decoded.Keyspace(), decoded.Name(), decoded.LegacyName())
	}
	if decoded.BoundTerms() != 2 {
		t.Errorf("Wire form test: expected 2 bound terms, got %v", decoded.BoundTerms())
	}
	if b := decoded.Bindings()[1]; b.Name() != "name" || b.DataType() != "text" {
		t.Errorf("Wire form test: binding lost: %v %v", b.Name(), b.DataType())
	}
	if decoded.PreparedTime().IsZero() {
		t.Errorf("Wire form test: expected the preparation time on the wire")
	}

	// the statement body never travels: the receiving node reparses
	if decoded.Statement() != nil {
		t.Errorf("Wire form test: expected no statement body off the wire")
	}
}
