//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package prepareds

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io/ioutil"

	json "github.com/couchbase/go_json"
	"github.com/stranddb/query/datastore"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/plan"
)

// EncodePrepared renders a prepared in its wire form, for hand-off to other
// query nodes: gzipped JSON, base64 encoded.
func (this *Cache) EncodePrepared(prepared *plan.Prepared) (string, errors.Error) {
	json_bytes, err := prepared.MarshalJSON()
	if err != nil {
		return "", errors.NewPreparedEncodingError(prepared.Name(), err)
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err = w.Write(json_bytes); err == nil {
		err = w.Close()
	}
	if err != nil {
		return "", errors.NewPreparedEncodingError(prepared.Name(), err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodePrepared rebuilds a prepared from its wire form and caches it under
// the primary scheme. We don't trust anything strangers give us: the name
// carried in the plan must match both the requested name and the identity
// recomputed from the statement text, and the statement body is reparsed
// rather than taken from the wire.
func (this *Cache) DecodePrepared(name string, encoded string) (*plan.Prepared, errors.Error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.NewPreparedDecodingError(name, err)
	}
	var buf bytes.Buffer
	buf.Write(decoded)
	reader, err := gzip.NewReader(&buf)
	if err != nil {
		return nil, errors.NewPreparedDecodingError(name, err)
	}
	prepared_bytes, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, errors.NewPreparedDecodingError(name, err)
	}

	// find the statement text first: a plan whose body we cannot make
	// sense of but whose text we can is still usable
	var text string
	raw, err := json.FindKey(prepared_bytes, "text")
	if raw == nil || err != nil {
		return nil, errors.NewPreparedDecodingError(name, fmt.Errorf("no statement text in plan"))
	}
	if err = json.Unmarshal(raw, &text); err != nil {
		return nil, errors.NewPreparedDecodingError(name, err)
	}

	decodedPrepared := plan.NewPrepared(nil, nil)
	if err = decodedPrepared.UnmarshalJSON(prepared_bytes); err != nil {
		return nil, errors.NewPreparedDecodingError(name, err)
	}

	// the name must match the content it claims to identify
	computed := PrimaryName(text, decodedPrepared.Keyspace())
	if name != computed || (decodedPrepared.Name() != "" && decodedPrepared.Name() != computed) {
		return nil, errors.NewPreparedDecodingError(name, fmt.Errorf("name does not match plan content"))
	}

	// reparse rather than trust the wire statement body
	stmt, errp := this.parser.Parse(text)
	if errp != nil {
		return nil, errp
	}
	bindings, errp := stmt.Formalize(datastore.NewContext("", decodedPrepared.Keyspace()))
	if errp != nil {
		return nil, errp
	}

	prepared := plan.NewPrepared(stmt, bindings)
	prepared.SetText(text)
	prepared.SetKeyspace(decodedPrepared.Keyspace())
	prepared.SetName(computed)
	prepared.SetLegacyName(LegacyName(text, decodedPrepared.Keyspace()))
	prepared.SetEncodedPlan(encoded)
	prepared.Done()

	if errp = this.AddPrepared(prepared, PRIMARY); errp != nil {
		return nil, errp
	}
	return prepared, nil
}
