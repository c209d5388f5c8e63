//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

/*
Package datastore defines what the statement preparation layer consumes from
the underlying store: client state as statements see it during access
checking, validation and execution, and schema change notifications.
*/
package datastore

// reserved keyspace used by internal housekeeping statements
const SYSTEM_KEYSPACE = "#system"

// Context is the client state a statement executes against.
type Context interface {
	UserName() string // authenticated user, "" if none
	Keyspace() string // active keyspace, "" if none
	IsInternal() bool // internal housekeeping traffic, bypasses access checks
}

var NULL_CONTEXT Context = &contextImpl{}

// INTERNAL_CONTEXT is the synthetic client identity internal statements run
// under: full access to the system keyspace, no external credentials.
var INTERNAL_CONTEXT Context = &contextImpl{user: "#internal", keyspace: SYSTEM_KEYSPACE, internal: true}

type contextImpl struct {
	user     string
	keyspace string
	internal bool
}

func NewContext(user, keyspace string) Context {
	return &contextImpl{user: user, keyspace: keyspace}
}

func (this *contextImpl) UserName() string {
	return this.user
}

func (this *contextImpl) Keyspace() string {
	return this.keyspace
}

func (this *contextImpl) IsInternal() bool {
	return this.internal
}
