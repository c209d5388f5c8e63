//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

/*
Package execution orchestrates the request pipeline around the prepared
statement caches: resolve a statement, check bound value arity, authorize,
validate, execute. One Context per request, no state carried across
requests.
*/
package execution

import (
	"github.com/google/uuid"
	"github.com/stranddb/query/datastore"
)

// Context is the per request client state handed to statement hooks.
type Context struct {
	requestId string
	user      string
	keyspace  string
	internal  bool
}

func NewContext(user, keyspace string) *Context {
	return &Context{
		requestId: uuid.NewString(),
		user:      user,
		keyspace:  keyspace,
	}
}

// internal requests run under the synthetic system identity
func newInternalContext() *Context {
	return &Context{
		requestId: uuid.NewString(),
		user:      "#internal",
		keyspace:  datastore.SYSTEM_KEYSPACE,
		internal:  true,
	}
}

func (this *Context) RequestId() string {
	return this.requestId
}

func (this *Context) UserName() string {
	return this.user
}

func (this *Context) Keyspace() string {
	return this.keyspace
}

func (this *Context) IsInternal() bool {
	return this.internal
}
