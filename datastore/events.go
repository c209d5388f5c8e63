//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package datastore

import (
	"sync"
)

// SchemaEventListener is notified of schema drops. Creates and alters are of
// no interest to statement caching and are not part of the listener surface.
type SchemaEventListener interface {
	OnDropKeyspace(keyspace string)
	OnDropTable(keyspace, table string)
}

// SchemaEvents fans schema change notifications out to subscribed listeners,
// synchronously and in subscription order.
type SchemaEvents struct {
	sync.RWMutex
	listeners []SchemaEventListener
}

func NewSchemaEvents() *SchemaEvents {
	return &SchemaEvents{}
}

func (this *SchemaEvents) Subscribe(listener SchemaEventListener) {
	this.Lock()
	this.listeners = append(this.listeners, listener)
	this.Unlock()
}

func (this *SchemaEvents) DropKeyspace(keyspace string) {
	this.RLock()
	defer this.RUnlock()
	for _, listener := range this.listeners {
		listener.OnDropKeyspace(keyspace)
	}
}

func (this *SchemaEvents) DropTable(keyspace, table string) {
	this.RLock()
	defer this.RUnlock()
	for _, listener := range this.listeners {
		listener.OnDropTable(keyspace, table)
	}
}
