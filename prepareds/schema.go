//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package prepareds

import (
	"github.com/stranddb/query/algebra"
	"github.com/stranddb/query/util"
)

// Cache is a datastore.SchemaEventListener: dropping a keyspace or table
// purges the statements that reference it from both bounded caches.
//
// Only statement kinds that reference exactly one table carry the identity
// needed to match them; every other kind stays cached until naturally
// ejected, or until execution time validation rejects it. A removal racing
// a re-insertion of the same name may land either way: a statement for a
// just dropped table can remain transiently servable until the next pass.

func (this *Cache) OnDropKeyspace(keyspace string) {
	this.removeIf(func(stmt algebra.TableStatement) bool {
		return stmt.Keyspace() == keyspace
	})
}

func (this *Cache) OnDropTable(keyspace, table string) {
	this.removeIf(func(stmt algebra.TableStatement) bool {
		return stmt.Keyspace() == keyspace &&
			(stmt.Table() == "" || stmt.Table() == table)
	})
}

func (this *Cache) removeIf(predicate func(algebra.TableStatement) bool) {
	for _, cache := range []*util.WeightedCache{this.primary, this.legacy} {
		var victims []string

		cache.ForEach(func(id string, entry interface{}) bool {
			ce := entry.(*CacheEntry)
			if stmt, ok := ce.Prepared.Statement().(algebra.TableStatement); ok && predicate(stmt) {
				victims = append(victims, id)
			}
			return true
		}, nil)
		for _, id := range victims {

			// recheck under the bucket lock: the entry may have been
			// replaced since the scan
			cache.DeleteWithCheck(id, func(entry interface{}) bool {
				ce := entry.(*CacheEntry)
				stmt, ok := ce.Prepared.Statement().(algebra.TableStatement)
				return ok && predicate(stmt)
			})
		}
	}
}
