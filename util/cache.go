//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

/*
WeightedCache provides a highly concurrent set of structures bounded by the
cumulative weight of its entries rather than their count, implemented as an
array of doubly linked lists for sequential access complemented by maps for
direct access.

Entries carry a weight determined once, on insertion. When adding an entry
would push the cumulative weight past the configured capacity, least recently
used entries are ejected until the new entry fits, and each ejection is
reported through the eviction callback. An entry whose own weight exceeds the
whole capacity is refused outright rather than emptying the cache to no avail.

The ForEach method is not meant to provide a snapshot of the current state of
affairs but rather an almost accurate picture: deletes and inserts are allowed
as the scan takes place.

Since the cache is maintained by LRU ejection, and certain types of access
move elements to the top of their bucket, we maintain two lists: LRU (for
cleaning) and scan (for access): a single list for both operations proved to
be inadequate in avoiding skipping whole swathes of entries or reporting an
element twice, caused by entries moving about in the bucket as the scan
occurs.
*/
package util

import (
	"sync"

	atomic "github.com/couchbase/go-couchbase/platform"
)

type wcSubList struct {
	next *wcElem // next points to head (list), goes in the direction of head (element)
	prev *wcElem // prev points to tail (list), goes in the direction of tail (element)
}

type listType int

const (
	_LRU listType = iota
	_SCAN
	_LISTTYPES // Sizer
)

type wcElem struct {
	ID       string
	lists    [_LISTTYPES]wcSubList
	lastMRU  uint32
	refcount int32
	deleted  bool
	weight   int
	contents interface{}
}

const _MIN_CACHES = 8
const _MAX_CACHES = 64
const _CACHE_SIZE = 1 << 8

type Operation int

const (
	IGNORE Operation = iota
	AMEND
	REPLACE
)

type WeightedCache struct {

	// number of caches
	numCaches int

	// one lock per cache bucket to aid concurrency
	locks []sync.RWMutex

	// this shows intent to lock exclusively
	lockers []int32

	// doubly linked lists for scans and ejections
	lists [][_LISTTYPES]wcSubList

	// maps for direct access
	maps []map[string]*wcElem

	// per bucket weight, used to choose an ejection victim's bucket
	weights []atomic.AlignedInt64

	// MRU operation counter
	lastMRU uint32

	// cumulative weight ceiling
	capacity  int64
	curWeight atomic.AlignedInt64
	curSize   int32

	// fired once per ejected entry, after the bucket lock is released
	onEvict func(id string, contents interface{})
}

// A capacity of zero or less means no ceiling: entries are never ejected.
func NewWeightedCache(capacity int64, onEvict func(string, interface{})) *WeightedCache {
	numCaches := NumCPU()
	if numCaches > _MAX_CACHES {
		numCaches = _MAX_CACHES
	} else if numCaches < _MIN_CACHES {
		numCaches = _MIN_CACHES
	}
	rv := &WeightedCache{
		capacity:  capacity,
		onEvict:   onEvict,
		numCaches: numCaches,
		locks:     make([]sync.RWMutex, numCaches),
		lockers:   make([]int32, numCaches),
		lists:     make([][_LISTTYPES]wcSubList, numCaches),
		maps:      make([]map[string]*wcElem, numCaches),
		weights:   make([]atomic.AlignedInt64, numCaches),
	}

	for b := 0; b < rv.numCaches; b++ {
		rv.maps[b] = make(map[string]*wcElem, _CACHE_SIZE)
	}
	return rv
}

// Add (or update, if ID found) an entry of the given weight, ejecting old
// entries if the ceiling would be breached.
// Returns false, leaving the cache untouched, if the entry can never fit.
func (this *WeightedCache) Add(entry interface{}, id string, weight int, process func(interface{}) Operation) bool {
	if this.capacity > 0 && int64(weight) > this.capacity {
		return false
	}
	var victims []*wcElem

	cacheNum := HashString(id, this.numCaches)
	this.lock(cacheNum)

	elem, ok := this.maps[cacheNum][id]
	if ok {
		op := REPLACE

		// If the element has been found, process the existing entry,
		// determine any conflict, and skip if required
		// The process function may alter the entry contents as
		// required rather than switching it to the new entry
		if process != nil {
			if op = process(elem.contents); op == IGNORE {
				this.locks[cacheNum].Unlock()
				return true
			}
		}

		// Move to the front
		this.promote(elem, cacheNum)

		if op == REPLACE {
			delta := int64(weight - elem.weight)
			elem.weight = weight
			elem.contents = entry
			atomic.AddInt64(&this.curWeight, delta)
			atomic.AddInt64(&this.weights[cacheNum], delta)
		}

		this.locks[cacheNum].Unlock()

		// a heavier replacement may have breached the ceiling
		victims = this.shed(elem)

	} else {

		// In order not to have to acquire a different lock
		// we first make room at the LRU end of this hash node:
		// it makes the list a bit lopsided at the lower end
		// but it buys us performance
		if this.capacity > 0 {
			needed := atomic.LoadInt64(&this.curWeight) + int64(weight)
			for needed > this.capacity {
				victim := this.lists[cacheNum][_LRU].prev
				if victim == nil {
					break
				}
				this.remove(victim, cacheNum)
				atomic.AddInt64(&this.curWeight, -int64(victim.weight))
				atomic.AddInt64(&this.weights[cacheNum], -int64(victim.weight))
				atomic.AddInt32(&this.curSize, -1)
				needed -= int64(victim.weight)
				victims = append(victims, victim)
			}
		}
		elem = &wcElem{
			contents: entry,
			ID:       id,
			weight:   weight,
		}
		this.add(elem, cacheNum)
		this.maps[cacheNum][id] = elem
		atomic.AddInt64(&this.curWeight, int64(weight))
		atomic.AddInt64(&this.weights[cacheNum], int64(weight))
		atomic.AddInt32(&this.curSize, 1)
		this.locks[cacheNum].Unlock()

		// our own bucket may have run dry before we got under the
		// ceiling, in which case victims have to be found elsewhere
		victims = append(victims, this.shed(elem)...)
	}
	this.notify(victims)
	return true
}

// Eject least recently used entries, choosing each time from the heaviest
// bucket, until the cumulative weight is back under the ceiling.
// We are a bit liberal with locks: the bucket weights move as we scan them,
// so the victim choice is best effort, but the ceiling is a soft bound
// anyway.
// The entry keep, if found at the LRU end, is passed over, so that a caller
// never ejects the entry it just added.
func (this *WeightedCache) shed(keep *wcElem) []*wcElem {
	var victims []*wcElem
	var tried []bool

	for this.capacity > 0 && atomic.LoadInt64(&this.curWeight) > this.capacity {
		victimBucket := -1
		var maxWeight int64

		for c := 0; c < this.numCaches; c++ {
			if tried != nil && tried[c] {
				continue
			}
			if w := atomic.LoadInt64(&this.weights[c]); w > maxWeight {
				maxWeight = w
				victimBucket = c
			}
		}
		if victimBucket < 0 {
			break
		}
		this.lock(victimBucket)
		victim := this.lists[victimBucket][_LRU].prev
		if victim == keep {
			victim = victim.lists[_LRU].next
		}
		if victim != nil {
			this.remove(victim, victimBucket)
			atomic.AddInt64(&this.curWeight, -int64(victim.weight))
			atomic.AddInt64(&this.weights[victimBucket], -int64(victim.weight))
			atomic.AddInt32(&this.curSize, -1)
			victims = append(victims, victim)
		}
		this.locks[victimBucket].Unlock()

		// a bucket with nothing usable is left alone from here on, so
		// that the hunt always ends
		if victim == nil {
			if tried == nil {
				tried = make([]bool, this.numCaches)
			}
			tried[victimBucket] = true
		}
	}
	return victims
}

func (this *WeightedCache) notify(victims []*wcElem) {
	if this.onEvict == nil {
		return
	}
	for _, victim := range victims {
		this.onEvict(victim.ID, victim.contents)
	}
}

// Remove entry
// Explicit removal is not an ejection: the eviction callback is not fired.
func (this *WeightedCache) Delete(id string, cleanup func(interface{})) bool {
	cacheNum := HashString(id, this.numCaches)
	this.lock(cacheNum)
	defer this.locks[cacheNum].Unlock()

	elem, ok := this.maps[cacheNum][id]
	if ok {
		if cleanup != nil {
			cleanup(elem.contents)
		}
		this.remove(elem, cacheNum)
		atomic.AddInt64(&this.curWeight, -int64(elem.weight))
		atomic.AddInt64(&this.weights[cacheNum], -int64(elem.weight))
		atomic.AddInt32(&this.curSize, -1)
		return true
	}
	return false
}

func (this *WeightedCache) DeleteWithCheck(id string, cleanup func(interface{}) bool) bool {
	cacheNum := HashString(id, this.numCaches)
	this.lock(cacheNum)
	defer this.locks[cacheNum].Unlock()

	elem, ok := this.maps[cacheNum][id]
	if ok {
		res := true
		if cleanup != nil {
			res = cleanup(elem.contents)
		}
		if res {
			this.remove(elem, cacheNum)
			atomic.AddInt64(&this.curWeight, -int64(elem.weight))
			atomic.AddInt64(&this.weights[cacheNum], -int64(elem.weight))
			atomic.AddInt32(&this.curSize, -1)
		}
		return res
	}
	return false
}

// Returns an element's contents by id
func (this *WeightedCache) Get(id string, process func(interface{})) interface{} {
	cacheNum := HashString(id, this.numCaches)
	this.locks[cacheNum].RLock()
	defer this.locks[cacheNum].RUnlock()
	elem, ok := this.maps[cacheNum][id]
	if !ok {
		return nil
	} else {
		if process != nil {
			process(elem.contents)
		}
		return elem.contents
	}
}

// Returns an element's contents by id and places it at the top of the bucket
// Also useful to manipulate an element with an exclusive lock
func (this *WeightedCache) Use(id string, process func(interface{})) interface{} {

	// if no processing is involved and the cache is in no danger of being
	// cleaned, we can just use a shared lock for performance
	if process == nil && !this.testMRU(0) {
		return this.Get(id, nil)
	}
	cacheNum := HashString(id, this.numCaches)
	this.lock(cacheNum)
	defer this.locks[cacheNum].Unlock()
	elem, ok := this.maps[cacheNum][id]
	if !ok {
		return nil
	} else {

		// Move to the front
		this.promote(elem, cacheNum)

		if process != nil {
			process(elem.contents)
		}
		return elem.contents
	}
}

// Entry count
func (this *WeightedCache) Size() int {
	return int(atomic.LoadInt32(&this.curSize))
}

// Cumulative weight of all entries
func (this *WeightedCache) Weight() int64 {
	return atomic.LoadInt64(&this.curWeight)
}

// Weight ceiling
func (this *WeightedCache) Capacity() int64 {
	return this.capacity
}

// Change the weight ceiling
func (this *WeightedCache) SetCapacity(capacity int64) {

	// this we ought to do with a lock, however we only envisage
	// one request to change the capacity every blue moon, and all
	// that can transiently go wrong is ejecting a touch too much
	// or too little
	this.capacity = capacity
	this.notify(this.shed(nil))
}

// Return a slice with all the entry id's
func (this *WeightedCache) Names() []string {
	i := 0

	// we have emergency extra space not to have to append
	// if we can avoid it
	l := this.Size()
	sz := this.numCaches + l
	n := make([]string, l, sz)
	this.ForEach(func(id string, entry interface{}) bool {
		if i < l {
			n[i] = id
		} else {
			n = append(n, id)
		}
		i++
		return true
	}, nil)
	return n
}

// Scan the list
//
// As noted in the starting comments, this is not a consistent snapshot
// but rather a low cost, almost accurate view
//
// For each element, we cater for actions with the bucket locked (must be non blocking)
// and blocking actions with the bucket available
// Since, for blocking operations, the entry is not guaranteed to exist, any data needed by them
// must be set up in the non blocking part
// both functions should return false if processing needs to stop
func (this *WeightedCache) ForEach(nonBlocking func(string, interface{}) bool,
	blocking func() bool) {

	safeUnlock := -1
	defer func() {
		e := recover()
		if e != nil {
			if safeUnlock != -1 {
				this.locks[safeUnlock].RUnlock()
			}
			panic(e)
		}
	}()
	cont := true

	for b := 0; b < this.numCaches; b++ {
		sharedLock := true
		this.locks[b].RLock()
		nextElem := this.lists[b][_SCAN].prev
		if nextElem == nil {
			this.locks[b].RUnlock()
			continue
		}

		// mark tail element as in use, so that they don't disappear mid scan
		atomic.AddInt32(&nextElem.refcount, 1)
		for {
			elem := nextElem
			nextElem = elem.lists[_SCAN].next

			// mark next element as in use so that it doesn't get removed from
			// the list and we get lost mid scan...
			if nextElem != nil {
				atomic.AddInt32(&nextElem.refcount, 1)
			}

			// somebody had deleted the element in the interim, so skip it
			if elem.deleted {

				// and if no longer referenced, get rid of it for real
				if elem.refcount == 1 {

					// promote the lock
					this.locks[b].RUnlock()
					sharedLock = false
					this.lock(b)

					// if we are still the only referencer, remove
					if elem.refcount == 1 {
						this.lists[b][_SCAN].ditch(elem, _SCAN)
					}
				}

			} else {

				// perform the non blocking action
				if nonBlocking != nil {
					safeUnlock = b
					cont = nonBlocking(elem.ID, elem.contents)
					safeUnlock = -1
				}
			}

			// release current element
			atomic.AddInt32(&elem.refcount, -1)

			// unlock the cache
			if sharedLock {

				// if we don't have waiters or blocking actions we can just continue
				if nextElem != nil && cont && blocking == nil && this.lockers[b] == 0 {
					continue
				}
				this.locks[b].RUnlock()
			} else {
				this.locks[b].Unlock()
			}

			// perform the blocking action
			if cont && !elem.deleted && blocking != nil {
				cont = blocking()
			}

			// things went wrong, or got settled early
			if !cont {
				return
			}

			// end of this bucket, onto the next
			if nextElem == nil {
				break
			}

			// restart the scan
			this.locks[b].RLock()
			sharedLock = true
		}
	}
}

// show intent to lock the cacheline and proceed with exclusive lock
func (this *WeightedCache) lock(cacheNum int) {
	atomic.AddInt32(&this.lockers[cacheNum], 1)
	this.locks[cacheNum].Lock()
	atomic.AddInt32(&this.lockers[cacheNum], -1)
}

// mark next MRU operation id
func (this *WeightedCache) nextMRU() {
	atomic.AddUint32(&this.lastMRU, 1)
}

// test if MRU promotion is needed
// the general idea is that MRU maintenance is expensive, so we will only bother
// to do it if an entry is in danger of being cleaned
func (this *WeightedCache) testMRU(MRU uint32) bool {

	// handle wraparounds
	return this.lastMRU < MRU ||

		// if we are in the bottom half, move up
		int(this.lastMRU-MRU) > this.Size()/2
}

// in all of the following methods, the bucket is expected to be already exclusively locked
func (this *WeightedCache) add(elem *wcElem, cacheNum int) {
	this.nextMRU()
	elem.lastMRU = this.lastMRU
	this.lists[cacheNum][_LRU].insert(elem, _LRU)
	this.lists[cacheNum][_SCAN].insert(elem, _SCAN)
}

func (this *WeightedCache) promote(elem *wcElem, cacheNum int) {
	if this.testMRU(elem.lastMRU) {
		this.nextMRU()
		elem.lastMRU = this.lastMRU
		this.lists[cacheNum][_LRU].ditch(elem, _LRU)
		this.lists[cacheNum][_LRU].insert(elem, _LRU)
	}
}

func (this *WeightedCache) remove(elem *wcElem, cacheNum int) {
	delete(this.maps[cacheNum], elem.ID)
	this.lists[cacheNum][_LRU].ditch(elem, _LRU)
	if elem.refcount > 0 {
		elem.deleted = true
	} else {
		this.lists[cacheNum][_SCAN].ditch(elem, _SCAN)
	}
}

func (this *wcSubList) insert(elem *wcElem, list listType) {
	elem.lists[list].next = nil
	if this.next == nil {
		this.next = elem
		this.prev = elem
		elem.lists[list].prev = nil
	} else {
		elem.lists[list].prev = this.next
		elem.lists[list].prev.lists[list].next = elem
		this.next = elem
	}

}

func (this *wcSubList) ditch(elem *wcElem, list listType) {

	// corner cases: head
	if elem == this.next {
		this.next = elem.lists[list].prev

		// ...and tail
		if elem == this.prev {
			this.prev = elem.lists[list].next
		} else {
			elem.lists[list].prev.lists[list].next = nil
		}

		// tail
	} else if elem == this.prev {
		this.prev = elem.lists[list].next
		elem.lists[list].next.lists[list].prev = nil

		// middle
	} else {
		prev := elem.lists[list].prev
		next := elem.lists[list].next
		prev.lists[list].next = next
		next.lists[list].prev = prev
	}

	// help the GC
	elem.lists[list].next = nil
	elem.lists[list].prev = nil
}
