//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package util

import (
	"strconv"
	"sync"
	"testing"
)

type testCache struct {
	value  int
	weight int
}

func TestCache(t *testing.T) {
	var names []string

	names = make([]string, 50)
	c := NewWeightedCache(100, nil)

	// Add and Get
	for i := 1; i <= 50; i++ {
		v := testCache{value: i, weight: 1}
		id := strconv.Itoa(i)
		names[i-1] = id

		c.Add(v, id, 1, nil)
		s := c.Size()
		if s != i {
			t.Errorf("Add test: expected %v elements, got %v", i, s)
		}
		w := c.Weight()
		if w != int64(i) {
			t.Errorf("Add test: expected weight %v, got %v", i, w)
		}
		vi := c.Get(id, nil)
		if vi == nil {
			t.Errorf("Add test: expected to find %v, got nothing", id)
		}
		v1, ok := vi.(testCache)
		if !ok {
			t.Errorf("Add test: invalid element type for %v", id)
		}
		if v1.value != i {
			t.Errorf("Add test: was expecting %v, read back %v", i, v1.value)
		}
	}

	// Delete
	sz := 49
	tgt := "25"
	r := c.Delete(tgt, nil)
	if !r {
		t.Errorf("Delete test: element not deleted %v", tgt)
	}
	s := c.Size()
	if s != sz {
		t.Errorf("Delete test: expected %v elements, got %v", sz, s)
	}
	if c.Weight() != int64(sz) {
		t.Errorf("Delete test: expected weight %v, got %v", sz, c.Weight())
	}
	r = c.Delete(tgt, nil)
	if r {
		t.Errorf("Delete test: deleted element deleted again %v", tgt)
	}
	s = c.Size()
	if s != sz {
		t.Errorf("Delete test: expected %v elements, got %v", sz, s)
	}

	// Update, with a heavier replacement
	id := "50"
	v := testCache{value: 51, weight: 3}
	c.Add(v, id, 3, nil)
	s = c.Size()
	if s != sz {
		t.Errorf("Update test: expected %v elements, got %v", sz, s)
	}
	if c.Weight() != int64(sz+2) {
		t.Errorf("Update test: expected weight %v, got %v", sz+2, c.Weight())
	}
	vi := c.Get(id, nil)
	if vi == nil {
		t.Errorf("Update test: expected to find %v, got nothing", id)
	}
	v1, ok := vi.(testCache)
	if !ok {
		t.Errorf("Update test: invalid element type for %v", id)
	}
	if v1.value != 51 {
		t.Errorf("Update test: was expecting %v, read back %v", 51, v1.value)
	}

	// Names, Foreach
	n := c.Names()
	s = len(n)
	if s != sz {
		t.Errorf("Foreach test: expected %v elements, got %v", sz, s)
	}

	for i := 0; i < sz; i++ {
		iName, err := strconv.Atoi(n[i])

		if err != nil || iName < 1 || iName > 50 {
			t.Errorf("Foreach test: element name %v is not valid %v %v", n[i], i, n)
		} else if names[iName-1] == "" {
			t.Errorf("Foreach test: element name %v is duplicate", n[i])
		} else {
			names[iName-1] = ""
		}
		v := c.Get(n[i], nil)
		if v == nil {
			t.Errorf("Foreach test: expected to find %v, got nothing", n[i])
		}
	}
}

func TestCacheEjection(t *testing.T) {
	var mutex sync.Mutex

	evicted := make(map[string]int)
	c := NewWeightedCache(50, func(id string, contents interface{}) {
		mutex.Lock()
		evicted[id]++
		mutex.Unlock()
	})

	for i := 1; i <= 100; i++ {
		if !c.Add(testCache{value: i, weight: 1}, strconv.Itoa(i), 1, nil) {
			t.Errorf("Ejection test: add %v refused", i)
		}
		if c.Weight() > 50 {
			t.Errorf("Ejection test: weight %v exceeds capacity after add %v", c.Weight(), i)
		}
	}
	s := c.Size()
	if s > 50 {
		t.Errorf("Ejection test: expected at most 50 elements, got %v", s)
	}
	mutex.Lock()
	for id, n := range evicted {
		if n != 1 {
			t.Errorf("Ejection test: element %v evicted %v times", id, n)
		}
		if c.Get(id, nil) != nil {
			t.Errorf("Ejection test: evicted element %v still cached", id)
		}
	}
	if len(evicted)+s != 100 {
		t.Errorf("Ejection test: %v evicted and %v cached out of 100", len(evicted), s)
	}
	mutex.Unlock()
}

func TestCacheWeightedEjection(t *testing.T) {
	evictions := 0
	c := NewWeightedCache(100, func(id string, contents interface{}) {
		evictions++
	})

	for i := 1; i <= 10; i++ {
		c.Add(testCache{value: i, weight: 10}, strconv.Itoa(i), 10, nil)
	}
	if c.Weight() != 100 {
		t.Errorf("Weighted ejection test: expected weight 100, got %v", c.Weight())
	}

	// a single heavy entry has to displace several light ones
	if !c.Add(testCache{value: 11, weight: 35}, "11", 35, nil) {
		t.Errorf("Weighted ejection test: add refused")
	}
	if c.Weight() > 100 {
		t.Errorf("Weighted ejection test: weight %v exceeds capacity", c.Weight())
	}
	if evictions < 4 {
		t.Errorf("Weighted ejection test: expected at least 4 ejections, got %v", evictions)
	}
	if c.Get("11", nil) == nil {
		t.Errorf("Weighted ejection test: heavy entry not cached")
	}
}

func TestCacheOversize(t *testing.T) {
	evictions := 0
	c := NewWeightedCache(50, func(id string, contents interface{}) {
		evictions++
	})

	for i := 1; i <= 10; i++ {
		c.Add(testCache{value: i, weight: 1}, strconv.Itoa(i), 1, nil)
	}

	// an entry that can never fit must be refused, not make room in vain
	if c.Add(testCache{value: 51, weight: 51}, "big", 51, nil) {
		t.Errorf("Oversize test: oversized entry accepted")
	}
	if c.Get("big", nil) != nil {
		t.Errorf("Oversize test: oversized entry cached")
	}
	if c.Size() != 10 {
		t.Errorf("Oversize test: expected 10 elements, got %v", c.Size())
	}
	if c.Weight() != 10 {
		t.Errorf("Oversize test: expected weight 10, got %v", c.Weight())
	}
	if evictions != 0 {
		t.Errorf("Oversize test: %v elements ejected for a refused entry", evictions)
	}
}

func TestCacheSetCapacity(t *testing.T) {
	var mutex sync.Mutex

	evictions := 0
	c := NewWeightedCache(100, func(id string, contents interface{}) {
		mutex.Lock()
		evictions++
		mutex.Unlock()
	})

	for i := 1; i <= 100; i++ {
		c.Add(testCache{value: i, weight: 1}, strconv.Itoa(i), 1, nil)
	}
	c.SetCapacity(30)
	if c.Capacity() != 30 {
		t.Errorf("SetCapacity test: expected capacity 30, got %v", c.Capacity())
	}
	if c.Weight() > 30 {
		t.Errorf("SetCapacity test: weight %v exceeds new capacity", c.Weight())
	}
	if evictions < 70 {
		t.Errorf("SetCapacity test: expected at least 70 ejections, got %v", evictions)
	}
	if c.Size()+evictions != 100 {
		t.Errorf("SetCapacity test: %v cached and %v ejected out of 100", c.Size(), evictions)
	}
}

func TestCacheConcurrent(t *testing.T) {
	const workers = 8
	const adds = 200

	var mutex sync.Mutex
	var wg sync.WaitGroup

	evicted := make(map[string]int)
	c := NewWeightedCache(500, func(id string, contents interface{}) {
		mutex.Lock()
		evicted[id]++
		mutex.Unlock()
	})

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < adds; i++ {
				id := strconv.Itoa(w) + "-" + strconv.Itoa(i)
				c.Add(testCache{value: i, weight: 1}, id, 1, nil)
				c.Get(id, nil)
				if i%17 == 0 {
					c.ForEach(func(id string, contents interface{}) bool {
						return true
					}, nil)
				}
			}
		}(w)
	}
	wg.Wait()

	if c.Weight() > 500 {
		t.Errorf("Concurrent test: weight %v exceeds capacity", c.Weight())
	}

	// every entry must end up either resident or ejected exactly once
	mutex.Lock()
	for id, n := range evicted {
		if n != 1 {
			t.Errorf("Concurrent test: element %v evicted %v times", id, n)
		}
	}
	total := len(evicted) + c.Size()
	mutex.Unlock()
	if total != workers*adds {
		t.Errorf("Concurrent test: expected %v elements accounted for, got %v", workers*adds, total)
	}

	// the books have to balance
	var sum int64
	c.ForEach(func(id string, contents interface{}) bool {
		sum += int64(contents.(testCache).weight)
		return true
	}, nil)
	if sum != c.Weight() {
		t.Errorf("Concurrent test: entries weigh %v, accounted %v", sum, c.Weight())
	}
}

func TestCacheForEach(t *testing.T) {
	c := NewWeightedCache(100, nil)
	for i := 1; i <= 20; i++ {
		v := testCache{value: i, weight: 1}
		c.Add(v, strconv.Itoa(i), 1, nil)
	}

	// a full scan must visit every entry and return normally
	count := 0
	c.ForEach(func(id string, contents interface{}) bool {
		count++
		return true
	}, nil)
	if count != 20 {
		t.Errorf("ForEach test: expected 20 entries, got %v", count)
	}

	// early termination
	count = 0
	c.ForEach(func(id string, contents interface{}) bool {
		count++
		return false
	}, nil)
	if count != 1 {
		t.Errorf("ForEach test: expected scan to stop after 1 entry, got %v", count)
	}

	// a panicking visitor propagates, but the bucket lock must be released
	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("ForEach test: expected panic to propagate")
			}
		}()
		c.ForEach(func(id string, contents interface{}) bool {
			panic("visitor")
		}, nil)
	}()
	v := testCache{value: 21, weight: 1}
	if !c.Add(v, "21", 1, nil) {
		t.Errorf("ForEach test: cache unusable after visitor panic")
	}
	if c.Get("21", nil) == nil {
		t.Errorf("ForEach test: expected element 21 after visitor panic")
	}
}
