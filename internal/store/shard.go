package store

import (
	"sync"
	"sync/atomic"
)

type item struct {
	objectKey string
	record    Record
}

// Shard is an independent segment of the store.
// Its length is kept in an atomic so global readers can avoid locks.
type Shard struct {
	sync.RWMutex
	items map[Key]item

	id  uint64
	len int64 // atomic
}

func NewShard(id uint64) *Shard {
	return &Shard{id: id, items: make(map[Key]item)}
}

func (sh *Shard) ID() uint64 { return sh.id }
func (sh *Shard) Len() int64 { return atomic.LoadInt64(&sh.len) }

// Get reads a record under a shared lock.
func (sh *Shard) Get(key Key) (record Record, hit bool) {
	sh.RLock()
	it, hit := sh.items[key]
	sh.RUnlock()
	return it.record, hit
}

// Set inserts or overwrites a record. Returns the length delta for global aggregation.
func (sh *Shard) Set(key Key, objectKey string, record Record) (lenDelta int64) {
	sh.Lock()
	if _, hit := sh.items[key]; !hit {
		lenDelta = 1
		atomic.AddInt64(&sh.len, 1)
	}
	sh.items[key] = item{objectKey: objectKey, record: record}
	sh.Unlock()
	return
}

// Commit writes the record only if it was issued after the stored one.
// Returns the record current after the call and whether the given one was applied.
func (sh *Shard) Commit(key Key, objectKey string, record Record) (current Record, applied bool, lenDelta int64) {
	sh.Lock()
	defer sh.Unlock()

	old, hit := sh.items[key]
	if hit && !record.IsNewerThan(old.record) {
		return old.record, false, 0
	}
	if !hit {
		lenDelta = 1
		atomic.AddInt64(&sh.len, 1)
	}
	sh.items[key] = item{objectKey: objectKey, record: record}
	return record, true, lenDelta
}

// Remove deletes a key under the write lock.
func (sh *Shard) Remove(key Key) (hit bool) {
	sh.Lock()
	if _, hit = sh.items[key]; hit {
		delete(sh.items, key)
		atomic.AddInt64(&sh.len, -1)
	}
	sh.Unlock()
	return
}

// RemoveIf deletes every record whose object key matches fn. Returns the number of removed records.
func (sh *Shard) RemoveIf(fn func(objectKey string) bool) (removed int64) {
	sh.Lock()
	for k, it := range sh.items {
		if fn(it.objectKey) {
			delete(sh.items, k)
			removed++
		}
	}
	atomic.AddInt64(&sh.len, -removed)
	sh.Unlock()
	return
}

// Walk iterates records under a shared lock. The callback must be lightweight.
func (sh *Shard) Walk(fn func(objectKey string, record Record) bool) {
	sh.RLock()
	defer sh.RUnlock()
	for _, it := range sh.items {
		if !fn(it.objectKey, it.record) {
			return
		}
	}
}

// Clear removes all records and returns the number of removed ones.
func (sh *Shard) Clear() (items int64) {
	sh.Lock()
	items = atomic.LoadInt64(&sh.len)
	sh.items = make(map[Key]item)
	atomic.StoreInt64(&sh.len, 0)
	sh.Unlock()
	return
}
