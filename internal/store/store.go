// Package store implements the URL cache store: a sharded in-memory map from object keys
// to the most recently issued signed URL and its absolute expiry. Reads never block on I/O.
package store

import (
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/benbjohnson/clock"
	"sync/atomic"
	"time"
)

// Tunables.
const (
	NumOfShards = 64
	shardMask   = NumOfShards - 1
)

// Store is a sharded concurrent map with a precise global length counter.
type Store struct {
	clock  clock.Clock
	len    int64 // aggregated number of records (atomic)
	shards [NumOfShards]*Shard
}

func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	s := &Store{clock: clk}
	for id := uint64(0); id < NumOfShards; id++ {
		s.shards[id] = NewShard(id)
	}
	return s
}

// Get returns the cached URL of the object key.
func (s *Store) Get(objectKey string) (url string, ok bool) {
	rec, ok := s.Record(objectKey)
	if !ok {
		return "", false
	}
	return rec.URL, true
}

// Record returns the full cached record of the object key.
func (s *Store) Record(objectKey string) (Record, bool) {
	if objectKey == "" {
		return Record{}, false
	}
	k := NewKey(objectKey)
	return s.shard(k).Get(k)
}

// Put unconditionally overwrites the record of the object key; last write wins.
func (s *Store) Put(objectKey, url string, expiresAt time.Time) {
	if objectKey == "" {
		return
	}
	k := NewKey(objectKey)
	rec := Record{URL: url, IssuedAt: s.clock.Now(), ExpiresAt: expiresAt}
	if delta := s.shard(k).Set(k, objectKey, rec); delta != 0 {
		atomic.AddInt64(&s.len, delta)
	}
}

// Commit stores a freshly minted record unless a record issued later is already present,
// so a slow refresh that started earlier can't overwrite a newer URL.
// Returns the record that is current after the call.
func (s *Store) Commit(objectKey string, rec Record) (current Record, applied bool) {
	if objectKey == "" {
		return Record{}, false
	}
	k := NewKey(objectKey)
	current, applied, delta := s.shard(k).Commit(k, objectKey, rec)
	if delta != 0 {
		atomic.AddInt64(&s.len, delta)
	}
	return current, applied
}

// Updates returns the visible URL of every given object key that has a record.
func (s *Store) Updates(objectKeys ...string) map[string]model.URLUpdate {
	updates := make(map[string]model.URLUpdate, len(objectKeys))
	for _, objectKey := range objectKeys {
		if rec, ok := s.Record(objectKey); ok && rec.URL != "" {
			updates[objectKey] = model.URLUpdate{URL: rec.URL, Seq: rec.Seq}
		}
	}
	return updates
}

// ExpiresWithin reports whether the object key has no record or its record
// has at most buffer of validity left.
func (s *Store) ExpiresWithin(objectKey string, buffer time.Duration) bool {
	rec, ok := s.Record(objectKey)
	if !ok {
		return true
	}
	return rec.Remaining(s.clock.Now()) <= buffer
}

// Delete drops the record of the object key.
func (s *Store) Delete(objectKey string) bool {
	if objectKey == "" {
		return false
	}
	k := NewKey(objectKey)
	if s.shard(k).Remove(k) {
		atomic.AddInt64(&s.len, -1)
		return true
	}
	return false
}

// Retain drops every record whose object key is not in keep. Returns the number of dropped records.
func (s *Store) Retain(keep map[string]struct{}) (removed int64) {
	for _, sh := range s.shards {
		removed += sh.RemoveIf(func(objectKey string) bool {
			_, ok := keep[objectKey]
			return !ok
		})
	}
	if removed != 0 {
		atomic.AddInt64(&s.len, -removed)
	}
	return
}

// Keys returns the object keys of all records.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, sh := range s.shards {
		sh.Walk(func(objectKey string, _ Record) bool {
			keys = append(keys, objectKey)
			return true
		})
	}
	return keys
}

// Clear wipes all shards.
func (s *Store) Clear() {
	for _, sh := range s.shards {
		if items := sh.Clear(); items != 0 {
			atomic.AddInt64(&s.len, -items)
		}
	}
}

func (s *Store) Len() int64         { return atomic.LoadInt64(&s.len) }
func (s *Store) Clock() clock.Clock { return s.clock }
func (s *Store) shard(k Key) *Shard { return s.shards[k.Value()&shardMask] }
