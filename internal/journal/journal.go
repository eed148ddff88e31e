// Package journal holds the entries of the running session and owns their visible URL field.
package journal

import (
	"github.com/Borislavv/go-ash-urlcache/model"
	"sync"
)

// Set is an ordered, concurrency-safe collection of entries, newest first.
type Set struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]model.Entry
	seqs    map[string]uint64 // issuance sequence of the displayed URL per entry
}

func New() *Set {
	return &Set{
		entries: make(map[string]model.Entry),
		seqs:    make(map[string]uint64),
	}
}

// Replace swaps the whole entry set, keeping the given order.
func (s *Set) Replace(entries []model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]string, 0, len(entries))
	s.entries = make(map[string]model.Entry, len(entries))
	s.seqs = make(map[string]uint64, len(entries))
	for _, e := range entries {
		if _, dup := s.entries[e.ID]; !dup {
			s.order = append(s.order, e.ID)
		}
		s.entries[e.ID] = e
	}
}

// Upsert stores the entry. A new entry is prepended; an existing one keeps its position.
func (s *Set) Upsert(e model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.entries[e.ID]; !found {
		s.order = append([]string{e.ID}, s.order...)
	}
	s.entries[e.ID] = e
	delete(s.seqs, e.ID)
}

// Remove drops the entry and returns it.
func (s *Set) Remove(id string) (model.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[id]
	if !found {
		return model.Entry{}, false
	}
	delete(s.entries, id)
	delete(s.seqs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return e, true
}

func (s *Set) Get(id string) (model.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, found := s.entries[id]
	return e, found
}

// Snapshot returns a copy of all entries in display order.
func (s *Set) Snapshot() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Keyed returns the entries that carry an object key, in display order.
func (s *Set) Keyed() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, 0, len(s.order))
	for _, id := range s.order {
		if e := s.entries[id]; e.HasObjectKey() {
			out = append(out, e)
		}
	}
	return out
}

// HasKeyed reports whether at least one entry carries an object key.
func (s *Set) HasKeyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.HasObjectKey() {
			return true
		}
	}
	return false
}

// ObjectKeys returns the distinct object keys referenced by the entries.
func (s *Set) ObjectKeys() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		if e.HasObjectKey() {
			keys[e.ObjectKey] = struct{}{}
		}
	}
	return keys
}

// References counts the entries referencing objectKey.
func (s *Set) References(objectKey string) int {
	if objectKey == "" {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.references(objectKey)
}

// DropIfUnreferenced calls drop while holding the set lock when no entry references objectKey,
// so an entry added concurrently with the same key can't lose its record.
func (s *Set) DropIfUnreferenced(objectKey string, drop func()) bool {
	if objectKey == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.references(objectKey) != 0 {
		return false
	}
	drop()
	return true
}

func (s *Set) references(objectKey string) (n int) {
	for _, e := range s.entries {
		if e.ObjectKey == objectKey {
			n++
		}
	}
	return n
}

// Apply writes a batch of visible URLs, keyed by object key, into every entry referencing
// the key, under one lock. Returns how many entries changed. Only the URL field is written;
// an update older than the URL an entry already shows is dropped for that entry.
func (s *Set) Apply(updates map[string]model.URLUpdate) (applied int) {
	if len(updates) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		e := s.entries[id]
		if !e.HasObjectKey() {
			continue
		}
		u, found := updates[e.ObjectKey]
		if !found || u.URL == "" {
			continue
		}
		if seq, shown := s.seqs[id]; shown && u.Seq < seq {
			continue
		}
		s.seqs[id] = u.Seq
		if e.URL == u.URL {
			continue
		}
		e.URL = u.URL
		s.entries[id] = e
		applied++
	}
	return applied
}

func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.entries = make(map[string]model.Entry)
	s.seqs = make(map[string]uint64)
}
