// Package inflight implements the single-flight refresh guard: a set of identifiers
// whose refresh is currently running. Membership is the lock.
package inflight

import "sync"

type Set struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func New() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// TryAcquire atomically checks and adds id. False means a refresh for id is already in flight.
func (s *Set) TryAcquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.ids[id]; busy {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Release removes id from the set.
func (s *Set) Release(id string) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

// Do runs fn while holding id. Returns false without calling fn when id is already held.
// The id is released on every exit path, including a panic in fn.
func (s *Set) Do(id string, fn func()) (ran bool) {
	if !s.TryAcquire(id) {
		return false
	}
	defer s.Release(id)
	fn()
	return true
}

func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Clear releases every id.
func (s *Set) Clear() {
	s.mu.Lock()
	clear(s.ids)
	s.mu.Unlock()
}
