package help

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var ErrUnavailable = errors.New("gateway unavailable")

// Signer is a scriptable gateway. It numbers its calls, can fail per key
// and lets a test intercept every call through Hook.
type Signer struct {
	calls atomic.Int64
	Hook  func(call int64, objectKey string)

	mu      sync.Mutex
	failing map[string]bool
	perKey  map[string]int
}

func NewSigner() *Signer {
	return &Signer{failing: make(map[string]bool), perKey: make(map[string]int)}
}

func (s *Signer) Sign(_ context.Context, objectKey string, validity time.Duration) (string, error) {
	n := s.calls.Add(1)
	if s.Hook != nil {
		s.Hook(n, objectKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.perKey[objectKey]++
	if s.failing[objectKey] {
		return "", ErrUnavailable
	}
	return fmt.Sprintf("https://storage.test/object/sign/%s?exp=%d&n=%d", objectKey, int64(validity/time.Second), n), nil
}

// Fail makes every call for the object key fail until Recover is called.
func (s *Signer) Fail(objectKey string) {
	s.mu.Lock()
	s.failing[objectKey] = true
	s.mu.Unlock()
}

func (s *Signer) Recover(objectKey string) {
	s.mu.Lock()
	delete(s.failing, objectKey)
	s.mu.Unlock()
}

func (s *Signer) Calls() int64 {
	return s.calls.Load()
}

// CallsFor returns the number of calls issued for the object key.
func (s *Signer) CallsFor(objectKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perKey[objectKey]
}
