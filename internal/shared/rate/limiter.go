package rate

import (
	"context"
	"errors"
	"go.uber.org/ratelimit"
)

// ErrStopped is returned by Wait once the limiter context is done.
var ErrStopped = errors.New("rate limiter stopped")

// Limiter paces calls to the signing gateway. A single provider goroutine takes the slots
// and hands them out one at a time, so a waiter that gives up never uses a slot.
type Limiter struct {
	ch    chan struct{}
	l     ratelimit.Limiter
	limit int
}

// NewLimiter allows up to limit calls per second until ctx is done.
// A non-positive limit disables pacing.
func NewLimiter(ctx context.Context, limit int) *Limiter {
	if limit <= 0 {
		return &Limiter{}
	}
	brst := int(float64(limit) * 0.1)
	if brst < 1 {
		brst = 1
	}
	l := &Limiter{
		limit: limit,
		ch:    make(chan struct{}),
		l:     ratelimit.New(limit, ratelimit.WithSlack(brst)),
	}
	go l.provider(ctx)
	return l
}

func (l *Limiter) provider(ctx context.Context) {
	defer close(l.ch)
	for {
		l.l.Take()
		select {
		case <-ctx.Done():
			return
		case l.ch <- struct{}{}:
		}
	}
}

// Wait blocks until the next call is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil || l.limit <= 0 {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-l.ch:
		if !ok {
			return ErrStopped
		}
		return nil
	}
}

func (l *Limiter) Limit() int {
	return l.limit
}
