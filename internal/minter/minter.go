// Package minter mints signed URLs through the gateway and commits them to the store.
// TryRefresh wraps minting with the single-flight guard.
package minter

import (
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/Borislavv/go-ash-urlcache/internal/gateway"
	"github.com/Borislavv/go-ash-urlcache/internal/inflight"
	"github.com/Borislavv/go-ash-urlcache/internal/shared/rate"
	"github.com/Borislavv/go-ash-urlcache/internal/store"
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrClosed is carried by results of mints attempted after Close.
var ErrClosed = errors.New("minter is closed")

type Minter struct {
	cfg      *config.SigningCfg
	clock    clock.Clock
	logger   *slog.Logger
	signer   gateway.Signer
	store    *store.Store
	inflight *inflight.Set
	limiter  *rate.Limiter
	group    singleflight.Group // object-key coalescing, DedupObject only
	seq      atomic.Uint64      // issuance sequence
	counters *minterCounters

	mu     sync.RWMutex // guards closed against commits
	closed bool
}

// New builds a minter; ctx bounds the gateway pacing.
func New(
	ctx context.Context,
	cfg *config.SigningCfg,
	logger *slog.Logger,
	clk clock.Clock,
	signer gateway.Signer,
	store *store.Store,
) *Minter {
	return &Minter{
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
		signer:   signer,
		store:    store,
		inflight: inflight.New(),
		limiter:  rate.NewLimiter(ctx, cfg.Rate),
		counters: newMinterCounters(),
	}
}

// Mint signs objectKey and commits the URL with expiry = issuance instant + validity.
// A failed call leaves the cached record untouched. Never returns an error to handle:
// the outcome and cause are carried by the result.
func (m *Minter) Mint(ctx context.Context, objectKey string) model.Result {
	if objectKey == "" {
		return model.Result{Outcome: model.Skipped}
	}
	if !m.cfg.IsObjectDedup() {
		return m.mint(ctx, objectKey)
	}
	if err := ctx.Err(); err != nil {
		return m.fail(objectKey, err)
	}

	// the shared call outlives any single caller, each caller still honors its own ctx
	ch := m.group.DoChan(objectKey, func() (any, error) {
		return m.mint(context.WithoutCancel(ctx), objectKey), nil
	})
	select {
	case <-ctx.Done():
		return m.fail(objectKey, ctx.Err())
	case r := <-ch:
		return r.Val.(model.Result)
	}
}

// TryRefresh mints objectKey on behalf of id unless a refresh for id is already in flight,
// in which case it returns Deferred without calling the gateway.
func (m *Minter) TryRefresh(ctx context.Context, id, objectKey string) model.Result {
	if objectKey == "" {
		return model.Result{Outcome: model.Skipped}
	}

	var res model.Result
	if !m.inflight.Do(id, func() { res = m.Mint(ctx, objectKey) }) {
		m.counters.deferred.Add(1)
		m.logger.Debug("refresh deferred, already in flight", "id", id, "key", objectKey)
		return model.Result{Outcome: model.Deferred, ObjectKey: objectKey}
	}
	return res
}

func (m *Minter) mint(ctx context.Context, objectKey string) model.Result {
	if m.isClosed() {
		return closedResult(objectKey)
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return m.fail(objectKey, err)
	}

	seq := m.seq.Add(1)
	issuedAt := m.clock.Now()
	m.counters.calls.Add(1)

	url, err := m.signer.Sign(ctx, objectKey, m.cfg.Validity)
	if err == nil && url == "" {
		err = gateway.ErrEmptyURL
	}
	if err != nil {
		return m.fail(objectKey, err)
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return closedResult(objectKey)
	}
	current, applied := m.store.Commit(objectKey, store.Record{
		URL:       url,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(m.cfg.Validity),
		Seq:       seq,
	})
	m.mu.RUnlock()
	if !applied {
		m.counters.stale.Add(1)
	}
	m.counters.refreshed.Add(1)

	return model.Result{
		Outcome:   model.Refreshed,
		ObjectKey: objectKey,
		URL:       current.URL,
		Seq:       current.Seq,
		ExpiresAt: current.ExpiresAt,
	}
}

func (m *Minter) fail(objectKey string, err error) model.Result {
	m.counters.failures.Add(1)
	m.logger.Warn("signing failed, cached url kept", "key", objectKey, "err", err)
	return model.Result{
		Outcome:   model.Failed,
		ObjectKey: objectKey,
		Err:       fmt.Errorf("sign %q: %w", objectKey, err),
	}
}

// InFlight returns the number of identifiers currently being refreshed.
func (m *Minter) InFlight() int {
	return m.inflight.Len()
}

func (m *Minter) Metrics() (calls, refreshed, failures, deferred, stale int64) {
	return m.counters.snapshot()
}

// Close makes every later or still running mint fail with ErrClosed before it commits,
// then releases the in-flight set. Once Close returns nothing is written to the store.
func (m *Minter) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.inflight.Clear()
}

func (m *Minter) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func closedResult(objectKey string) model.Result {
	return model.Result{Outcome: model.Failed, ObjectKey: objectKey, Err: ErrClosed}
}
