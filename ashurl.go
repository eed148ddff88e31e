// Package ashurl keeps the images of journal entries displayable.
// A Session mints a signed URL for every entry that carries an object key, caches it by key
// and renews it before it expires, either on a schedule or on demand.
package ashurl

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/Borislavv/go-ash-urlcache/internal/gateway"
	"github.com/Borislavv/go-ash-urlcache/internal/journal"
	"github.com/Borislavv/go-ash-urlcache/internal/minter"
	"github.com/Borislavv/go-ash-urlcache/internal/store"
	"github.com/Borislavv/go-ash-urlcache/internal/sweeper"
	"github.com/Borislavv/go-ash-urlcache/internal/telemetry"
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"
	"io"
	"log/slog"
	"sync"
)

var ErrEntryNotFound = errors.New("entry not found")

// SweepReport summarizes one expiry sweep.
type SweepReport = sweeper.Report

type AshURL interface {
	Attach(ctx context.Context, entries []model.Entry) []model.Entry
	Add(ctx context.Context, entry model.Entry) model.Entry
	Remove(id string) bool
	Refresh(ctx context.Context, id string) model.Result
	Sweep(ctx context.Context) SweepReport
	Entries() []model.Entry
	Entry(id string) (model.Entry, bool)
	URL(objectKey string) (string, bool)
	Metrics() model.Stats
	io.Closer
}

type Option func(*Session)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clk clock.Clock) Option {
	return func(s *Session) {
		if clk != nil {
			s.clock = clk
		}
	}
}

type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.Cache
	logger  *slog.Logger
	clock   clock.Clock
	store   *store.Store
	minter  *minter.Minter
	journal *journal.Set
	telemetry.Logger

	mu      sync.Mutex
	sweeper sweeper.Sweeper // no-op until an entry with an object key shows up
	started bool
	closed  bool
}

func New(ctx context.Context, cfg *config.Cache, signer gateway.Signer, logger *slog.Logger, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg.AdjustConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger,
		clock:   clock.New(),
		journal: journal.New(),
		sweeper: sweeper.NoOpSweeper{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.store = store.New(s.clock)
	s.minter = minter.New(ctx, &cfg.Signing, logger, s.clock, signer, s.store)
	s.Logger = telemetry.New(ctx, cfg, logger, s.clock, s)

	return s
}

// Attach replaces the session entries and mints a URL for every entry with an object key.
// It blocks until every mint finished. Failures are not reported: such entries come back
// without a URL and are retried by the next sweep or an on-demand refresh.
func (s *Session) Attach(ctx context.Context, entries []model.Entry) []model.Entry {
	loaded := make([]model.Entry, len(entries))
	for i, e := range entries {
		e.URL = ""
		loaded[i] = e
	}
	if s.isClosed() {
		return loaded
	}
	s.journal.Replace(loaded)
	s.store.Retain(s.journal.ObjectKeys())

	keyed := s.journal.Keyed()
	if len(keyed) == 0 {
		s.logger.Info("entries attached", "total", len(loaded), "keyed", 0)
		return s.journal.Snapshot()
	}

	results := make([]model.Result, len(keyed))

	var g errgroup.Group
	g.SetLimit(max(s.cfg.Attach.Concurrency, 1))
	for i, e := range keyed {
		g.Go(func() error {
			results[i] = s.minter.Mint(ctx, e.ObjectKey)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	keys := make([]string, 0, len(keyed))
	for i, res := range results {
		if res.Outcome == model.Failed {
			failed++
		}
		keys = append(keys, keyed[i].ObjectKey)
		s.dropUnreferenced(keyed[i].ObjectKey)
	}
	s.publish(keys...)
	s.startSweeper()

	s.logger.Info("entries attached", "total", len(loaded), "keyed", len(keyed), "failed", failed)
	return s.journal.Snapshot()
}

// Add inserts a newly created entry in front of the others and mints its URL right away.
// An entry with a known id is replaced in place.
func (s *Session) Add(ctx context.Context, entry model.Entry) model.Entry {
	entry.URL = ""
	if s.isClosed() {
		return entry
	}
	prev, existed := s.journal.Get(entry.ID)
	s.journal.Upsert(entry)
	if existed && prev.ObjectKey != entry.ObjectKey {
		s.dropUnreferenced(prev.ObjectKey)
	}

	if entry.HasObjectKey() {
		s.minter.Mint(ctx, entry.ObjectKey)
		s.settle(entry.ObjectKey)
		s.startSweeper()
	}

	e, _ := s.journal.Get(entry.ID)
	return e
}

// Remove drops the entry. The cached URL of its key goes too once no entry references it.
func (s *Session) Remove(id string) bool {
	e, ok := s.journal.Remove(id)
	if !ok {
		return false
	}
	s.dropUnreferenced(e.ObjectKey)
	return true
}

func (s *Session) dropUnreferenced(objectKey string) {
	s.journal.DropIfUnreferenced(objectKey, func() { s.store.Delete(objectKey) })
}

// publish writes the cached URL of each key into every entry referencing it.
func (s *Session) publish(objectKeys ...string) int {
	return s.journal.Apply(s.store.Updates(objectKeys...))
}

// settle runs after a mint of objectKey: the record is dropped when the entries referencing
// the key went away meanwhile, otherwise the entries sharing the key get its URL.
func (s *Session) settle(objectKey string) {
	s.dropUnreferenced(objectKey)
	s.publish(objectKey)
}

// Refresh renews the URL of one entry now, typically after the display layer failed to load
// its image. A refresh already in flight for the entry makes this call a no-op.
func (s *Session) Refresh(ctx context.Context, id string) model.Result {
	e, ok := s.journal.Get(id)
	if !ok {
		return model.Result{Outcome: model.Skipped, Err: ErrEntryNotFound}
	}

	res := s.minter.TryRefresh(ctx, e.ID, e.ObjectKey)
	if res.Outcome == model.Refreshed {
		s.settle(e.ObjectKey)
	}
	return res
}

// Sweep runs one expiry sweep immediately. It is a no-op until an entry with an object key
// was attached, or when sweeping is disabled.
func (s *Session) Sweep(ctx context.Context) SweepReport {
	return s.currentSweeper().Sweep(ctx)
}

func (s *Session) Entries() []model.Entry {
	return s.journal.Snapshot()
}

func (s *Session) Entry(id string) (model.Entry, bool) {
	return s.journal.Get(id)
}

// URL returns the cached URL of the object key.
func (s *Session) URL(objectKey string) (string, bool) {
	return s.store.Get(objectKey)
}

func (s *Session) Metrics() model.Stats {
	calls, refreshed, failures, deferred, stale := s.minter.Metrics()
	sweeps, idle, due, swRefreshed, swFailed, swDeferred := s.currentSweeper().Metrics()

	return model.Stats{
		Entries:  s.journal.Len(),
		Keyed:    len(s.journal.Keyed()),
		Records:  s.store.Len(),
		InFlight: s.minter.InFlight(),

		Calls:     calls,
		Refreshed: refreshed,
		Failures:  failures,
		Deferred:  deferred,
		Stale:     stale,

		Sweeps:         sweeps,
		IdleSweeps:     idle,
		SweepDue:       due,
		SweepRefreshed: swRefreshed,
		SweepFailed:    swFailed,
		SweepDeferred:  swDeferred,
	}
}

// Close stops the background workers and drops every cached URL. Safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sw := s.sweeper
	s.mu.Unlock()

	s.cancel()
	_ = sw.Close()
	_ = s.Logger.Close()

	s.minter.Close()
	s.store.Clear()
	s.journal.Clear()

	s.logger.Info("session closed")
	return nil
}

// startSweeper launches the sweeper once, the first time an entry with an object key is present.
func (s *Session) startSweeper() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed || !s.cfg.Sweep.Enabled() {
		return
	}
	s.sweeper = sweeper.New(s.ctx, s.cfg.Sweep, s.logger, s.clock, s.minter, s.store, s.journal)
	s.started = true
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) currentSweeper() sweeper.Sweeper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeper
}
