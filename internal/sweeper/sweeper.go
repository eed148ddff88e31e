// Package sweeper renews signed URLs before they expire.
// Every interval it selects the keyed entries whose record is within the renewal buffer,
// refreshes them concurrently through the single-flight guard and writes the cached URL
// of every swept key back to all entries sharing it in one batch.
package sweeper

import (
	"context"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/Borislavv/go-ash-urlcache/internal/store"
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"sync"
)

type Sweeper interface {
	Sweep(ctx context.Context) Report
	Metrics() (sweeps, idle, due, refreshed, failed, deferred int64)
	Close() error
}

// Refresher renews the URL of one entry, skipping it while another refresh for it runs.
type Refresher interface {
	TryRefresh(ctx context.Context, id, objectKey string) model.Result
}

// Source provides the entries to sweep and receives the renewed URLs, keyed by object key.
type Source interface {
	Keyed() []model.Entry
	Apply(updates map[string]model.URLUpdate) int
	DropIfUnreferenced(objectKey string, drop func()) bool
}

// Report summarizes one sweep.
type Report struct {
	Due       int
	Refreshed int
	Failed    int
	Deferred  int
	Applied   int
}

type SweepWorker struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.SweepCfg
	logger    *slog.Logger
	clock     clock.Clock
	ticker    *clock.Ticker
	refresher Refresher
	store     *store.Store
	source    Source
	counters  *sweeperCounters
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(
	ctx context.Context,
	cfg *config.SweepCfg,
	logger *slog.Logger,
	clk clock.Clock,
	refresher Refresher,
	store *store.Store,
	source Source,
) Sweeper {
	if !cfg.Enabled() {
		return NoOpSweeper{}
	}

	ctx, cancel := context.WithCancel(ctx)

	return (&SweepWorker{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		logger:    logger,
		clock:     clk,
		ticker:    clk.Ticker(cfg.Interval),
		refresher: refresher,
		store:     store,
		source:    source,
		counters:  newSweeperCounters(),
	}).run()
}

func (w *SweepWorker) Metrics() (sweeps, idle, due, refreshed, failed, deferred int64) {
	return w.counters.snapshot()
}

// Close stops the ticker, cancels running sweeps and waits for them to return.
func (w *SweepWorker) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.ticker.Stop()
		w.wg.Wait()
	})
	return nil
}

func (w *SweepWorker) run() *SweepWorker {
	w.logger.Info("sweeper is running",
		"interval", w.cfg.Interval.String(),
		"buffer", w.cfg.Buffer.String(),
		"concurrency", w.cfg.Concurrency,
	)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.logger.Info("sweeper is stopped")
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-w.ticker.C:
				// a slow sweep must not hold back the next tick
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					w.Sweep(w.ctx)
				}()
			}
		}
	}()

	return w
}

// Sweep runs one pass over the keyed entries and blocks until every due refresh finished.
func (w *SweepWorker) Sweep(ctx context.Context) Report {
	w.counters.sweeps.Add(1)

	entries := w.source.Keyed()
	if len(entries) == 0 {
		w.counters.idle.Add(1)
		return Report{}
	}

	due := entries[:0:0]
	for _, e := range entries {
		if w.store.ExpiresWithin(e.ObjectKey, w.cfg.Buffer) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return Report{}
	}
	w.counters.due.Add(int64(len(due)))

	results := make([]model.Result, len(due))

	var g errgroup.Group
	g.SetLimit(max(w.cfg.Concurrency, 1))
	for i, e := range due {
		g.Go(func() error {
			results[i] = w.refresher.TryRefresh(ctx, e.ID, e.ObjectKey)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Due: len(due)}
	keys := make([]string, 0, len(due))
	for i, res := range results {
		switch res.Outcome {
		case model.Refreshed:
			report.Refreshed++
		case model.Failed:
			report.Failed++
		case model.Deferred:
			report.Deferred++
		}
		objectKey := due[i].ObjectKey
		keys = append(keys, objectKey)
		w.source.DropIfUnreferenced(objectKey, func() { w.store.Delete(objectKey) })
	}
	report.Applied = w.source.Apply(w.store.Updates(keys...))

	w.counters.refreshed.Add(int64(report.Refreshed))
	w.counters.failed.Add(int64(report.Failed))
	w.counters.deferred.Add(int64(report.Deferred))

	w.logger.Debug("sweep finished",
		"due", report.Due,
		"refreshed", report.Refreshed,
		"failed", report.Failed,
		"deferred", report.Deferred,
		"applied", report.Applied,
	)
	return report
}
