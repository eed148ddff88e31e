// Package telemetry periodically logs per-interval deltas of the session counters.
package telemetry

import (
	"context"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/benbjohnson/clock"
	"log/slog"
	"sync"
	"time"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Source exposes the cumulative session counters.
type Source interface {
	Metrics() model.Stats
}

type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.TelemetryCfg
	logger   *slog.Logger
	clock    clock.Clock
	source   Source
	interval time.Duration
	sweeping bool
	done     sync.WaitGroup
}

func New(
	ctx context.Context,
	cfg *config.Cache,
	logger *slog.Logger,
	clk clock.Clock,
	source Source,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)

	var interval time.Duration
	if cfg.Telemetry.Enabled() {
		interval = cfg.Telemetry.Interval
	}

	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg.Telemetry,
		logger:   logger,
		clock:    clk,
		source:   source,
		interval: interval,
		sweeping: cfg.Sweep.Enabled(),
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	l.done.Wait()
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg.Enabled() && l.interval > 0 {
		ticker := l.clock.Ticker(l.interval)
		l.done.Add(1)
		go func() {
			defer l.done.Done()
			defer ticker.Stop()
			l.loop(ticker.C)
		}()
	}
	return l
}

func (l *Logs) loop(tick <-chan time.Time) {
	prev := sample(l.source.Metrics())

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-tick:
			stats := l.source.Metrics()
			cur := sample(stats)
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			l.logger.Info("signer",
				append(common,
					"calls", int64(d.calls),
					"refreshed", int64(d.refreshed),
					"failures", int64(d.failures),
					"deferred", int64(d.deferred),
					"stale", int64(d.stale),
				)...,
			)

			if l.sweeping {
				l.logger.Info("sweeper",
					append(common,
						"sweeps", int64(d.sweeps),
						"idle", int64(d.idleSweeps),
						"due", int64(d.sweepDue),
						"refreshed", int64(d.sweepRefreshed),
						"failed", int64(d.sweepFailed),
						"deferred", int64(d.sweepDeferred),
					)...,
				)
			}

			l.logger.Info("storage",
				append(common,
					"entries", stats.Entries,
					"keyed", stats.Keyed,
					"records", stats.Records,
					"in_flight", stats.InFlight,
				)...,
			)
		}
	}
}
