// Package metrics exports the session counters to prometheus.
package metrics

import (
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ashurl"

// Source exposes the cumulative session counters.
type Source interface {
	Metrics() model.Stats
}

type Collector struct {
	source Source

	entries  *prometheus.Desc
	records  *prometheus.Desc
	inFlight *prometheus.Desc
	mints    *prometheus.Desc
	deferred *prometheus.Desc
	stale    *prometheus.Desc
	sweeps   *prometheus.Desc
	swept    *prometheus.Desc
}

func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		entries: prometheus.NewDesc(namespace+"_entries",
			"Entries in the session by whether they carry an image.", []string{"image"}, nil),
		records: prometheus.NewDesc(namespace+"_cached_urls",
			"Signed URLs held by the cache.", nil, nil),
		inFlight: prometheus.NewDesc(namespace+"_refreshes_in_flight",
			"Refreshes currently waiting on the signing gateway.", nil, nil),
		mints: prometheus.NewDesc(namespace+"_mints_total",
			"Signing gateway calls by result.", []string{"result"}, nil),
		deferred: prometheus.NewDesc(namespace+"_refreshes_deferred_total",
			"Refreshes skipped because one for the same entry was in flight.", nil, nil),
		stale: prometheus.NewDesc(namespace+"_mints_superseded_total",
			"Minted URLs discarded because a later issuance was already cached.", nil, nil),
		sweeps: prometheus.NewDesc(namespace+"_sweeps_total",
			"Expiry sweeps by kind.", []string{"kind"}, nil),
		swept: prometheus.NewDesc(namespace+"_swept_entries_total",
			"Entries handled by expiry sweeps by outcome.", []string{"outcome"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.records
	ch <- c.inFlight
	ch <- c.mints
	ch <- c.deferred
	ch <- c.stale
	ch <- c.sweeps
	ch <- c.swept
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Metrics()

	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Keyed), "yes")
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Entries-s.Keyed), "no")
	ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(s.Records))
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(s.InFlight))

	ch <- prometheus.MustNewConstMetric(c.mints, prometheus.CounterValue, float64(s.Refreshed), "ok")
	ch <- prometheus.MustNewConstMetric(c.mints, prometheus.CounterValue, float64(s.Failures), "error")
	ch <- prometheus.MustNewConstMetric(c.deferred, prometheus.CounterValue, float64(s.Deferred))
	ch <- prometheus.MustNewConstMetric(c.stale, prometheus.CounterValue, float64(s.Stale))

	ch <- prometheus.MustNewConstMetric(c.sweeps, prometheus.CounterValue, float64(s.Sweeps-s.IdleSweeps), "active")
	ch <- prometheus.MustNewConstMetric(c.sweeps, prometheus.CounterValue, float64(s.IdleSweeps), "idle")
	ch <- prometheus.MustNewConstMetric(c.swept, prometheus.CounterValue, float64(s.SweepRefreshed), "refreshed")
	ch <- prometheus.MustNewConstMetric(c.swept, prometheus.CounterValue, float64(s.SweepFailed), "failed")
	ch <- prometheus.MustNewConstMetric(c.swept, prometheus.CounterValue, float64(s.SweepDeferred), "deferred")
}
