package metrics

import (
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

type staticSource model.Stats

func (s staticSource) Metrics() model.Stats { return model.Stats(s) }

// TestCollector_Collect exports the session counters.
func TestCollector_Collect(t *testing.T) {
	c := NewCollector(staticSource{
		Entries: 5, Keyed: 3, Records: 2, InFlight: 1,
		Refreshed: 10, Failures: 2, Deferred: 4, Stale: 1,
		Sweeps: 7, IdleSweeps: 3, SweepRefreshed: 6, SweepFailed: 1, SweepDeferred: 2,
	})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	require.Equal(t, 13, testutil.CollectAndCount(c))

	expected := `
# HELP ashurl_mints_total Signing gateway calls by result.
# TYPE ashurl_mints_total counter
ashurl_mints_total{result="error"} 2
ashurl_mints_total{result="ok"} 10
# HELP ashurl_sweeps_total Expiry sweeps by kind.
# TYPE ashurl_sweeps_total counter
ashurl_sweeps_total{kind="active"} 4
ashurl_sweeps_total{kind="idle"} 3
# HELP ashurl_entries Entries in the session by whether they carry an image.
# TYPE ashurl_entries gauge
ashurl_entries{image="no"} 2
ashurl_entries{image="yes"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"ashurl_mints_total", "ashurl_sweeps_total", "ashurl_entries"))
}
