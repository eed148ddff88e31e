package ashurl

import (
	"context"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/Borislavv/go-ash-urlcache/internal/minter"
	"github.com/Borislavv/go-ash-urlcache/internal/sweeper"
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/Borislavv/go-ash-urlcache/tests/help"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const timeout, tick = 5 * time.Second, 5 * time.Millisecond

func newSession(t *testing.T, cfg *config.Cache, signer *help.Signer) (*Session, *clock.Mock) {
	clk := clock.NewMock()
	s := New(context.Background(), cfg, signer, help.Logger(), WithClock(clk))
	t.Cleanup(func() { _ = s.Close() })
	return s, clk
}

// TestSession_Attach_MintsKeyedEntriesConcurrently issues one call per keyed entry, in parallel,
// and leaves the entry without a key alone (scenario 4).
func TestSession_Attach_MintsKeyedEntriesConcurrently(t *testing.T) {
	var (
		barrier    sync.WaitGroup
		concurrent atomic.Int64
	)
	barrier.Add(2)
	signer := help.NewSigner()
	signer.Hook = func(int64, string) {
		barrier.Done()
		met := make(chan struct{})
		go func() { barrier.Wait(); close(met) }()
		select {
		case <-met:
			concurrent.Add(1)
		case <-time.After(time.Second):
		}
	}
	s, _ := newSession(t, help.Cfg(), signer)

	out := s.Attach(context.Background(), []model.Entry{
		{ID: "E1", ObjectKey: "u/1.jpg"},
		{ID: "E2", ObjectKey: "u/2.jpg"},
		{ID: "E3"},
	})

	require.Equal(t, int64(2), signer.Calls())
	require.Equal(t, int64(2), concurrent.Load(), "both calls were in flight together")
	require.Len(t, out, 3)
	require.NotEmpty(t, out[0].URL)
	require.NotEmpty(t, out[1].URL)
	require.Empty(t, out[2].URL)

	url, ok := s.URL("u/1.jpg")
	require.True(t, ok)
	require.Equal(t, out[0].URL, url)

	stats := s.Metrics()
	require.Equal(t, 3, stats.Entries)
	require.Equal(t, 2, stats.Keyed)
	require.Equal(t, int64(2), stats.Records)
}

// TestSession_Attach_FailureLeavesURLAbsent swallows a gateway failure and does not retry on its own (scenario 2).
func TestSession_Attach_FailureLeavesURLAbsent(t *testing.T) {
	signer := help.NewSigner()
	signer.Fail("u/2.jpg")
	s, _ := newSession(t, help.Cfg(), signer)

	out := s.Attach(context.Background(), []model.Entry{{ID: "E2", ObjectKey: "u/2.jpg"}})
	require.Len(t, out, 1)
	require.Empty(t, out[0].URL)
	_, ok := s.URL("u/2.jpg")
	require.False(t, ok)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, signer.CallsFor("u/2.jpg"), "no retry before the next sweep or on-demand call")
	require.Equal(t, int64(1), s.Metrics().Failures)

	signer.Recover("u/2.jpg")
	res := s.Refresh(context.Background(), "E2")
	require.Equal(t, model.Refreshed, res.Outcome)

	e, _ := s.Entry("E2")
	require.Equal(t, res.URL, e.URL)
}

// TestSession_Attach_NoKeys_NoSweeper never calls the gateway nor starts the sweeper (scenario 5).
func TestSession_Attach_NoKeys_NoSweeper(t *testing.T) {
	signer := help.NewSigner()
	s, clk := newSession(t, help.Cfg(), signer)

	s.Attach(context.Background(), []model.Entry{{ID: "E1"}, {ID: "E2"}})
	clk.Add(time.Hour)

	require.Equal(t, int64(0), signer.Calls())
	require.IsType(t, sweeper.NoOpSweeper{}, s.currentSweeper())
	require.Equal(t, sweeper.Report{}, s.Sweep(context.Background()))
}

// TestSession_SweepRenewsBeforeExpiry drives the sweeper with the clock (scenario 1).
func TestSession_SweepRenewsBeforeExpiry(t *testing.T) {
	signer := help.NewSigner()
	s, clk := newSession(t, help.Cfg(), signer)
	start := clk.Now()

	s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "k1"}})
	first, _ := s.Entry("E1")

	// 94 ticks, the last at T=84600: remaining 1800s, nothing due
	clk.Add(84600 * time.Second)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int64(1), signer.Calls())

	// ticks at T=85500 and T=86400 see the record within the buffer
	clk.Set(start.Add(85900 * time.Second))
	clk.Add(500 * time.Second)

	require.Eventually(t, func() bool {
		e, _ := s.Entry("E1")
		return e.URL != first.URL
	}, timeout, tick)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int64(2), signer.Calls(), "renewed exactly once")
}

// TestSession_Refresh_RenewsOnDemand writes the new URL into the entry.
func TestSession_Refresh_RenewsOnDemand(t *testing.T) {
	signer := help.NewSigner()
	s, clk := newSession(t, help.NoSweepCfg(), signer)

	s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "k1"}, {ID: "E2"}})
	before, _ := s.Entry("E1")

	clk.Add(time.Hour)
	res := s.Refresh(context.Background(), "E1")
	require.Equal(t, model.Refreshed, res.Outcome)
	require.Equal(t, clk.Now().Add(24*time.Hour), res.ExpiresAt)

	after, _ := s.Entry("E1")
	require.NotEqual(t, before.URL, after.URL)
	require.Equal(t, res.URL, after.URL)

	require.Equal(t, model.Skipped, s.Refresh(context.Background(), "E2").Outcome)
	missing := s.Refresh(context.Background(), "nope")
	require.ErrorIs(t, missing.Err, ErrEntryNotFound)
	require.Equal(t, int64(2), signer.Calls())
}

// TestSession_Refresh_DefersWhileInFlight issues one call for two rapid refreshes.
func TestSession_Refresh_DefersWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	signer := help.NewSigner()
	s, _ := newSession(t, help.NoSweepCfg(), signer)
	s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "k1"}})

	signer.Hook = func(call int64, _ string) {
		if call == 2 {
			close(started)
			<-release
		}
	}

	done := make(chan model.Result)
	go func() { done <- s.Refresh(context.Background(), "E1") }()
	<-started

	require.Equal(t, model.Deferred, s.Refresh(context.Background(), "E1").Outcome)
	close(release)
	require.Equal(t, model.Refreshed, (<-done).Outcome)
	require.Equal(t, int64(2), signer.Calls())
}

// TestSession_Add_MintsAndStartsSweeper mints a created entry at once and puts it first.
func TestSession_Add_MintsAndStartsSweeper(t *testing.T) {
	signer := help.NewSigner()
	s, _ := newSession(t, help.Cfg(), signer)
	s.Attach(context.Background(), []model.Entry{{ID: "E1"}})
	require.IsType(t, sweeper.NoOpSweeper{}, s.currentSweeper())

	e := s.Add(context.Background(), model.Entry{ID: "E2", ObjectKey: "k2", URL: "https://forged"})
	require.NotEqual(t, "https://forged", e.URL)
	require.NotEmpty(t, e.URL)
	require.Equal(t, "E2", s.Entries()[0].ID)
	require.IsType(t, &sweeper.SweepWorker{}, s.currentSweeper())

	plain := s.Add(context.Background(), model.Entry{ID: "E3"})
	require.Empty(t, plain.URL)
	require.Equal(t, int64(1), signer.Calls())
}

// TestSession_Remove_DropsUnreferencedRecord keeps a shared record until its last entry is gone.
func TestSession_Remove_DropsUnreferencedRecord(t *testing.T) {
	signer := help.NewSigner()
	s, _ := newSession(t, help.Cfg(), signer)
	s.Attach(context.Background(), []model.Entry{
		{ID: "E1", ObjectKey: "shared"},
		{ID: "E2", ObjectKey: "shared"},
	})

	require.True(t, s.Remove("E1"))
	_, ok := s.URL("shared")
	require.True(t, ok)

	require.True(t, s.Remove("E2"))
	_, ok = s.URL("shared")
	require.False(t, ok)

	require.False(t, s.Remove("E2"))
}

// TestSession_Attach_DropsRecordsOfGoneKeys forgets keys no longer present after a re-attach.
func TestSession_Attach_DropsRecordsOfGoneKeys(t *testing.T) {
	signer := help.NewSigner()
	s, _ := newSession(t, help.Cfg(), signer)

	s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "a"}, {ID: "E2", ObjectKey: "b"}})
	s.Attach(context.Background(), []model.Entry{{ID: "E2", ObjectKey: "b"}})

	_, ok := s.URL("a")
	require.False(t, ok)
	_, ok = s.URL("b")
	require.True(t, ok)
	require.Equal(t, int64(1), s.Metrics().Records)
}

// TestSession_ObjectDedup_SharedKeyAttachedOnce coalesces concurrent mints of one key.
func TestSession_ObjectDedup_SharedKeyAttachedOnce(t *testing.T) {
	release := make(chan struct{})
	signer := help.NewSigner()
	signer.Hook = func(int64, string) { <-release }
	s, _ := newSession(t, help.ObjectDedupCfg(), signer)

	done := make(chan []model.Entry)
	go func() {
		done <- s.Attach(context.Background(), []model.Entry{
			{ID: "E1", ObjectKey: "shared"},
			{ID: "E2", ObjectKey: "shared"},
		})
	}()
	require.Eventually(t, func() bool { return signer.Calls() == 1 }, timeout, tick)
	time.Sleep(50 * time.Millisecond)
	close(release)

	out := <-done
	require.Equal(t, out[0].URL, out[1].URL)
	require.Equal(t, int64(1), signer.Calls())
}

// TestSession_Close cancels workers, drops the cache and is idempotent.
func TestSession_Close(t *testing.T) {
	signer := help.NewSigner()
	s, clk := newSession(t, help.Cfg(), signer)
	s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "k1"}})

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := s.URL("k1")
	require.False(t, ok)
	require.Empty(t, s.Entries())

	clk.Add(48 * time.Hour)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int64(1), signer.Calls())

	added := s.Add(context.Background(), model.Entry{ID: "E9", ObjectKey: "k9"})
	require.Empty(t, added.URL)
	require.Empty(t, s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "k1"}})[0].URL)
	require.Equal(t, int64(1), signer.Calls(), "a closed session never calls the gateway")
	require.Empty(t, s.Entries())
	require.Equal(t, int64(0), s.Metrics().Records)
}

// TestSession_Refresh_SharedKeyUpdatesEveryEntry shows the renewed URL in all entries
// referencing the key, not only in the refreshed one.
func TestSession_Refresh_SharedKeyUpdatesEveryEntry(t *testing.T) {
	signer := help.NewSigner()
	s, clk := newSession(t, help.NoSweepCfg(), signer)
	s.Attach(context.Background(), []model.Entry{
		{ID: "A", ObjectKey: "k"},
		{ID: "B", ObjectKey: "k"},
	})

	clk.Add(12 * time.Hour)
	res := s.Refresh(context.Background(), "B")
	require.Equal(t, model.Refreshed, res.Outcome)

	cached, ok := s.URL("k")
	require.True(t, ok)
	for _, id := range []string{"A", "B"} {
		e, _ := s.Entry(id)
		require.Equal(t, cached, e.URL, id)
	}
}

// TestSession_Remove_DuringRefreshDropsRecord does not keep the URL of an entry removed
// while its refresh was waiting on the gateway.
func TestSession_Remove_DuringRefreshDropsRecord(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	signer := help.NewSigner()
	s, _ := newSession(t, help.NoSweepCfg(), signer)
	s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "k"}})

	signer.Hook = func(call int64, _ string) {
		if call == 2 {
			close(started)
			<-release
		}
	}

	done := make(chan model.Result, 1)
	go func() { done <- s.Refresh(context.Background(), "E1") }()
	<-started

	require.True(t, s.Remove("E1"))
	close(release)
	require.Equal(t, model.Refreshed, (<-done).Outcome)

	_, ok := s.URL("k")
	require.False(t, ok)
	require.Equal(t, int64(0), s.Metrics().Records)
}

// TestSession_Close_DuringRefreshCommitsNothing leaves the cache empty when a refresh
// returns from the gateway after Close.
func TestSession_Close_DuringRefreshCommitsNothing(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	signer := help.NewSigner()
	s, _ := newSession(t, help.NoSweepCfg(), signer)
	s.Attach(context.Background(), []model.Entry{{ID: "E1", ObjectKey: "k"}})

	signer.Hook = func(call int64, _ string) {
		if call == 2 {
			close(started)
			<-release
		}
	}

	done := make(chan model.Result, 1)
	go func() { done <- s.Refresh(context.Background(), "E1") }()
	<-started

	require.NoError(t, s.Close())
	close(release)

	res := <-done
	require.Equal(t, model.Failed, res.Outcome)
	require.ErrorIs(t, res.Err, minter.ErrClosed)

	_, ok := s.URL("k")
	require.False(t, ok)
	require.Equal(t, int64(0), s.Metrics().Records)
	require.Empty(t, s.Entries())
}
