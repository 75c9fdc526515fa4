package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/config"
	"github.com/wonny/dugout/backend/pkg/logger"
	"github.com/wonny/dugout/backend/pkg/redis"
)

type stubSource struct {
	calls    int64
	failures int64 // fail this many leading calls
	err      error
	delay    time.Duration
	timeline contracts.Timeline
}

func (s *stubSource) FetchGameLogs(_ context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, error) {
	n := atomic.AddInt64(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if n <= s.failures {
		return nil, s.err
	}
	return s.timeline, nil
}

type memStore struct {
	mu        sync.Mutex
	tl        contracts.Timeline
	fetchedAt time.Time
	has       bool
	saves     int
}

func (m *memStore) SaveTimeline(_ context.Context, _ contracts.PlayerID, _ contracts.Season, tl contracts.Timeline, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tl, m.fetchedAt, m.has = tl, fetchedAt, true
	m.saves++
	return nil
}

func (m *memStore) GetTimeline(_ context.Context, _ contracts.PlayerID, _ contracts.Season) (contracts.Timeline, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return nil, time.Time{}, errors.New("no rows")
	}
	return m.tl, m.fetchedAt, nil
}

type countingInvalidator struct {
	calls int64
}

func (c *countingInvalidator) Invalidate(contracts.PlayerID) {
	atomic.AddInt64(&c.calls, 1)
}

func gameOn(day int) contracts.GameLog {
	return contracts.GameLog{
		PlayerID:  1,
		Season:    2025,
		Date:      time.Date(2025, 7, day, 0, 0, 0, 0, time.UTC),
		Positions: []string{"SS"},
		Stats:     map[string]float64{"at_bats": 4, "hits": 1},
	}
}

func disabledCache() *redis.Cache {
	client, _ := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	return redis.NewCache(client, "dugout-test")
}

func newFetcherFixture(source Source, store Store, inv Invalidator) *Fetcher {
	return NewFetcher(source, store, disabledCache(), inv, config.IngestConfig{
		CacheTTL:          time.Hour,
		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
	}, logger.NewNop())
}

func TestFetch_ConcurrentCallersShareOneFlight(t *testing.T) {
	source := &stubSource{
		timeline: contracts.Timeline{gameOn(1), gameOn(2)},
		delay:    30 * time.Millisecond,
	}
	f := newFetcherFixture(source, &memStore{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tl, err := f.Fetch(context.Background(), 1, 2025)
			assert.NoError(t, err)
			assert.Len(t, tl, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&source.calls), "concurrent fetches of one key must collapse into a single outbound request")
}

func TestFetch_FreshStoreSkipsUpstream(t *testing.T) {
	source := &stubSource{timeline: contracts.Timeline{gameOn(1)}}
	store := &memStore{tl: contracts.Timeline{gameOn(1), gameOn(2), gameOn(3)}, fetchedAt: time.Now(), has: true}
	f := newFetcherFixture(source, store, nil)

	tl, err := f.Fetch(context.Background(), 1, 2025)
	require.NoError(t, err)
	assert.Len(t, tl, 3)
	assert.Zero(t, atomic.LoadInt64(&source.calls))
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	source := &stubSource{
		timeline: contracts.Timeline{gameOn(1)},
		failures: 2,
		err:      &contracts.IngestionError{PlayerID: 1, Season: 2025, Reason: "upstream 503", Retriable: true},
	}
	inv := &countingInvalidator{}
	store := &memStore{}
	f := newFetcherFixture(source, store, inv)

	tl, err := f.Fetch(context.Background(), 1, 2025)
	require.NoError(t, err)
	assert.Len(t, tl, 1)
	assert.Equal(t, int64(3), atomic.LoadInt64(&source.calls))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, int64(1), atomic.LoadInt64(&inv.calls), "new data must invalidate derived caches")
}

func TestFetch_NonRetriableStopsImmediately(t *testing.T) {
	source := &stubSource{
		failures: 10,
		err:      &contracts.IngestionError{PlayerID: 1, Season: 2025, Reason: "player not found", Retriable: false},
	}
	f := newFetcherFixture(source, &memStore{}, nil)

	_, err := f.Fetch(context.Background(), 1, 2025)
	require.Error(t, err)

	var ingErr *contracts.IngestionError
	require.ErrorAs(t, err, &ingErr)
	assert.False(t, ingErr.Retriable)
	assert.Equal(t, int64(1), atomic.LoadInt64(&source.calls))
}

func TestFetch_StaleFallbackWhenUpstreamDown(t *testing.T) {
	source := &stubSource{
		failures: 10,
		err:      &contracts.IngestionError{PlayerID: 1, Season: 2025, Reason: "upstream down", Retriable: true},
	}
	stale := contracts.Timeline{gameOn(1), gameOn(2)}
	store := &memStore{tl: stale, fetchedAt: time.Now().Add(-48 * time.Hour), has: true}
	f := newFetcherFixture(source, store, nil)

	tl, err := f.Fetch(context.Background(), 1, 2025)
	require.NoError(t, err, "stale data beats no data")
	assert.Equal(t, stale, tl)
	assert.Equal(t, int64(3), atomic.LoadInt64(&source.calls), "upstream was still retried to exhaustion")
}

func TestFetch_RejectsMalformedUpstreamData(t *testing.T) {
	dup := gameOn(5)
	source := &stubSource{timeline: contracts.Timeline{dup, dup}}
	f := newFetcherFixture(source, &memStore{}, nil)

	_, err := f.Fetch(context.Background(), 1, 2025)
	require.Error(t, err)

	var ingErr *contracts.IngestionError
	require.ErrorAs(t, err, &ingErr)
	assert.False(t, ingErr.Retriable)
	assert.Equal(t, int64(1), atomic.LoadInt64(&source.calls), "bad data must not be retried")
}

func TestSanitize_UnknownStat(t *testing.T) {
	g := gameOn(1)
	g.Stats["launch_angle"] = 12.5
	assert.Error(t, sanitize(contracts.Timeline{g}))
}

func TestCollector_FailuresDoNotAbortRun(t *testing.T) {
	source := &stubSource{
		timeline: contracts.Timeline{gameOn(1)},
		failures: 1,
		err:      &contracts.IngestionError{PlayerID: 1, Season: 2025, Reason: "not found", Retriable: false},
	}
	f := newFetcherFixture(source, &memStore{}, nil)
	c := NewCollector(f, 4, logger.NewNop())

	summary := c.CollectSeason(context.Background(), []contracts.PlayerID{10, 20, 30}, 2025)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Results, 3)
}
