package positions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/logger"
	"github.com/wonny/dugout/backend/pkg/redis"
)

type stubTimelines struct {
	timelines map[contracts.PlayerID]contracts.Timeline
}

func (s *stubTimelines) Timeline(_ context.Context, id contracts.PlayerID) (contracts.Timeline, error) {
	return s.timelines[id], nil
}

type stubHints struct {
	hint string
	err  error
}

func (s *stubHints) PositionHint(context.Context, contracts.PlayerID) (string, error) {
	return s.hint, s.err
}

func gameAt(day int, tags ...string) contracts.GameLog {
	return contracts.GameLog{
		Season:    2025,
		Date:      time.Date(2025, 4, day, 0, 0, 0, 0, time.UTC),
		Positions: tags,
		Stats:     map[string]float64{},
	}
}

func newTestResolver(tl contracts.Timeline, hints HintSource, threshold int) *Resolver {
	return NewResolver(
		&stubTimelines{timelines: map[contracts.PlayerID]contracts.Timeline{1: tl}},
		hints,
		Config{EligibilityThreshold: threshold, DefaultPosition: "OF"},
		logger.NewNop(),
	)
}

func TestResolve_PrimaryAndEligible(t *testing.T) {
	var tl contracts.Timeline
	for day := 1; day <= 20; day++ {
		tl = append(tl, gameAt(day, "SS"))
	}
	for day := 21; day <= 25; day++ {
		tl = append(tl, gameAt(day, "2B"))
	}

	r := newTestResolver(tl, nil, 20)

	got, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "SS", got.Primary)
	assert.Equal(t, []string{"SS"}, got.Eligible, "2B has only 5 games, below threshold")
	assert.Equal(t, 20, got.Counts["SS"])
	assert.Equal(t, 5, got.Counts["2B"])
}

func TestResolve_TieBreaksLexicographically(t *testing.T) {
	var tl contracts.Timeline
	for day := 1; day <= 10; day++ {
		tl = append(tl, gameAt(day, "SS"))
	}
	for day := 11; day <= 20; day++ {
		tl = append(tl, gameAt(day, "2B"))
	}

	r := newTestResolver(tl, nil, 5)

	got, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "2B", got.Primary, "equal counts break to lexicographically smallest")
	assert.Equal(t, []string{"2B", "SS"}, got.Eligible)
}

func TestResolve_OutfieldNormalization(t *testing.T) {
	tl := contracts.Timeline{
		gameAt(1, "LF"),
		gameAt(2, "CF"),
		gameAt(3, "RF"),
		gameAt(4, "CF"),
	}

	r := newTestResolver(tl, nil, 3)

	got, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "OF", got.Primary)
	assert.Equal(t, 4, got.Counts["OF"])
	assert.Equal(t, []string{"OF"}, got.Eligible)
}

func TestResolve_EmptyHistoryFallsBackToHintThenDefault(t *testing.T) {
	r := newTestResolver(nil, &stubHints{hint: "1B"}, 20)
	got, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "1B", got.Primary)
	assert.Empty(t, got.Eligible)

	r = newTestResolver(nil, &stubHints{err: errors.New("page not found")}, 20)
	got, err = r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "OF", got.Primary, "hint failure falls through to configured default")
}

func TestResolveAsOf_IgnoresFutureTagEvidence(t *testing.T) {
	var tl contracts.Timeline
	// 10 games at SS, then a position change to 1B for 30 games
	for day := 1; day <= 10; day++ {
		tl = append(tl, gameAt(day, "SS"))
	}
	for day := 11; day <= 28; day++ {
		tl = append(tl, gameAt(day, "1B"))
	}

	r := newTestResolver(tl, nil, 5)

	// Full-history view: 1B dominates
	full, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "1B", full.Primary)

	// As of day 11, only the SS games existed
	cutoff := contracts.EventTime{Date: time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC)}
	asOf, err := r.ResolveAsOf(context.Background(), 1, cutoff)
	require.NoError(t, err)
	assert.Equal(t, "SS", asOf.Primary)
	assert.Zero(t, asOf.Counts["1B"], "future tags must not leak into the as-of tally")
}

type memAssignmentStore struct {
	entries map[string][]byte
	sets    int
	deletes int
}

func newMemAssignmentStore() *memAssignmentStore {
	return &memAssignmentStore{entries: make(map[string][]byte)}
}

func (m *memAssignmentStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	data, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memAssignmentStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	m.sets++
	return nil
}

func (m *memAssignmentStore) Delete(_ context.Context, key string) error {
	delete(m.entries, key)
	m.deletes++
	return nil
}

type failingTimelines struct{}

func (failingTimelines) Timeline(context.Context, contracts.PlayerID) (contracts.Timeline, error) {
	return nil, errors.New("store unavailable")
}

func TestResolve_SharedStoreSurvivesProcessRestart(t *testing.T) {
	tl := contracts.Timeline{gameAt(1, "C"), gameAt(2, "C")}
	store := newMemAssignmentStore()

	r := newTestResolver(tl, nil, 2).WithStore(store)
	got, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Primary)
	assert.Equal(t, 1, store.sets)
	assert.Contains(t, store.entries, redis.PositionKey(1))

	// A fresh resolver with no working timeline source still answers
	// from the shared store.
	r2 := NewResolver(failingTimelines{}, nil, Config{EligibilityThreshold: 2, DefaultPosition: "OF"}, logger.NewNop()).WithStore(store)
	got, err = r2.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Primary)
	assert.Equal(t, 1, store.sets, "a store hit writes nothing back")

	// Invalidation clears both tiers; the broken source now surfaces.
	r2.Invalidate(1)
	assert.Equal(t, 1, store.deletes)
	_, err = r2.Resolve(context.Background(), 1)
	require.Error(t, err)
}

func TestResolve_CacheInvalidation(t *testing.T) {
	stub := &stubTimelines{timelines: map[contracts.PlayerID]contracts.Timeline{
		1: {gameAt(1, "C"), gameAt(2, "C")},
	}}
	r := NewResolver(stub, nil, Config{EligibilityThreshold: 2, DefaultPosition: "OF"}, logger.NewNop())

	got, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Primary)

	// New ingestion changes the history; cached answer holds until invalidated
	stub.timelines[1] = contracts.Timeline{gameAt(1, "DH"), gameAt(2, "DH"), gameAt(3, "DH")}

	got, err = r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Primary)

	r.Invalidate(1)
	got, err = r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "DH", got.Primary)
}
