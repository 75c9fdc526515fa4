package positions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/logger"
	"github.com/wonny/dugout/backend/pkg/redis"
)

// assignmentTTL bounds how long a resolved assignment outlives the
// process that computed it.
const assignmentTTL = 12 * time.Hour

// AssignmentStore shares resolved assignments across processes.
// *redis.Cache satisfies it.
type AssignmentStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Config holds resolver thresholds
type Config struct {
	EligibilityThreshold int    // games at a position before it is model-eligible
	DefaultPosition      string // fallback for players with no history
}

// HintSource supplies a listed position for players without tagged history
// (the ESPN depth chart scraper implements this).
type HintSource interface {
	PositionHint(ctx context.Context, playerID contracts.PlayerID) (string, error)
}

// Resolver assigns players to position groups from historical tag counts
// ⭐ SSOT: 포지션 판정은 여기서만
type Resolver struct {
	timelines contracts.TimelineProvider
	hints     HintSource      // optional
	store     AssignmentStore // optional, second cache tier
	cfg       Config
	logger    *logger.Logger

	mu    sync.RWMutex
	cache map[contracts.PlayerID]contracts.PositionAssignment
}

// NewResolver creates a resolver. hints may be nil.
func NewResolver(timelines contracts.TimelineProvider, hints HintSource, cfg Config, log *logger.Logger) *Resolver {
	return &Resolver{
		timelines: timelines,
		hints:     hints,
		cfg:       cfg,
		logger:    log.WithField("module", "positions"),
		cache:     make(map[contracts.PlayerID]contracts.PositionAssignment),
	}
}

// WithStore adds a shared cache tier behind the in-memory map, so the API
// server and the scheduler agree on assignments between ingestions.
func (r *Resolver) WithStore(store AssignmentStore) *Resolver {
	r.store = store
	return r
}

// Resolve tallies position tags over the player's full available history.
// The result is cached until Invalidate is called after new ingestion.
func (r *Resolver) Resolve(ctx context.Context, playerID contracts.PlayerID) (contracts.PositionAssignment, error) {
	r.mu.RLock()
	cached, ok := r.cache[playerID]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if r.store != nil {
		var stored contracts.PositionAssignment
		hit, err := r.store.Get(ctx, redis.PositionKey(int64(playerID)), &stored)
		if err != nil {
			r.logger.WithError(err).WithField("player_id", playerID).Debug("Assignment store read failed")
		}
		if hit {
			r.mu.Lock()
			r.cache[playerID] = stored
			r.mu.Unlock()
			return stored, nil
		}
	}

	tl, err := r.timelines.Timeline(ctx, playerID)
	if err != nil {
		return contracts.PositionAssignment{}, fmt.Errorf("load timeline: %w", err)
	}

	assignment := r.assignFrom(ctx, playerID, tl)

	r.mu.Lock()
	r.cache[playerID] = assignment
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Set(ctx, redis.PositionKey(int64(playerID)), assignment, assignmentTTL); err != nil {
			r.logger.WithError(err).WithField("player_id", playerID).Debug("Assignment store write failed")
		}
	}

	return assignment, nil
}

// ResolveAsOf tallies only tags from games strictly before the cutoff.
// Used inside leakage-sensitive computations; never cached, because the
// answer depends on the cutoff.
func (r *Resolver) ResolveAsOf(ctx context.Context, playerID contracts.PlayerID, asOf contracts.EventTime) (contracts.PositionAssignment, error) {
	tl, err := r.timelines.Timeline(ctx, playerID)
	if err != nil {
		return contracts.PositionAssignment{}, fmt.Errorf("load timeline: %w", err)
	}

	var prior contracts.Timeline
	for _, g := range tl {
		if g.Time().Before(asOf) {
			prior = append(prior, g)
		}
	}

	return r.assignFrom(ctx, playerID, prior), nil
}

// AssignFromHistory derives an assignment from an explicit prior window.
// Callers already holding the timeline (the dataset builder walks one
// prefix per row) use this to skip the load. Never cached.
func (r *Resolver) AssignFromHistory(ctx context.Context, playerID contracts.PlayerID, prior contracts.Timeline) contracts.PositionAssignment {
	return r.assignFrom(ctx, playerID, prior)
}

// Invalidate drops the cached assignment after new games arrive
func (r *Resolver) Invalidate(playerID contracts.PlayerID) {
	r.mu.Lock()
	delete(r.cache, playerID)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Delete(context.Background(), redis.PositionKey(int64(playerID))); err != nil {
			r.logger.WithError(err).WithField("player_id", playerID).Debug("Assignment store delete failed")
		}
	}
}

// assignFrom derives the assignment from a tag tally
func (r *Resolver) assignFrom(ctx context.Context, playerID contracts.PlayerID, tl contracts.Timeline) contracts.PositionAssignment {
	counts := make(map[string]int)
	for _, g := range tl {
		for _, tag := range g.Positions {
			counts[Normalize(tag)]++
		}
	}

	assignment := contracts.PositionAssignment{
		PlayerID: playerID,
		Counts:   counts,
	}

	if len(counts) == 0 {
		assignment.Primary = r.fallback(ctx, playerID)
		return assignment
	}

	// Primary: highest count, ties broken by lexicographically smallest tag
	for tag, count := range counts {
		if assignment.Primary == "" ||
			count > counts[assignment.Primary] ||
			(count == counts[assignment.Primary] && tag < assignment.Primary) {
			assignment.Primary = tag
		}
	}

	for tag, count := range counts {
		if count >= r.cfg.EligibilityThreshold {
			assignment.Eligible = append(assignment.Eligible, tag)
		}
	}
	sort.Strings(assignment.Eligible)

	return assignment
}

// fallback answers for players with no tagged history: depth chart hint
// first, configured default last.
func (r *Resolver) fallback(ctx context.Context, playerID contracts.PlayerID) string {
	if r.hints != nil {
		hint, err := r.hints.PositionHint(ctx, playerID)
		if err == nil && hint != "" {
			r.logger.WithFields(map[string]interface{}{
				"player_id": playerID,
				"position":  hint,
			}).Debug("Using depth chart position hint")
			return Normalize(hint)
		}
		if err != nil {
			r.logger.WithError(err).WithField("player_id", playerID).Debug("Position hint lookup failed")
		}
	}
	return r.cfg.DefaultPosition
}

// Normalize collapses outfield sub-positions into the OF group
func Normalize(tag string) string {
	switch tag {
	case "LF", "CF", "RF":
		return "OF"
	default:
		return tag
	}
}
