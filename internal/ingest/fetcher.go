package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/positions"
	"github.com/wonny/dugout/backend/internal/scoring"
	"github.com/wonny/dugout/backend/pkg/config"
	"github.com/wonny/dugout/backend/pkg/logger"
	"github.com/wonny/dugout/backend/pkg/redis"
)

// Source fetches game logs from the upstream stats provider.
type Source interface {
	FetchGameLogs(ctx context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, error)
}

// Store is the durable game log store, also the stale fallback when the
// upstream is down.
type Store interface {
	SaveTimeline(ctx context.Context, playerID contracts.PlayerID, season contracts.Season, tl contracts.Timeline, fetchedAt time.Time) error
	GetTimeline(ctx context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, time.Time, error)
}

// Invalidator drops derived caches after new raw data lands.
type Invalidator interface {
	Invalidate(playerID contracts.PlayerID)
}

// Fetcher is the only component touching the upstream API. Concurrent
// calls for the same (player, season) collapse into one outbound
// request; all outbound traffic shares the source's rate limiter.
// ⭐ SSOT: 수집 파이프라인 진입점은 여기서만
type Fetcher struct {
	source      Source
	store       Store
	cache       *redis.Cache
	invalidator Invalidator
	group       singleflight.Group
	cfg         config.IngestConfig
	logger      *logger.Logger
}

func NewFetcher(source Source, store Store, cache *redis.Cache, invalidator Invalidator, cfg config.IngestConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		source:      source,
		store:       store,
		cache:       cache,
		invalidator: invalidator,
		cfg:         cfg,
		logger:      log.WithField("module", "fetcher"),
	}
}

// Fetch returns the game log timeline for one (player, season), from the
// fastest source that has a fresh copy: Redis, then the durable store
// within the cache TTL, then the upstream API. Upstream failure falls
// back to stale stored data when any exists.
func (f *Fetcher) Fetch(ctx context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, error) {
	key := fmt.Sprintf("%d:%d", playerID, season)
	v, err, _ := f.group.Do(key, func() (interface{}, error) {
		return f.fetch(ctx, playerID, season)
	})
	if err != nil {
		return nil, err
	}
	return v.(contracts.Timeline), nil
}

func (f *Fetcher) fetch(ctx context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, error) {
	cacheKey := redis.TimelineKey(int64(playerID), int(season))

	var cached contracts.Timeline
	if hit, err := f.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	stored, fetchedAt, storeErr := f.store.GetTimeline(ctx, playerID, season)
	if storeErr == nil && time.Since(fetchedAt) < f.cfg.CacheTTL {
		if err := f.cache.Set(ctx, cacheKey, stored, f.cfg.CacheTTL); err != nil {
			f.logger.WithError(err).Debug("Failed to rewarm timeline cache")
		}
		return stored, nil
	}

	tl, err := f.fetchUpstream(ctx, playerID, season)
	if err != nil {
		if storeErr == nil {
			f.logger.WithFields(map[string]interface{}{
				"player_id":  playerID,
				"season":     int(season),
				"fetched_at": fetchedAt.Format(time.RFC3339),
			}).WithError(err).Warn("Upstream fetch failed, serving stale stored data")
			return stored, nil
		}
		return nil, err
	}

	if err := f.store.SaveTimeline(ctx, playerID, season, tl, time.Now()); err != nil {
		f.logger.WithError(err).Warn("Failed to persist fetched timeline")
	}
	if err := f.cache.Set(ctx, cacheKey, tl, f.cfg.CacheTTL); err != nil {
		f.logger.WithError(err).Debug("Failed to cache fetched timeline")
	}
	if f.invalidator != nil {
		// New raw data: derived position assignments are stale now
		f.invalidator.Invalidate(playerID)
	}

	return tl, nil
}

// fetchUpstream retries the source with exponential backoff, stopping
// early on non-retriable errors.
func (f *Fetcher) fetchUpstream(ctx context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, error) {
	delay := f.cfg.RetryInitialDelay
	var lastErr error

	for attempt := 1; attempt <= f.cfg.RetryMaxAttempts; attempt++ {
		tl, err := f.source.FetchGameLogs(ctx, playerID, season)
		if err == nil {
			if err := sanitize(tl); err != nil {
				return nil, &contracts.IngestionError{
					PlayerID: playerID, Season: season,
					Reason: "rejected upstream data", Retriable: false, Err: err,
				}
			}
			return tl, nil
		}
		lastErr = err

		var ingErr *contracts.IngestionError
		if errors.As(err, &ingErr) && !ingErr.Retriable {
			return nil, err
		}

		if attempt < f.cfg.RetryMaxAttempts {
			f.logger.WithFields(map[string]interface{}{
				"player_id": playerID,
				"attempt":   attempt,
				"delay_ms":  delay.Milliseconds(),
			}).WithError(err).Warn("Upstream fetch failed, retrying")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}
	return nil, lastErr
}

// sanitize enforces the ingestion boundary: ordered events, no
// duplicates, only schema stats.
func sanitize(tl contracts.Timeline) error {
	if err := tl.Validate(); err != nil {
		return err
	}
	for i, g := range tl {
		class := scoring.ClassBatter
		if len(g.Positions) > 0 && scoring.ClassFor(positions.Normalize(g.Positions[0])) == scoring.ClassPitcher {
			class = scoring.ClassPitcher
		}
		if err := scoring.ValidateStats(g.Stats, class); err != nil {
			return fmt.Errorf("game %d: %w", i, err)
		}
	}
	return nil
}
