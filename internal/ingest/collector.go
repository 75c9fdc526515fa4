package ingest

import (
	"context"
	"sync"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// Collector drives bulk ingestion across a slate of players with a
// bounded worker pool. One player's failure never stops the run; the
// summary carries the aggregate counts.
// ⭐ SSOT: 대량 수집 오케스트레이션은 여기서만
type Collector struct {
	fetcher *Fetcher
	workers int
	logger  *logger.Logger
}

// FetchResult is the per-player outcome of a collection run.
type FetchResult struct {
	PlayerID contracts.PlayerID
	Games    int
	Error    error
}

// CollectionSummary aggregates one run.
type CollectionSummary struct {
	Total   int
	Success int
	Failed  int
	Results []FetchResult
}

func NewCollector(fetcher *Fetcher, workers int, log *logger.Logger) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		fetcher: fetcher,
		workers: workers,
		logger:  log.WithField("module", "collector"),
	}
}

// CollectSeason fetches one season's game logs for every given player.
func (c *Collector) CollectSeason(ctx context.Context, playerIDs []contracts.PlayerID, season contracts.Season) CollectionSummary {
	c.logger.WithFields(map[string]interface{}{
		"players": len(playerIDs),
		"season":  int(season),
		"workers": c.workers,
	}).Info("Starting game log collection")

	playerCh := make(chan contracts.PlayerID, len(playerIDs))
	resultCh := make(chan FetchResult, len(playerIDs))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx, playerCh, resultCh, season)
		}()
	}

	for _, id := range playerIDs {
		playerCh <- id
	}
	close(playerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	summary := CollectionSummary{Total: len(playerIDs)}
	for result := range resultCh {
		summary.Results = append(summary.Results, result)
		if result.Error != nil {
			summary.Failed++
		} else {
			summary.Success++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"total":   summary.Total,
		"success": summary.Success,
		"failed":  summary.Failed,
	}).Info("Game log collection completed")

	return summary
}

func (c *Collector) worker(ctx context.Context, playerCh <-chan contracts.PlayerID, resultCh chan<- FetchResult, season contracts.Season) {
	for id := range playerCh {
		select {
		case <-ctx.Done():
			resultCh <- FetchResult{PlayerID: id, Error: ctx.Err()}
			return
		default:
		}

		tl, err := c.fetcher.Fetch(ctx, id, season)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"player_id": id,
				"season":    int(season),
			}).WithError(err).Warn("Failed to fetch player game logs")
			resultCh <- FetchResult{PlayerID: id, Error: err}
			continue
		}
		resultCh <- FetchResult{PlayerID: id, Games: len(tl)}
	}
}
