package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/ingest"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// PlayerLister yields the slate of players to refresh.
type PlayerLister interface {
	ListPlayers(ctx context.Context) ([]contracts.PlayerID, error)
}

// RefreshJob re-ingests the current season's game logs every night,
// after west coast games have finished.
// ⭐ SSOT: 야간 수집 스케줄은 이 Job에서만
type RefreshJob struct {
	collector *ingest.Collector
	players   PlayerLister
	logger    *logger.Logger
}

func NewRefreshJob(collector *ingest.Collector, players PlayerLister, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		collector: collector,
		players:   players,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "gamelog_refresh"
}

// Schedule returns the cron schedule (every day at 5 AM ET)
func (j *RefreshJob) Schedule() string {
	return "0 0 5 * * *"
}

// Run executes the nightly refresh
func (j *RefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting nightly game log refresh")

	playerIDs, err := j.players.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(playerIDs) == 0 {
		j.logger.Warn("No players to refresh")
		return nil
	}

	season := contracts.Season(currentSeason(time.Now()))
	summary := j.collector.CollectSeason(ctx, playerIDs, season)
	if summary.Failed == summary.Total {
		return fmt.Errorf("refresh failed for all %d players", summary.Total)
	}

	j.logger.WithFields(map[string]interface{}{
		"season":  int(season),
		"success": summary.Success,
		"failed":  summary.Failed,
	}).Info("Nightly game log refresh completed")
	return nil
}

// currentSeason maps a date to its MLB season: January and February
// belong to the previous year's season.
func currentSeason(now time.Time) int {
	if now.Month() < time.March {
		return now.Year() - 1
	}
	return now.Year()
}
