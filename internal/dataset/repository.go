package dataset

import (
	"context"
	"fmt"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/database"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// RunRepository persists dataset run summaries to PostgreSQL.
type RunRepository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewRunRepository(db *database.DB, logger *logger.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// SaveSummary inserts one run's outcome counts.
func (r *RunRepository) SaveSummary(ctx context.Context, s contracts.RunSummary) error {
	query := `
		INSERT INTO dataset_runs (
			started_at, finished_at, players_processed,
			cold_started, excluded, ingest_failures, leakage_violations
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		s.StartedAt, s.FinishedAt, s.PlayersProcessed,
		s.ColdStarted, s.Excluded, s.IngestFailures, s.LeakageViolations,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}
	return nil
}

// RecentSummaries returns the latest run summaries, newest first.
func (r *RunRepository) RecentSummaries(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	query := `
		SELECT started_at, finished_at, players_processed,
		       cold_started, excluded, ingest_failures, leakage_violations
		FROM dataset_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run summaries: %w", err)
	}
	defer rows.Close()

	var summaries []contracts.RunSummary
	for rows.Next() {
		var s contracts.RunSummary
		if err := rows.Scan(
			&s.StartedAt, &s.FinishedAt, &s.PlayersProcessed,
			&s.ColdStarted, &s.Excluded, &s.IngestFailures, &s.LeakageViolations,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
