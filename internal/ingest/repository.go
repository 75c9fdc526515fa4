package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/database"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// Repository is the durable game log store. It doubles as the stale
// fallback source when the upstream API is unreachable.
// ⭐ SSOT: game_logs 테이블 접근은 여기서만
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, logger: log.WithField("module", "ingest_repo")}
}

// SaveTimeline replaces the stored game log set for one (player, season)
// and records the ingestion time.
func (r *Repository) SaveTimeline(ctx context.Context, playerID contracts.PlayerID, season contracts.Season, tl contracts.Timeline, fetchedAt time.Time) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM game_logs WHERE player_id = $1 AND season = $2`,
		playerID, season,
	)
	if err != nil {
		return fmt.Errorf("clear old game logs: %w", err)
	}

	batch := &pgx.Batch{}
	for _, g := range tl {
		batch.Queue(
			`INSERT INTO game_logs (player_id, season, game_date, seq, positions, stats)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			g.PlayerID, g.Season, g.Date, g.Seq, g.Positions, g.Stats,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert game logs: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ingestions (player_id, season, fetched_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (player_id, season) DO UPDATE SET fetched_at = EXCLUDED.fetched_at`,
		playerID, season, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("record ingestion time: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"player_id": playerID,
		"season":    int(season),
		"games":     len(tl),
	}).Debug("Saved timeline")
	return nil
}

// GetTimeline loads one (player, season) game log set with its last
// ingestion time. A player never ingested returns pgx.ErrNoRows.
func (r *Repository) GetTimeline(ctx context.Context, playerID contracts.PlayerID, season contracts.Season) (contracts.Timeline, time.Time, error) {
	var fetchedAt time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT fetched_at FROM ingestions WHERE player_id = $1 AND season = $2`,
		playerID, season,
	).Scan(&fetchedAt)
	if err != nil {
		return nil, time.Time{}, err
	}

	tl, err := r.queryLogs(ctx,
		`SELECT player_id, season, game_date, seq, positions, stats
		 FROM game_logs
		 WHERE player_id = $1 AND season = $2
		 ORDER BY game_date, seq`,
		playerID, season,
	)
	if err != nil {
		return nil, time.Time{}, err
	}
	return tl, fetchedAt, nil
}

// Timeline returns a player's full multi-season history in event order.
func (r *Repository) Timeline(ctx context.Context, playerID contracts.PlayerID) (contracts.Timeline, error) {
	return r.queryLogs(ctx,
		`SELECT player_id, season, game_date, seq, positions, stats
		 FROM game_logs
		 WHERE player_id = $1
		 ORDER BY game_date, seq`,
		playerID,
	)
}

// ListPlayers returns every player with stored game logs.
func (r *Repository) ListPlayers(ctx context.Context) ([]contracts.PlayerID, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT player_id FROM game_logs ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var ids []contracts.PlayerID
	for rows.Next() {
		var id contracts.PlayerID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) queryLogs(ctx context.Context, query string, args ...interface{}) (contracts.Timeline, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query game logs: %w", err)
	}
	defer rows.Close()

	var tl contracts.Timeline
	for rows.Next() {
		var g contracts.GameLog
		if err := rows.Scan(&g.PlayerID, &g.Season, &g.Date, &g.Seq, &g.Positions, &g.Stats); err != nil {
			return nil, fmt.Errorf("scan game log: %w", err)
		}
		tl = append(tl, g)
	}
	return tl, rows.Err()
}
