package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/ingest"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// GameLogCollector runs bulk ingestion for a slate of players.
type GameLogCollector interface {
	CollectSeason(ctx context.Context, playerIDs []contracts.PlayerID, season contracts.Season) ingest.CollectionSummary
}

// RunReader reads persisted dataset run summaries.
type RunReader interface {
	RecentSummaries(ctx context.Context, limit int) ([]contracts.RunSummary, error)
}

// IngestHandler handles ingestion and run bookkeeping endpoints
type IngestHandler struct {
	collector GameLogCollector
	runs      RunReader
	logger    *logger.Logger
}

func NewIngestHandler(collector GameLogCollector, runs RunReader, log *logger.Logger) *IngestHandler {
	return &IngestHandler{
		collector: collector,
		runs:      runs,
		logger:    log,
	}
}

// CollectRequest represents a bulk ingestion request
type CollectRequest struct {
	Season    int     `json:"season"`
	PlayerIDs []int64 `json:"player_ids"`
}

// Collect triggers game log collection for a slate of players
// POST /api/ingest/collect
func (h *IngestHandler) Collect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Season == 0 || len(req.PlayerIDs) == 0 {
		respondError(w, http.StatusBadRequest, "season and player_ids are required")
		return
	}

	ids := make([]contracts.PlayerID, 0, len(req.PlayerIDs))
	for _, id := range req.PlayerIDs {
		ids = append(ids, contracts.PlayerID(id))
	}

	summary := h.collector.CollectSeason(ctx, ids, contracts.Season(req.Season))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "completed",
		"total":   summary.Total,
		"success": summary.Success,
		"failed":  summary.Failed,
	})
}

// GetRuns returns recent dataset run summaries
// GET /api/runs?limit=20
func (h *IngestHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	summaries, err := h.runs.RecentSummaries(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load run summaries")
		respondError(w, http.StatusInternalServerError, "Failed to load run summaries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(summaries),
		"runs":  summaries,
	})
}
