package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// FeatureService is the serving boundary consumed by the API layer.
type FeatureService interface {
	GetFeatures(ctx context.Context, playerID contracts.PlayerID, asOfDate time.Time) ([]contracts.FeatureVector, error)
}

// PositionResolver answers current position assignments.
type PositionResolver interface {
	Resolve(ctx context.Context, playerID contracts.PlayerID) (contracts.PositionAssignment, error)
}

// FeatureHandler handles feature-serving API endpoints
// ⭐ SSOT: 피처 API 핸들러는 이 구조체에서만
type FeatureHandler struct {
	service  FeatureService
	resolver PositionResolver
	logger   *logger.Logger
}

// NewFeatureHandler creates a new feature handler
func NewFeatureHandler(service FeatureService, resolver PositionResolver, log *logger.Logger) *FeatureHandler {
	return &FeatureHandler{
		service:  service,
		resolver: resolver,
		logger:   log,
	}
}

// GetFeatures returns point-in-time feature vectors for a player
// GET /api/players/{playerID}/features?as_of=YYYY-MM-DD
func (h *FeatureHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := playerIDFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	vectors, err := h.service.GetFeatures(ctx, playerID, asOf)
	if err != nil {
		if contracts.IsColdStart(err) {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"player_id":  playerID,
				"cold_start": true,
				"detail":     err.Error(),
			})
			return
		}
		h.logger.WithError(err).WithField("player_id", playerID).Error("Failed to compute features")
		respondError(w, http.StatusInternalServerError, "Failed to compute features")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": playerID,
		"as_of":     asOf.Format("2006-01-02"),
		"features":  vectors,
	})
}

// GetPosition returns a player's position assignment
// GET /api/players/{playerID}/position
func (h *FeatureHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := playerIDFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	assignment, err := h.resolver.Resolve(ctx, playerID)
	if err != nil {
		h.logger.WithError(err).WithField("player_id", playerID).Error("Failed to resolve position")
		respondError(w, http.StatusInternalServerError, "Failed to resolve position")
		return
	}

	respondJSON(w, http.StatusOK, assignment)
}

func playerIDFrom(r *http.Request) (contracts.PlayerID, bool) {
	raw := mux.Vars(r)["playerID"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return contracts.PlayerID(id), true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
