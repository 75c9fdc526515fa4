package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/pkg/logger"
)

type stubFeatureService struct {
	vectors []contracts.FeatureVector
	err     error
	gotDate time.Time
}

func (s *stubFeatureService) GetFeatures(_ context.Context, _ contracts.PlayerID, asOf time.Time) ([]contracts.FeatureVector, error) {
	s.gotDate = asOf
	return s.vectors, s.err
}

type stubResolver struct {
	assignment contracts.PositionAssignment
}

func (s *stubResolver) Resolve(_ context.Context, _ contracts.PlayerID) (contracts.PositionAssignment, error) {
	return s.assignment, nil
}

func newFeatureRouter(svc FeatureService, res PositionResolver) http.Handler {
	h := NewFeatureHandler(svc, res, logger.NewNop())
	r := mux.NewRouter()
	r.HandleFunc("/api/players/{playerID}/features", h.GetFeatures).Methods("GET")
	r.HandleFunc("/api/players/{playerID}/position", h.GetPosition).Methods("GET")
	return r
}

func TestGetFeatures_OK(t *testing.T) {
	svc := &stubFeatureService{vectors: []contracts.FeatureVector{
		{PlayerID: 660271, Position: "OF", Names: []string{"trend"}, Values: []float64{0.4}},
	}}
	router := newFeatureRouter(svc, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/players/660271/features?as_of=2025-08-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), svc.gotDate)

	var body struct {
		AsOf     string                    `json:"as_of"`
		Features []contracts.FeatureVector `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2025-08-01", body.AsOf)
	require.Len(t, body.Features, 1)
	assert.Equal(t, "OF", body.Features[0].Position)
}

func TestGetFeatures_ColdStart(t *testing.T) {
	svc := &stubFeatureService{err: &contracts.ColdStartError{PlayerID: 5, Have: 2, Need: 10}}
	router := newFeatureRouter(svc, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/players/5/features", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["cold_start"])
}

func TestGetFeatures_BadInput(t *testing.T) {
	router := newFeatureRouter(&stubFeatureService{}, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/players/abc/features", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/players/5/features?as_of=08-01-2025", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPosition(t *testing.T) {
	res := &stubResolver{assignment: contracts.PositionAssignment{
		PlayerID: 5, Primary: "SS", Eligible: []string{"OF", "SS"},
	}}
	router := newFeatureRouter(&stubFeatureService{}, res)

	req := httptest.NewRequest(http.MethodGet, "/api/players/5/position", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got contracts.PositionAssignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "SS", got.Primary)
	assert.Equal(t, []string{"OF", "SS"}, got.Eligible)
}
