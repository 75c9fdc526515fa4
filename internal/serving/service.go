package serving

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/features"
	"github.com/wonny/dugout/backend/internal/positions"
	"github.com/wonny/dugout/backend/pkg/config"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// Service is the only entrypoint external callers may use. Raw game
// logs never leave this boundary; callers see named feature vectors.
// ⭐ SSOT: 외부 제공 피처는 여기서만 생성
type Service struct {
	timelines contracts.TimelineProvider
	resolver  *positions.Resolver
	computer  *features.Computer
	defaults  *features.PositionDefaults
	serving   config.ServingConfig
	blend     float64
	logger    *logger.Logger
}

func NewService(
	timelines contracts.TimelineProvider,
	resolver *positions.Resolver,
	computer *features.Computer,
	defaults *features.PositionDefaults,
	serving config.ServingConfig,
	blend float64,
	log *logger.Logger,
) *Service {
	return &Service{
		timelines: timelines,
		resolver:  resolver,
		computer:  computer,
		defaults:  defaults,
		serving:   serving,
		blend:     blend,
		logger:    log.WithField("module", "serving"),
	}
}

// GetFeatures computes point-in-time feature vectors for a player as of
// a date: one vector for the primary position, or one per eligible
// position when configured. Players still in cold start get the
// position-wide default, blended with their partial history when a
// blend weight is set.
func (s *Service) GetFeatures(ctx context.Context, playerID contracts.PlayerID, asOfDate time.Time) ([]contracts.FeatureVector, error) {
	tl, err := s.timelines.Timeline(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}

	// Only games strictly before the date may contribute
	asOfIndex := 0
	for _, g := range tl {
		if !g.Date.Before(asOfDate) {
			break
		}
		asOfIndex++
	}

	asOf := contracts.EventTime{Date: asOfDate}
	assignment, err := s.resolver.ResolveAsOf(ctx, playerID, asOf)
	if err != nil {
		return nil, fmt.Errorf("resolve position: %w", err)
	}

	targets := []string{assignment.Primary}
	if s.serving.AllEligible && len(assignment.Eligible) > 0 {
		targets = assignment.Eligible
	}

	out := make([]contracts.FeatureVector, 0, len(targets))
	for _, position := range targets {
		fv, err := s.featuresFor(tl, playerID, position, asOfIndex, asOfDate)
		if err != nil {
			return nil, err
		}
		out = append(out, fv)
	}
	return out, nil
}

func (s *Service) featuresFor(tl contracts.Timeline, playerID contracts.PlayerID, position string, asOfIndex int, asOfDate time.Time) (contracts.FeatureVector, error) {
	spec := s.computer.Specs().For(position)
	fv := contracts.FeatureVector{
		PlayerID: playerID,
		Position: position,
		Names:    features.Names(position, spec),
		AsOfDate: asOfDate,
	}

	values, err := s.computer.VectorAt(tl, position, asOfIndex)
	if err == nil {
		fv.Values = values
		return fv, nil
	}
	if !contracts.IsColdStart(err) {
		return contracts.FeatureVector{}, err
	}

	def, ok := s.defaults.Get(position)
	if !ok {
		// No position average exists yet either, nothing usable to serve
		return contracts.FeatureVector{}, err
	}

	partial := s.computer.PartialVector(tl, position, asOfIndex)
	fv.Values = features.Blend(partial, def, s.blend)
	fv.ColdStart = true

	s.logger.WithFields(map[string]interface{}{
		"player_id": playerID,
		"position":  position,
		"history":   asOfIndex,
	}).Debug("Served position default for cold start player")
	return fv, nil
}

// Models holds trained predictors per position for score serving.
type Models struct {
	mu         sync.RWMutex
	predictors map[string]contracts.Predictor
}

func NewModels() *Models {
	return &Models{predictors: make(map[string]contracts.Predictor)}
}

func (m *Models) Register(position string, p contracts.Predictor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictors[position] = p
}

// Predict scores a feature vector with the position's predictor.
func (m *Models) Predict(position string, values []float64) (float64, error) {
	m.mu.RLock()
	p, ok := m.predictors[position]
	m.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("no trained model for position %s", position)
	}
	return p.Predict(values)
}
