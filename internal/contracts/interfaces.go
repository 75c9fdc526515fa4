package contracts

import "context"

// Predictor is an opaque trained model
// ⭐ SSOT: 모델 내부는 이 인터페이스 밖으로 노출되지 않음
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// Trainer consumes a feature matrix with labels for one position and
// returns a predictor. Training internals are not inspected.
type Trainer interface {
	Train(ctx context.Context, features [][]float64, labels []float64, position string) (Predictor, error)
}

// TimelineProvider yields the full ordered history for a player across
// all stored seasons.
type TimelineProvider interface {
	Timeline(ctx context.Context, playerID PlayerID) (Timeline, error)
}
