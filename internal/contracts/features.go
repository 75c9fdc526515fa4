package contracts

import "time"

// WindowSpec configures the historical windows for one position group
type WindowSpec struct {
	LongWindow  int `json:"long_window"`
	ShortWindow int `json:"short_window"`
	MinHistory  int `json:"min_history"`
}

// FeatureRow is one point-in-time feature vector for a player.
// Invariant: MaxSource is strictly before the event at AsOfIndex; no
// attribute of the as-of game itself ever enters Vector or MaxSource.
// ⭐ SSOT: 학습/추론 입력 행은 이 타입으로만 전달
type FeatureRow struct {
	PlayerID    PlayerID  `json:"player_id"`
	Position    string    `json:"position"`
	AsOfIndex   int       `json:"as_of_index"`
	Vector      []float64 `json:"vector"`
	Label       float64   `json:"label"` // fantasy points of the as-of game
	MaxSource   EventTime `json:"max_source"`
	PrefixHash  string    `json:"prefix_hash"` // content hash of the consumed timeline prefix
	SpecVersion string    `json:"spec_version"`
}

// FeatureVector is the serving-boundary output: a named vector with its
// provenance. Raw game logs never cross this boundary.
type FeatureVector struct {
	PlayerID  PlayerID  `json:"player_id"`
	Position  string    `json:"position"`
	Names     []string  `json:"names"`
	Values    []float64 `json:"values"`
	AsOfDate  time.Time `json:"as_of_date"`
	ColdStart bool      `json:"cold_start"` // true when position-wide defaults substituted
}

// RunSummary aggregates one pipeline run's outcome counts
type RunSummary struct {
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	PlayersProcessed  int       `json:"players_processed"`
	ColdStarted       int       `json:"cold_started"`
	Excluded          int       `json:"excluded"`
	IngestFailures    int       `json:"ingest_failures"`
	LeakageViolations int       `json:"leakage_violations"`
}
