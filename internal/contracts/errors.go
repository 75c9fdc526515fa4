package contracts

import (
	"errors"
	"fmt"
)

// IngestionError reports an upstream acquisition failure after retries and
// stale-cache fallback were exhausted.
type IngestionError struct {
	PlayerID  PlayerID
	Season    Season
	Reason    string
	Retriable bool
	Err       error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for player %d season %d: %s (retriable=%v)",
		e.PlayerID, e.Season, e.Reason, e.Retriable)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// ColdStartError is not a defect: the player has fewer prior games than the
// configured minimum history. Callers substitute the declared position-wide
// default instead of zero-filling.
type ColdStartError struct {
	PlayerID PlayerID
	Have     int
	Need     int
}

func (e *ColdStartError) Error() string {
	return fmt.Sprintf("cold start for player %d: %d prior games, need %d", e.PlayerID, e.Have, e.Need)
}

// IsColdStart reports whether err is a cold start
func IsColdStart(err error) bool {
	var cs *ColdStartError
	return errors.As(err, &cs)
}

// Violation is one leakage audit finding for a feature row
type Violation struct {
	PlayerID   PlayerID  `json:"player_id"`
	AsOfIndex  int       `json:"as_of_index"`
	Stored     EventTime `json:"stored"`
	Recomputed EventTime `json:"recomputed"`
	LabelTime  EventTime `json:"label_time"`
	Reason     string    `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("player %d as_of %d: %s (stored=%s recomputed=%s label=%s)",
		v.PlayerID, v.AsOfIndex, v.Reason, v.Stored, v.Recomputed, v.LabelTime)
}

// LeakageError aborts a run: at least one feature row consumed data at or
// after its label event. Never downgraded to a warning.
type LeakageError struct {
	Violations []Violation
}

func (e *LeakageError) Error() string {
	return fmt.Sprintf("leakage audit failed: %d violation(s)", len(e.Violations))
}

// ErrSplitInfeasible marks a player with too few post-cold-start games to
// fill one full split. The player is excluded; the run continues.
var ErrSplitInfeasible = errors.New("not enough post-cold-start games for a full split")
