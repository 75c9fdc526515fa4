package dataset

import (
	"fmt"
	"math"

	"github.com/wonny/dugout/backend/internal/contracts"
)

// Class marks which partition a feature row landed in.
type Class string

const (
	ClassTrain    Class = "train"
	ClassTest     Class = "test"
	ClassExcluded Class = "excluded"
)

// Assignment records the split decision for one feature row. Fold is -1
// for rows outside any cross-validation fold.
type Assignment struct {
	PlayerID  contracts.PlayerID `json:"player_id"`
	AsOfIndex int                `json:"as_of_index"`
	Class     Class              `json:"class"`
	Fold      int                `json:"fold"`
}

// Fold is one walk-forward cross-validation window over a player's rows.
// Training rows are [0, TrainEnd), validation rows [ValStart, ValEnd).
// ValStart - TrainEnd is always at least the configured gap.
type Fold struct {
	Index    int `json:"index"`
	TrainEnd int `json:"train_end"`
	ValStart int `json:"val_start"`
	ValEnd   int `json:"val_end"`
}

// Chronological returns the boundary of the earliest-trainFraction
// training partition over n time-ordered rows: rows [0, boundary) train,
// rows [boundary, n) test. Rows are never shuffled; adjacency in time is
// the leakage boundary. Fewer than one row on either side is infeasible.
func Chronological(n int, trainFraction float64) (int, error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return 0, fmt.Errorf("train fraction %.2f outside (0, 1)", trainFraction)
	}
	if n < 2 {
		return 0, contracts.ErrSplitInfeasible
	}

	boundary := int(math.Floor(float64(n) * trainFraction))
	if boundary < 1 {
		boundary = 1
	}
	if boundary >= n {
		boundary = n - 1
	}
	return boundary, nil
}

// WalkForward slides a training end point forward across folds, keeping
// gap rows between each fold's last training row and its first
// validation row. The n rows are cut into folds+1 equal segments; fold k
// trains on everything before segment k+1 and validates inside it.
func WalkForward(n, folds, gap int) ([]Fold, error) {
	if folds < 1 {
		return nil, fmt.Errorf("fold count %d must be positive", folds)
	}
	if gap < 0 {
		return nil, fmt.Errorf("gap %d must not be negative", gap)
	}

	segment := n / (folds + 1)
	if segment < 1 {
		return nil, contracts.ErrSplitInfeasible
	}

	out := make([]Fold, 0, folds)
	for k := 0; k < folds; k++ {
		f := Fold{
			Index:    k,
			TrainEnd: segment * (k + 1),
			ValEnd:   segment * (k + 2),
		}
		if k == folds-1 {
			f.ValEnd = n
		}
		f.ValStart = f.TrainEnd + gap

		// The gap must never consume the whole validation window
		if f.ValStart >= f.ValEnd {
			return nil, contracts.ErrSplitInfeasible
		}
		out = append(out, f)
	}
	return out, nil
}

// SplitRows partitions one player's time-ordered feature rows into the
// chronological train/test partitions.
func SplitRows(rows []contracts.FeatureRow, trainFraction float64) (train, test []contracts.FeatureRow, err error) {
	for i := 1; i < len(rows); i++ {
		if rows[i].AsOfIndex <= rows[i-1].AsOfIndex {
			return nil, nil, fmt.Errorf("rows out of order at position %d", i)
		}
	}

	boundary, err := Chronological(len(rows), trainFraction)
	if err != nil {
		return nil, nil, err
	}
	return rows[:boundary], rows[boundary:], nil
}
