package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dugout/backend/internal/contracts"
)

func TestChronological(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		fraction float64
		want     int
		wantErr  error
	}{
		{name: "standard 80/20", n: 100, fraction: 0.8, want: 80},
		{name: "rounds down", n: 11, fraction: 0.8, want: 8},
		{name: "always leaves a test row", n: 3, fraction: 0.9, want: 2},
		{name: "always leaves a train row", n: 3, fraction: 0.1, want: 1},
		{name: "single row infeasible", n: 1, fraction: 0.8, wantErr: contracts.ErrSplitInfeasible},
		{name: "empty infeasible", n: 0, fraction: 0.8, wantErr: contracts.ErrSplitInfeasible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boundary, err := Chronological(tt.n, tt.fraction)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, boundary)
		})
	}

	_, err := Chronological(10, 1.0)
	assert.Error(t, err, "fraction of 1 leaves no test rows")
}

func TestWalkForward_GapProperty(t *testing.T) {
	folds, err := WalkForward(60, 5, 2)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	prevTrainEnd := 0
	for _, f := range folds {
		assert.GreaterOrEqual(t, f.ValStart-f.TrainEnd, 2, "fold %d violates the gap", f.Index)
		assert.Less(t, f.ValStart, f.ValEnd, "fold %d has an empty validation window", f.Index)
		assert.Greater(t, f.TrainEnd, prevTrainEnd, "training end must move forward")
		prevTrainEnd = f.TrainEnd
	}
	assert.Equal(t, 60, folds[len(folds)-1].ValEnd, "last fold validates through the end")
}

func TestWalkForward_Infeasible(t *testing.T) {
	_, err := WalkForward(4, 5, 1)
	assert.ErrorIs(t, err, contracts.ErrSplitInfeasible)

	// Gap eats the whole validation segment
	_, err = WalkForward(12, 2, 6)
	assert.ErrorIs(t, err, contracts.ErrSplitInfeasible)

	_, err = WalkForward(10, 0, 1)
	assert.Error(t, err)
}

func TestSplitRows_OrderingProperty(t *testing.T) {
	rows := make([]contracts.FeatureRow, 0, 20)
	for i := 10; i < 30; i++ {
		rows = append(rows, contracts.FeatureRow{PlayerID: 1, AsOfIndex: i})
	}

	train, test, err := SplitRows(rows, 0.8)
	require.NoError(t, err)
	require.NotEmpty(t, train)
	require.NotEmpty(t, test)

	maxTrain := train[len(train)-1].AsOfIndex
	minTest := test[0].AsOfIndex
	assert.Less(t, maxTrain, minTest, "every train row must precede every test row")
	assert.Equal(t, len(rows), len(train)+len(test))
}

func TestSplitRows_RejectsUnordered(t *testing.T) {
	rows := []contracts.FeatureRow{
		{AsOfIndex: 12}, {AsOfIndex: 11},
	}
	_, _, err := SplitRows(rows, 0.8)
	assert.Error(t, err)
}
