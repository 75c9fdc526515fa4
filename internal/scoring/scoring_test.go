package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Batter(t *testing.T) {
	tests := []struct {
		name  string
		stats map[string]float64
		want  float64
	}{
		{
			name:  "empty line scores zero",
			stats: map[string]float64{},
			want:  0.0,
		},
		{
			name: "single only",
			stats: map[string]float64{
				"at_bats": 4, "hits": 1,
			},
			want: 3.0,
		},
		{
			name: "home run is not double counted as a single",
			stats: map[string]float64{
				"at_bats": 4, "hits": 1, "home_runs": 1,
			},
			want: 10.0,
		},
		{
			name: "mixed line",
			stats: map[string]float64{
				"at_bats": 5, "hits": 3, "doubles": 1, "home_runs": 1,
				"walks": 1, "runs": 2, "rbis": 1, "strikeouts": 1,
			},
			// singles=1 (3) + double (5) + HR (10) + walk (2) + runs (4)
			// + rbi (2) - K (1) = 25, plus combined_production bonus:
			// hits+runs+rbis = 6 >= 5 -> +2.5
			want: 27.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.stats, "SS")
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScore_Pitcher(t *testing.T) {
	tests := []struct {
		name  string
		stats map[string]float64
		want  float64
	}{
		{
			name: "quality start",
			stats: map[string]float64{
				"innings_pitched": 7, "strikeouts": 8, "wins": 1,
				"hits_allowed": 5, "walks_allowed": 2, "earned_runs": 2,
			},
			// 21 + 16 + 10 - 5 - 2 - 4 = 36
			want: 36.0,
		},
		{
			name: "blown outing",
			stats: map[string]float64{
				"innings_pitched": 3, "strikeouts": 2,
				"hits_allowed": 8, "walks_allowed": 4, "home_runs_allowed": 2, "earned_runs": 6,
			},
			// 9 + 4 - 8 - 4 - 8 - 12 = -19
			want: -19.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.stats, "P")
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScore_BonusTriggersExactlyOnce(t *testing.T) {
	// Constructed to hit the strikeout bonus threshold exactly
	stats := map[string]float64{
		"innings_pitched": 6, "strikeouts": 10,
	}
	// 18 + 20 = 38, bonus fires once: +5
	got := Score(stats, "P")
	assert.InDelta(t, 43.0, got, 1e-9)

	// One below the threshold: no bonus
	stats["strikeouts"] = 9
	got = Score(stats, "P")
	assert.InDelta(t, 36.0, got, 1e-9)

	// Far above threshold: still exactly one bonus
	stats["strikeouts"] = 15
	got = Score(stats, "P")
	assert.InDelta(t, 18+30+5, got, 1e-9)
}

func TestScore_Deterministic(t *testing.T) {
	stats := map[string]float64{
		"at_bats": 5, "hits": 2, "doubles": 1, "walks": 1,
		"runs": 1, "rbis": 3, "stolen_bases": 1, "strikeouts": 2,
	}

	first := Score(stats, "2B")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Score(stats, "2B"))
	}
}

func TestValidateStats(t *testing.T) {
	err := ValidateStats(map[string]float64{"hits": 2, "rbis": 1}, ClassBatter)
	require.NoError(t, err)

	// A pitcher stat on a batter line is an ingestion defect
	err = ValidateStats(map[string]float64{"hits": 2, "innings_pitched": 5}, ClassBatter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "innings_pitched")

	err = ValidateStats(map[string]float64{"exit_velocity": 98.5}, ClassBatter)
	require.Error(t, err)
}

func TestWeights_EnumeratesFullLabelBoundary(t *testing.T) {
	// Every stat that can influence a label must appear in the declared
	// weight table or a declared bonus rule.
	for _, pos := range KnownPositions {
		weights := Weights(pos)
		assert.NotEmpty(t, weights, "position %s", pos)

		for _, rule := range Bonuses(pos) {
			assert.NotEmpty(t, rule.Stats, "rule %s", rule.Name)
			assert.Greater(t, rule.Threshold, 0.0, "rule %s", rule.Name)
		}
	}
}

func TestClassFor(t *testing.T) {
	assert.Equal(t, ClassPitcher, ClassFor("P"))
	for _, pos := range []string{"C", "1B", "2B", "3B", "SS", "OF", "DH"} {
		assert.Equal(t, ClassBatter, ClassFor(pos))
	}
}
