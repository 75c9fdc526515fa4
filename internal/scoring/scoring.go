package scoring

import "math"

// Fantasy point weight tables. These are the complete label definition:
// no statistic outside this file may influence a label.
// ⭐ SSOT: 판타지 점수 계산은 여기서만

// batterWeights scores the derived stat line; "singles" is computed from
// hits minus extra-base hits before weighting.
var batterWeights = map[string]float64{
	"singles":      3.0,
	"doubles":      5.0,
	"triples":      8.0,
	"home_runs":    10.0,
	"walks":        2.0,
	"hit_by_pitch": 2.0,
	"runs":         2.0,
	"rbis":         2.0,
	"stolen_bases": 5.0,
	"strikeouts":   -1.0,
}

// batterWeightOrder fixes summation order so scores are bit-stable
var batterWeightOrder = []string{
	"singles", "doubles", "triples", "home_runs", "walks",
	"hit_by_pitch", "runs", "rbis", "stolen_bases", "strikeouts",
}

var pitcherWeights = map[string]float64{
	"innings_pitched":   3.0,
	"strikeouts":        2.0,
	"wins":              10.0,
	"saves":             10.0,
	"hits_allowed":      -1.0,
	"walks_allowed":     -1.0,
	"home_runs_allowed": -4.0,
	"earned_runs":       -2.0,
}

var pitcherWeightOrder = []string{
	"innings_pitched", "strikeouts", "wins", "saves",
	"hits_allowed", "walks_allowed", "home_runs_allowed", "earned_runs",
}

// BonusRule is a declared threshold-triggered bonus: when the sum of the
// listed stats reaches Threshold, Points are added exactly once.
type BonusRule struct {
	Name      string
	Stats     []string
	Threshold float64
	Points    float64
}

// Triggered reports whether the rule fires for a stat line
func (r BonusRule) Triggered(stats map[string]float64) bool {
	sum := 0.0
	for _, name := range r.Stats {
		sum += stats[name]
	}
	return sum >= r.Threshold
}

var batterBonuses = []BonusRule{
	{
		Name:      "combined_production",
		Stats:     []string{"hits", "runs", "rbis"},
		Threshold: 5,
		Points:    2.5,
	},
}

var pitcherBonuses = []BonusRule{
	{
		Name:      "double_digit_strikeouts",
		Stats:     []string{"strikeouts"},
		Threshold: 10,
		Points:    5.0,
	},
}

// Weights returns the declared weight table for a position (copy)
func Weights(position string) map[string]float64 {
	var src map[string]float64
	switch ClassFor(position) {
	case ClassPitcher:
		src = pitcherWeights
	default:
		src = batterWeights
	}
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Bonuses returns the declared bonus rules for a position
func Bonuses(position string) []BonusRule {
	switch ClassFor(position) {
	case ClassPitcher:
		return pitcherBonuses
	default:
		return batterBonuses
	}
}

// Score maps a raw game stat line to its fantasy point label. Pure and
// deterministic: identical input always yields the identical float64.
func Score(stats map[string]float64, position string) float64 {
	switch ClassFor(position) {
	case ClassPitcher:
		return scorePitcher(stats)
	default:
		return scoreBatter(stats)
	}
}

func scoreBatter(stats map[string]float64) float64 {
	// Singles are derived: total hits minus extra-base hits
	singles := stats["hits"] - stats["doubles"] - stats["triples"] - stats["home_runs"]
	if singles < 0 {
		singles = 0
	}

	derived := map[string]float64{"singles": singles}
	total := 0.0
	for _, name := range batterWeightOrder {
		value, ok := derived[name]
		if !ok {
			value = stats[name]
		}
		total += value * batterWeights[name]
	}

	for _, rule := range batterBonuses {
		if rule.Triggered(stats) {
			total += rule.Points
		}
	}

	return round2(total)
}

func scorePitcher(stats map[string]float64) float64 {
	total := 0.0
	for _, name := range pitcherWeightOrder {
		total += stats[name] * pitcherWeights[name]
	}

	for _, rule := range pitcherBonuses {
		if rule.Triggered(stats) {
			total += rule.Points
		}
	}

	return round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
