package features

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/scoring"
)

// Computer derives point-in-time feature rows from timeline prefixes
// ⭐ SSOT: 피처 계산은 여기서만. as-of 경기 자체는 절대 읽지 않음
type Computer struct {
	specs          SpecSet
	goodGameCutoff float64
	cache          *Cache // nil disables caching
	log            zerolog.Logger
}

// NewComputer creates a feature computer. cache may be nil.
func NewComputer(specs SpecSet, goodGameCutoff float64, cache *Cache, log zerolog.Logger) *Computer {
	return &Computer{
		specs:          specs,
		goodGameCutoff: goodGameCutoff,
		cache:          cache,
		log:            log.With().Str("component", "features.computer").Logger(),
	}
}

// Specs returns the spec set in effect
func (c *Computer) Specs() SpecSet {
	return c.specs
}

// Compute builds the feature row for predicting the game at asOfIndex.
// Only timeline[0:asOfIndex] is consumed; the as-of game contributes its
// label and nothing else. Returns *contracts.ColdStartError when the prior
// history is shorter than the position's minimum.
func (c *Computer) Compute(tl contracts.Timeline, position string, asOfIndex int) (contracts.FeatureRow, error) {
	if asOfIndex < 0 || asOfIndex >= len(tl) {
		return contracts.FeatureRow{}, fmt.Errorf("as_of_index %d out of range [0, %d)", asOfIndex, len(tl))
	}

	playerID := tl[asOfIndex].PlayerID
	prior := tl.Prefix(asOfIndex)
	spec := c.specs.For(position)

	if len(prior) < spec.MinHistory {
		return contracts.FeatureRow{}, &contracts.ColdStartError{
			PlayerID: playerID,
			Have:     len(prior),
			Need:     spec.MinHistory,
		}
	}

	hash := PrefixHash(prior)
	if c.cache != nil {
		if row, ok := c.cache.Get(playerID, asOfIndex, c.specs.Version, hash); ok {
			return row, nil
		}
	}

	row := contracts.FeatureRow{
		PlayerID:    playerID,
		Position:    position,
		AsOfIndex:   asOfIndex,
		Vector:      c.vector(prior, position, spec),
		Label:       scoring.Score(tl[asOfIndex].Stats, position),
		MaxSource:   prior[len(prior)-1].Time(),
		PrefixHash:  hash,
		SpecVersion: c.specs.Version,
	}

	if c.cache != nil {
		c.cache.Put(row)
	}

	return row, nil
}

// VectorAt builds the serving-time feature vector using the first
// asOfIndex games. Unlike Compute the as-of game need not exist yet, so
// asOfIndex may equal len(tl). Cold start rules still apply.
func (c *Computer) VectorAt(tl contracts.Timeline, position string, asOfIndex int) ([]float64, error) {
	if asOfIndex < 0 || asOfIndex > len(tl) {
		return nil, fmt.Errorf("as_of_index %d out of range [0, %d]", asOfIndex, len(tl))
	}

	prior := tl.Prefix(asOfIndex)
	spec := c.specs.For(position)

	if len(prior) < spec.MinHistory {
		var playerID contracts.PlayerID
		if len(tl) > 0 {
			playerID = tl[0].PlayerID
		}
		return nil, &contracts.ColdStartError{PlayerID: playerID, Have: len(prior), Need: spec.MinHistory}
	}

	return c.vector(prior, position, spec), nil
}

// PartialVector computes the vector over whatever prior history exists,
// bypassing the minimum-history gate. Used only to blend into the
// position-wide cold start default; never handed to a model on its own.
func (c *Computer) PartialVector(tl contracts.Timeline, position string, asOfIndex int) []float64 {
	if asOfIndex < 0 || asOfIndex > len(tl) {
		return nil
	}
	return c.vector(tl.Prefix(asOfIndex), position, c.specs.For(position))
}

// vector computes the fixed-shape vector from a strictly-prior slice
func (c *Computer) vector(prior contracts.Timeline, position string, spec contracts.WindowSpec) []float64 {
	schema := scoring.Schema(scoring.ClassFor(position))

	longSlice := tail(prior, spec.LongWindow)
	shortSlice := tail(prior, spec.ShortWindow)

	values := make([]float64, 0, 2*len(schema)+5)
	for _, stat := range schema {
		values = append(values, statRate(longSlice, stat))
	}
	for _, stat := range schema {
		values = append(values, statRate(shortSlice, stat))
	}

	longLabels := labels(longSlice, position)
	shortLabels := labels(shortSlice, position)

	longRate := mean(longLabels)
	shortRate := mean(shortLabels)

	values = append(values, longRate)
	values = append(values, shortRate)
	values = append(values, shortRate-longRate) // signed trend
	values = append(values, consistency(longLabels))
	values = append(values, recencyGap(prior, position, c.goodGameCutoff))

	return values
}

// tail returns the last n entries (or fewer when the slice is shorter)
func tail(tl contracts.Timeline, n int) contracts.Timeline {
	if len(tl) <= n {
		return tl
	}
	return tl[len(tl)-n:]
}

// statRate is the per-game rate of one counting stat over a window
func statRate(window contracts.Timeline, stat string) float64 {
	if len(window) == 0 {
		return 0
	}
	sum := 0.0
	for _, g := range window {
		sum += g.Stats[stat]
	}
	return sum / float64(len(window))
}

func labels(window contracts.Timeline, position string) []float64 {
	out := make([]float64, len(window))
	for i, g := range window {
		out[i] = scoring.Score(g.Stats, position)
	}
	return out
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// consistency is clip(1 - coefficient_of_variation, 0, 1) over the window
// labels. A non-positive mean makes the CV meaningless; score 0.
func consistency(labelValues []float64) float64 {
	if len(labelValues) < 2 {
		return 0
	}

	m := mean(labelValues)
	if m <= 0 {
		return 0
	}

	variance := 0.0
	for _, v := range labelValues {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(labelValues))

	cv := math.Sqrt(variance) / m
	return clip(1-cv, 0, 1)
}

// recencyGap counts games since the last game whose label cleared the
// good-game cutoff. No such game yet means the full prior length.
func recencyGap(prior contracts.Timeline, position string, cutoff float64) float64 {
	for i := len(prior) - 1; i >= 0; i-- {
		if scoring.Score(prior[i].Stats, position) > cutoff {
			return float64(len(prior) - 1 - i)
		}
	}
	return float64(len(prior))
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
