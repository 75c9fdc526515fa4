package features

import (
	"sync"

	"github.com/wonny/dugout/backend/internal/contracts"
)

// PositionDefaults holds the declared position-wide cold start vectors.
// Cold-started players receive these instead of silent zero fill.
type PositionDefaults struct {
	mu      sync.RWMutex
	vectors map[string][]float64
}

// NewPositionDefaults creates an empty default set
func NewPositionDefaults() *PositionDefaults {
	return &PositionDefaults{vectors: make(map[string][]float64)}
}

// DefaultsFromRows derives per-position mean vectors from a set of
// computed rows (typically the training rows of the latest dataset run).
func DefaultsFromRows(rows []contracts.FeatureRow) *PositionDefaults {
	sums := make(map[string][]float64)
	counts := make(map[string]int)

	for _, row := range rows {
		sum := sums[row.Position]
		if sum == nil {
			sum = make([]float64, len(row.Vector))
			sums[row.Position] = sum
		}
		if len(sum) != len(row.Vector) {
			continue
		}
		for i, v := range row.Vector {
			sum[i] += v
		}
		counts[row.Position]++
	}

	d := NewPositionDefaults()
	for pos, sum := range sums {
		n := float64(counts[pos])
		vec := make([]float64, len(sum))
		for i, v := range sum {
			vec[i] = v / n
		}
		d.Set(pos, vec)
	}
	return d
}

// Set declares the default vector for a position
func (d *PositionDefaults) Set(position string, vector []float64) {
	d.mu.Lock()
	d.vectors[position] = vector
	d.mu.Unlock()
}

// Get returns the default vector for a position
func (d *PositionDefaults) Get(position string) ([]float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	vec, ok := d.vectors[position]
	return vec, ok
}

// Blend mixes an individual partial-history vector into the position
// default: blend=0 is the pure position average, blend=1 pure individual.
// Mismatched lengths fall back to the position default.
func Blend(individual, positionDefault []float64, blend float64) []float64 {
	if len(individual) != len(positionDefault) || blend <= 0 {
		out := make([]float64, len(positionDefault))
		copy(out, positionDefault)
		return out
	}

	out := make([]float64, len(positionDefault))
	for i := range positionDefault {
		out[i] = blend*individual[i] + (1-blend)*positionDefault[i]
	}
	return out
}
