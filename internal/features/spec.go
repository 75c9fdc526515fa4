package features

import (
	"fmt"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/scoring"
)

// SpecSet holds window specs per position group with a shared default.
// Version participates in cache keys so a window change never reuses
// rows computed under the old spec.
type SpecSet struct {
	Default     contracts.WindowSpec
	PerPosition map[string]contracts.WindowSpec
	Version     string
}

// NewSpecSet builds a spec set applying the same windows to every position
func NewSpecSet(longWindow, shortWindow, minHistory int) SpecSet {
	return SpecSet{
		Default: contracts.WindowSpec{
			LongWindow:  longWindow,
			ShortWindow: shortWindow,
			MinHistory:  minHistory,
		},
		Version: fmt.Sprintf("w%d-%d-h%d", longWindow, shortWindow, minHistory),
	}
}

// For returns the window spec in effect for a position
func (s SpecSet) For(position string) contracts.WindowSpec {
	if spec, ok := s.PerPosition[position]; ok {
		return spec
	}
	return s.Default
}

// Names returns the fixed-shape feature vector layout for a position.
// Order is part of the contract: models are trained and served against it.
func Names(position string, spec contracts.WindowSpec) []string {
	schema := scoring.Schema(scoring.ClassFor(position))

	names := make([]string, 0, 2*len(schema)+5)
	for _, stat := range schema {
		names = append(names, fmt.Sprintf("rate_l%d_%s", spec.LongWindow, stat))
	}
	for _, stat := range schema {
		names = append(names, fmt.Sprintf("rate_l%d_%s", spec.ShortWindow, stat))
	}
	names = append(names,
		fmt.Sprintf("fp_rate_l%d", spec.LongWindow),
		fmt.Sprintf("fp_rate_l%d", spec.ShortWindow),
		"trend",
		"consistency",
		"recency_gap",
	)
	return names
}
