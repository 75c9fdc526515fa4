package scoring

import (
	"fmt"
	"sort"
)

// Class selects which stat schema and weight table apply to a position
type Class string

const (
	ClassBatter  Class = "batter"
	ClassPitcher Class = "pitcher"
)

// Positions recognized by the pipeline. LF/CF/RF collapse into OF upstream.
var KnownPositions = []string{"C", "1B", "2B", "3B", "SS", "OF", "DH", "P"}

// ClassFor maps a position to its stat class
func ClassFor(position string) Class {
	if position == "P" {
		return ClassPitcher
	}
	return ClassBatter
}

// Enumerated stat schemas. A game log may only carry these keys; anything
// else is rejected at the ingestion boundary rather than silently flowing
// into scoring.
var batterSchema = []string{
	"at_bats",
	"hits",
	"doubles",
	"triples",
	"home_runs",
	"walks",
	"hit_by_pitch",
	"runs",
	"rbis",
	"stolen_bases",
	"strikeouts",
}

var pitcherSchema = []string{
	"innings_pitched",
	"strikeouts",
	"wins",
	"saves",
	"hits_allowed",
	"walks_allowed",
	"home_runs_allowed",
	"earned_runs",
}

// Schema returns the enumerated stat names for a class, sorted copy
func Schema(class Class) []string {
	var src []string
	switch class {
	case ClassPitcher:
		src = pitcherSchema
	default:
		src = batterSchema
	}
	out := make([]string, len(src))
	copy(out, src)
	sort.Strings(out)
	return out
}

// ValidateStats rejects stat maps carrying keys outside the declared schema
// ⭐ SSOT: 스탯 스키마 검증은 여기서만
func ValidateStats(stats map[string]float64, class Class) error {
	allowed := make(map[string]bool)
	var src []string
	switch class {
	case ClassPitcher:
		src = pitcherSchema
	default:
		src = batterSchema
	}
	for _, name := range src {
		allowed[name] = true
	}

	for key := range stats {
		if !allowed[key] {
			return fmt.Errorf("unknown stat %q for class %s", key, class)
		}
	}
	return nil
}
