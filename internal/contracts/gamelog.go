package contracts

import (
	"fmt"
	"sort"
	"time"
)

// PlayerID identifies one tracked player (upstream stats API numeric ID).
type PlayerID int64

// Season identifies one season by year.
type Season int

// EventTime orders game logs: calendar date plus the intra-day sequence
// number that disambiguates doubleheaders.
type EventTime struct {
	Date time.Time `json:"date"`
	Seq  int       `json:"seq"`
}

// Before reports whether t is strictly earlier than o
func (t EventTime) Before(o EventTime) bool {
	if !t.Date.Equal(o.Date) {
		return t.Date.Before(o.Date)
	}
	return t.Seq < o.Seq
}

// Equal reports whether t and o are the same instant
func (t EventTime) Equal(o EventTime) bool {
	return t.Date.Equal(o.Date) && t.Seq == o.Seq
}

func (t EventTime) String() string {
	return fmt.Sprintf("%s#%d", t.Date.Format("2006-01-02"), t.Seq)
}

// GameLog is one immutable raw game record for a player
// ⭐ SSOT: 원시 경기 기록은 이 타입으로만 표현
type GameLog struct {
	PlayerID  PlayerID           `json:"player_id"`
	Season    Season             `json:"season"`
	Date      time.Time          `json:"date"`
	Seq       int                `json:"seq"`       // intra-day sequence (doubleheaders)
	Positions []string           `json:"positions"` // position tags active for this game
	Stats     map[string]float64 `json:"stats"`     // enumerated counting stats
}

// Time returns the ordering key for this game
func (g GameLog) Time() EventTime {
	return EventTime{Date: g.Date, Seq: g.Seq}
}

// Timeline is the ordered game history for one player.
// Invariant: strictly increasing EventTime, no duplicate (season, date, seq).
type Timeline []GameLog

// Sort orders the timeline chronologically in place
func (tl Timeline) Sort() {
	sort.SliceStable(tl, func(i, j int) bool {
		return tl[i].Time().Before(tl[j].Time())
	})
}

// Validate checks the timeline ordering invariant
func (tl Timeline) Validate() error {
	for i := 1; i < len(tl); i++ {
		prev, cur := tl[i-1].Time(), tl[i].Time()
		if cur.Equal(prev) {
			return fmt.Errorf("duplicate game at %s (index %d)", cur, i)
		}
		if cur.Before(prev) {
			return fmt.Errorf("game order violation at index %d: %s before %s", i, cur, prev)
		}
	}
	return nil
}

// Prefix returns the strictly-prior slice for an as-of index.
// The returned slice aliases the timeline; callers must not mutate it.
func (tl Timeline) Prefix(asOfIndex int) Timeline {
	if asOfIndex < 0 {
		return nil
	}
	if asOfIndex > len(tl) {
		asOfIndex = len(tl)
	}
	return tl[:asOfIndex]
}

// PositionAssignment maps a player to a primary position and the set of
// positions with enough history to be eligible for a dedicated model.
type PositionAssignment struct {
	PlayerID PlayerID       `json:"player_id"`
	Primary  string         `json:"primary"`
	Eligible []string       `json:"eligible"` // sorted
	Counts   map[string]int `json:"counts"`
}

// IsEligible reports whether the given position met the eligibility threshold
func (a PositionAssignment) IsEligible(position string) bool {
	for _, p := range a.Eligible {
		if p == position {
			return true
		}
	}
	return false
}
