package leakage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/features"
)

// Auditor re-derives the temporal boundary of every feature row from the
// raw timeline and the window spec, independently of the computer that
// produced the row. Training never starts while violations exist.
// ⭐ SSOT: 누수 검증은 여기서만
type Auditor struct {
	specs features.SpecSet
	log   zerolog.Logger
}

func NewAuditor(specs features.SpecSet, log zerolog.Logger) *Auditor {
	return &Auditor{
		specs: specs,
		log:   log.With().Str("component", "leakage_auditor").Logger(),
	}
}

// CheckTimeline runs the sanity checks every audited timeline must pass:
// strict chronological order, no duplicate event times, no events dated
// after now.
func (a *Auditor) CheckTimeline(tl contracts.Timeline, now time.Time) error {
	if err := tl.Validate(); err != nil {
		return err
	}
	for i, g := range tl {
		if g.Date.After(now) {
			return fmt.Errorf("event %d dated %s is in the future", i, g.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Audit recomputes max_source_timestamp for every row and collects every
// mismatch. A row passes only when the stored boundary equals the
// recomputed one and strictly precedes the label event's time.
func (a *Auditor) Audit(rows []contracts.FeatureRow, timelines map[contracts.PlayerID]contracts.Timeline) []contracts.Violation {
	var violations []contracts.Violation

	for _, row := range rows {
		if v, ok := a.check(row, timelines); !ok {
			violations = append(violations, v)
		}
	}

	if len(violations) > 0 {
		a.log.Error().
			Int("rows", len(rows)).
			Int("violations", len(violations)).
			Msg("temporal boundary audit failed")
	} else {
		a.log.Debug().Int("rows", len(rows)).Msg("temporal boundary audit passed")
	}

	return violations
}

// Enforce is the hard gate: any violation blocks the caller with a
// LeakageError carrying the full list.
func (a *Auditor) Enforce(rows []contracts.FeatureRow, timelines map[contracts.PlayerID]contracts.Timeline) error {
	violations := a.Audit(rows, timelines)
	if len(violations) == 0 {
		return nil
	}
	return &contracts.LeakageError{Violations: violations}
}

func (a *Auditor) check(row contracts.FeatureRow, timelines map[contracts.PlayerID]contracts.Timeline) (contracts.Violation, bool) {
	v := contracts.Violation{
		PlayerID:  row.PlayerID,
		AsOfIndex: row.AsOfIndex,
		Stored:    row.MaxSource,
	}

	tl, ok := timelines[row.PlayerID]
	if !ok {
		v.Reason = "no timeline for player"
		return v, false
	}
	if row.AsOfIndex < 1 || row.AsOfIndex >= len(tl) {
		v.Reason = fmt.Sprintf("as_of index %d outside timeline of %d events", row.AsOfIndex, len(tl))
		return v, false
	}

	spec := a.specs.For(row.Position)
	if row.AsOfIndex < spec.MinHistory {
		v.Reason = fmt.Sprintf("row produced from %d prior events, minimum is %d", row.AsOfIndex, spec.MinHistory)
		return v, false
	}

	v.Recomputed = tl[row.AsOfIndex-1].Time()
	v.LabelTime = tl[row.AsOfIndex].Time()

	if !row.MaxSource.Equal(v.Recomputed) {
		v.Reason = "stored max source does not match recomputed boundary"
		return v, false
	}
	if !row.MaxSource.Before(v.LabelTime) {
		v.Reason = "max source does not strictly precede the label event"
		return v, false
	}

	return contracts.Violation{}, true
}
