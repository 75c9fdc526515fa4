package leakage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/features"
)

func auditFixture(t *testing.T) (*features.Computer, contracts.Timeline, map[contracts.PlayerID]contracts.Timeline) {
	t.Helper()
	tl := make(contracts.Timeline, 0, 16)
	for i := 1; i <= 16; i++ {
		tl = append(tl, contracts.GameLog{
			PlayerID:  7,
			Season:    2025,
			Date:      time.Date(2025, 5, i, 0, 0, 0, 0, time.UTC),
			Positions: []string{"2B"},
			Stats:     map[string]float64{"at_bats": 4, "hits": float64(i % 3)},
		})
	}
	computer := features.NewComputer(features.NewSpecSet(15, 5, 10), 10.0, nil, zerolog.Nop())
	return computer, tl, map[contracts.PlayerID]contracts.Timeline{7: tl}
}

func TestAudit_CleanRowsPass(t *testing.T) {
	computer, tl, timelines := auditFixture(t)
	auditor := NewAuditor(computer.Specs(), zerolog.Nop())

	var rows []contracts.FeatureRow
	for asOf := 10; asOf < len(tl); asOf++ {
		row, err := computer.Compute(tl, "2B", asOf)
		require.NoError(t, err)
		rows = append(rows, row)
	}

	assert.Empty(t, auditor.Audit(rows, timelines))
	assert.NoError(t, auditor.Enforce(rows, timelines))
}

func TestAudit_TamperedBoundaryIsCaught(t *testing.T) {
	computer, tl, timelines := auditFixture(t)
	auditor := NewAuditor(computer.Specs(), zerolog.Nop())

	clean, err := computer.Compute(tl, "2B", 11)
	require.NoError(t, err)
	tampered, err := computer.Compute(tl, "2B", 12)
	require.NoError(t, err)

	// Push the stored boundary onto the label event itself
	tampered.MaxSource = tl[12].Time()

	violations := auditor.Audit([]contracts.FeatureRow{clean, tampered}, timelines)
	require.Len(t, violations, 1, "exactly the tampered row must be flagged")
	assert.Equal(t, contracts.PlayerID(7), violations[0].PlayerID)
	assert.Equal(t, 12, violations[0].AsOfIndex)

	err = auditor.Enforce([]contracts.FeatureRow{clean, tampered}, timelines)
	var leak *contracts.LeakageError
	require.ErrorAs(t, err, &leak)
	assert.Len(t, leak.Violations, 1)
}

func TestAudit_RowBelowMinimumHistory(t *testing.T) {
	computer, tl, timelines := auditFixture(t)
	auditor := NewAuditor(computer.Specs(), zerolog.Nop())

	row, err := computer.Compute(tl, "2B", 10)
	require.NoError(t, err)
	row.AsOfIndex = 5
	row.MaxSource = tl[4].Time()

	violations := auditor.Audit([]contracts.FeatureRow{row}, timelines)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Reason, "minimum")
}

func TestAudit_UnknownTimeline(t *testing.T) {
	computer, tl, _ := auditFixture(t)
	auditor := NewAuditor(computer.Specs(), zerolog.Nop())

	row, err := computer.Compute(tl, "2B", 10)
	require.NoError(t, err)

	violations := auditor.Audit([]contracts.FeatureRow{row}, map[contracts.PlayerID]contracts.Timeline{})
	require.Len(t, violations, 1)
	assert.Equal(t, "no timeline for player", violations[0].Reason)
}

func TestCheckTimeline(t *testing.T) {
	_, tl, _ := auditFixture(t)
	auditor := NewAuditor(features.NewSpecSet(15, 5, 10), zerolog.Nop())
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, auditor.CheckTimeline(tl, now))

	future := append(contracts.Timeline{}, tl...)
	future = append(future, contracts.GameLog{
		PlayerID: 7,
		Date:     now.AddDate(0, 1, 0),
		Stats:    map[string]float64{},
	})
	assert.Error(t, auditor.CheckTimeline(future, now))

	unsorted := contracts.Timeline{tl[3], tl[1]}
	assert.Error(t, auditor.CheckTimeline(unsorted, now))
}
