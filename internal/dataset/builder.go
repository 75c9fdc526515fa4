package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/dugout/backend/internal/contracts"
	"github.com/wonny/dugout/backend/internal/features"
	"github.com/wonny/dugout/backend/internal/leakage"
	"github.com/wonny/dugout/backend/internal/positions"
	"github.com/wonny/dugout/backend/pkg/config"
	"github.com/wonny/dugout/backend/pkg/logger"
)

// RunStore persists the outcome of a dataset build.
type RunStore interface {
	SaveSummary(ctx context.Context, s contracts.RunSummary) error
}

// Dataset is one leakage-audited training snapshot. Train and Test hold
// every included player's rows, still time-ordered within each player.
type Dataset struct {
	Train       []contracts.FeatureRow
	Test        []contracts.FeatureRow
	Folds       map[contracts.PlayerID][]Fold
	Assignments []Assignment
	Summary     contracts.RunSummary
}

// Builder turns raw timelines into an audited train/test dataset.
// ⭐ SSOT: 데이터셋 생성 오케스트레이션은 여기서만
type Builder struct {
	timelines contracts.TimelineProvider
	resolver  *positions.Resolver
	computer  *features.Computer
	auditor   *leakage.Auditor
	runs      RunStore // optional
	cfg       config.DatasetConfig
	logger    *logger.Logger
}

func NewBuilder(
	timelines contracts.TimelineProvider,
	resolver *positions.Resolver,
	computer *features.Computer,
	auditor *leakage.Auditor,
	runs RunStore,
	cfg config.DatasetConfig,
	logger *logger.Logger,
) *Builder {
	return &Builder{
		timelines: timelines,
		resolver:  resolver,
		computer:  computer,
		auditor:   auditor,
		runs:      runs,
		cfg:       cfg,
		logger:    logger,
	}
}

// Build computes feature rows for every player, audits them for temporal
// leakage, and splits the survivors chronologically. A single player
// failing never aborts the run; a single leakage violation always does.
func (b *Builder) Build(ctx context.Context, playerIDs []contracts.PlayerID) (*Dataset, error) {
	summary := contracts.RunSummary{StartedAt: time.Now()}
	now := time.Now()

	ds := &Dataset{Folds: make(map[contracts.PlayerID][]Fold)}
	timelines := make(map[contracts.PlayerID]contracts.Timeline, len(playerIDs))
	rowsByPlayer := make(map[contracts.PlayerID][]contracts.FeatureRow, len(playerIDs))
	var order []contracts.PlayerID

	for _, id := range playerIDs {
		tl, err := b.timelines.Timeline(ctx, id)
		if err != nil {
			b.logger.WithField("player_id", id).WithError(err).Warn("Failed to load timeline, skipping player")
			summary.IngestFailures++
			continue
		}
		if err := b.auditor.CheckTimeline(tl, now); err != nil {
			b.logger.WithField("player_id", id).WithError(err).Warn("Timeline failed sanity checks, skipping player")
			summary.IngestFailures++
			continue
		}

		rows := b.computeRows(ctx, id, tl)
		summary.PlayersProcessed++
		if len(rows) == 0 {
			summary.ColdStarted++
			continue
		}

		timelines[id] = tl
		rowsByPlayer[id] = rows
		order = append(order, id)
	}

	// Hard gate: nothing reaches training while a violation exists
	var allRows []contracts.FeatureRow
	for _, id := range order {
		allRows = append(allRows, rowsByPlayer[id]...)
	}
	if err := b.auditor.Enforce(allRows, timelines); err != nil {
		var leak *contracts.LeakageError
		if errors.As(err, &leak) {
			summary.LeakageViolations = len(leak.Violations)
		}
		summary.FinishedAt = time.Now()
		b.saveSummary(ctx, summary)
		return nil, fmt.Errorf("dataset build blocked: %w", err)
	}

	for _, id := range order {
		rows := rowsByPlayer[id]

		train, test, err := SplitRows(rows, b.cfg.TrainFraction)
		if err != nil {
			b.exclude(ds, id, rows, &summary)
			continue
		}
		folds, err := WalkForward(len(rows), b.cfg.CVFolds, b.cfg.CVGap)
		if err != nil {
			// Too few post-cold-start games for a full split: excluded, never padded
			b.exclude(ds, id, rows, &summary)
			continue
		}

		ds.Train = append(ds.Train, train...)
		ds.Test = append(ds.Test, test...)
		ds.Folds[id] = folds
		for _, row := range train {
			ds.Assignments = append(ds.Assignments, Assignment{PlayerID: id, AsOfIndex: row.AsOfIndex, Class: ClassTrain, Fold: foldOf(folds, rows, row.AsOfIndex)})
		}
		for _, row := range test {
			ds.Assignments = append(ds.Assignments, Assignment{PlayerID: id, AsOfIndex: row.AsOfIndex, Class: ClassTest, Fold: -1})
		}
	}

	summary.FinishedAt = time.Now()
	ds.Summary = summary
	b.saveSummary(ctx, summary)

	b.logger.WithFields(map[string]interface{}{
		"players":  summary.PlayersProcessed,
		"train":    len(ds.Train),
		"test":     len(ds.Test),
		"excluded": summary.Excluded,
		"failed":   summary.IngestFailures,
	}).Info("Dataset build completed")

	return ds, nil
}

// Matrices flattens rows into the trainer-boundary shape for one position.
func Matrices(rows []contracts.FeatureRow, position string) (featureMatrix [][]float64, labelVector []float64) {
	for _, row := range rows {
		if row.Position != position {
			continue
		}
		featureMatrix = append(featureMatrix, row.Vector)
		labelVector = append(labelVector, row.Label)
	}
	return featureMatrix, labelVector
}

// computeRows resolves each row's position from the same prior window the
// features see, so a mid-season position change never bleeds into rows
// computed before it happened.
func (b *Builder) computeRows(ctx context.Context, id contracts.PlayerID, tl contracts.Timeline) []contracts.FeatureRow {
	var rows []contracts.FeatureRow
	for asOf := 1; asOf < len(tl); asOf++ {
		position := b.resolver.AssignFromHistory(ctx, id, tl.Prefix(asOf)).Primary
		row, err := b.computer.Compute(tl, position, asOf)
		if err != nil {
			if contracts.IsColdStart(err) {
				continue
			}
			b.logger.WithField("as_of_index", asOf).WithError(err).Warn("Feature computation failed")
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func (b *Builder) exclude(ds *Dataset, id contracts.PlayerID, rows []contracts.FeatureRow, summary *contracts.RunSummary) {
	summary.Excluded++
	for _, row := range rows {
		ds.Assignments = append(ds.Assignments, Assignment{PlayerID: id, AsOfIndex: row.AsOfIndex, Class: ClassExcluded, Fold: -1})
	}
	b.logger.WithFields(map[string]interface{}{
		"player_id": id,
		"rows":      len(rows),
	}).Debug("Player excluded, not enough games for a full split")
}

func (b *Builder) saveSummary(ctx context.Context, s contracts.RunSummary) {
	if b.runs == nil {
		return
	}
	if err := b.runs.SaveSummary(ctx, s); err != nil {
		b.logger.WithError(err).Warn("Failed to persist run summary")
	}
}

// foldOf maps a row position within the player's row slice to the fold
// validating it, or -1 when it is train-only everywhere.
func foldOf(folds []Fold, rows []contracts.FeatureRow, asOfIndex int) int {
	pos := -1
	for i, row := range rows {
		if row.AsOfIndex == asOfIndex {
			pos = i
			break
		}
	}
	if pos < 0 {
		return -1
	}
	for _, f := range folds {
		if pos >= f.ValStart && pos < f.ValEnd {
			return f.Index
		}
	}
	return -1
}
