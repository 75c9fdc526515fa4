package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dugout/backend/internal/dataset"
	"github.com/wonny/dugout/backend/internal/scoring"
)

// datasetCmd groups dataset subcommands
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "학습 데이터셋 생성",
	Long: `저장된 게임 로그로 누수 검증된 학습 데이터셋을 생성합니다.

명령어:
  build   전체 선수 대상으로 train/test 분할 생성`,
}

var datasetBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "train/test 분할 생성",
	Long: `모든 저장된 선수의 피처 행을 계산하고, 누수 감사를 통과한 행만
시간순 train/test 와 walk-forward 폴드로 분할합니다.

Example:
  go run ./cmd/dugout dataset build`,
	RunE: runDatasetBuild,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetBuildCmd)
}

func runDatasetBuild(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Dugout Dataset Build ===")

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	playerIDs, err := p.repo.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(playerIDs) == 0 {
		return fmt.Errorf("no stored players, run collect first")
	}

	ds, err := p.datasetBuilder().Build(ctx, playerIDs)
	if err != nil {
		return err
	}

	fmt.Printf("\nDataset built from %d players\n", ds.Summary.PlayersProcessed)
	fmt.Printf("  train rows:   %d\n", len(ds.Train))
	fmt.Printf("  test rows:    %d\n", len(ds.Test))
	fmt.Printf("  cold started: %d\n", ds.Summary.ColdStarted)
	fmt.Printf("  excluded:     %d\n", ds.Summary.Excluded)
	fmt.Printf("  failures:     %d\n", ds.Summary.IngestFailures)

	fmt.Println("\nTrain rows per position:")
	for _, position := range scoring.KnownPositions {
		matrix, _ := dataset.Matrices(ds.Train, position)
		if len(matrix) > 0 {
			fmt.Printf("  %-3s %d\n", position, len(matrix))
		}
	}
	return nil
}
