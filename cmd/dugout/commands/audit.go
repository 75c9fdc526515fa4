package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dugout/backend/internal/contracts"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "누수 감사 실행",
	Long: `저장된 모든 선수의 피처 행을 다시 계산하고 시간 경계를 독립 검증합니다.

위반이 하나라도 있으면 종료 코드 1로 실패합니다.

Example:
  go run ./cmd/dugout audit`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Dugout Leakage Audit ===")

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

	now := time.Now()
	timelines := make(map[contracts.PlayerID]contracts.Timeline, len(playerIDs))
	var rows []contracts.FeatureRow
	audited := 0

	for _, id := range playerIDs {
		tl, err := p.repo.Timeline(ctx, id)
		if err != nil {
			fmt.Printf("  skip player %d: %v\n", id, err)
			continue
		}
		if err := p.auditor.CheckTimeline(tl, now); err != nil {
			fmt.Printf("  timeline check failed for player %d: %v\n", id, err)
			continue
		}

		// Same prior-window assignment the dataset builder uses
		for asOf := 1; asOf < len(tl); asOf++ {
			position := p.resolver.AssignFromHistory(ctx, id, tl.Prefix(asOf)).Primary
			row, err := p.computer.Compute(tl, position, asOf)
			if err != nil {
				continue
			}
			rows = append(rows, row)
		}
		timelines[id] = tl
		audited++
	}

	violations := p.auditor.Audit(rows, timelines)

	fmt.Printf("\nAudited %d players, %d feature rows\n", audited, len(rows))
	if len(violations) == 0 {
		fmt.Println("No temporal boundary violations")
		return nil
	}

	fmt.Printf("%d violations found:\n", len(violations))
	for _, v := range violations {
		fmt.Printf("  %s\n", v.String())
	}
	return fmt.Errorf("leakage audit failed with %d violations", len(violations))
}
