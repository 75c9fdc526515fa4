package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "파이프라인 상태 확인",
	Long: `DB/Redis 연결 상태와 최근 데이터셋 런을 출력합니다.

Example:
  go run ./cmd/dugout status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Dugout Status ===")

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := p.db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("database: DOWN (%v)\n", err)
	} else {
		fmt.Printf("database: OK, %dms, %d/%d conns\n",
			health.ResponseTime.Milliseconds(), health.TotalConns, health.MaxConns)
	}

	if p.redis.Enabled() {
		fmt.Println("redis:    enabled")
	} else {
		fmt.Println("redis:    disabled (durable store only)")
	}

	playerIDs, err := p.repo.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	fmt.Printf("players:  %d stored\n", len(playerIDs))

	summaries, err := p.runs.RecentSummaries(ctx, 5)
	if err != nil {
		fmt.Printf("runs:     unavailable (%v)\n", err)
		return nil
	}

	fmt.Printf("\nRecent dataset runs (%d):\n", len(summaries))
	for _, s := range summaries {
		fmt.Printf("  %s  players=%d cold=%d excluded=%d failures=%d violations=%d\n",
			s.StartedAt.Format("2006-01-02 15:04"),
			s.PlayersProcessed, s.ColdStarted, s.Excluded, s.IngestFailures, s.LeakageViolations)
	}
	return nil
}
