package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dugout/backend/internal/contracts"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "게임 로그 수집",
	Long: `Stats API에서 게임 로그를 수집해서 저장합니다.

--players 를 생략하면 이미 저장된 모든 선수를 다시 수집합니다.

Example:
  go run ./cmd/dugout collect --season 2025 --players 660271,545361
  go run ./cmd/dugout collect --season 2025`,
	RunE: runCollect,
}

var (
	collectSeason  int
	collectPlayers string
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVar(&collectSeason, "season", time.Now().Year(), "수집 시즌")
	collectCmd.Flags().StringVar(&collectPlayers, "players", "", "선수 ID 목록 (쉼표 구분)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Dugout Game Log Collection ===")

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()

	playerIDs, err := parsePlayerList(collectPlayers)
	if err != nil {
		return err
	}
	if len(playerIDs) == 0 {
		playerIDs, err = p.repo.ListPlayers(ctx)
		if err != nil {
			return fmt.Errorf("list stored players: %w", err)
		}
	}
	if len(playerIDs) == 0 {
		return fmt.Errorf("no players to collect, pass --players")
	}

	summary := p.collector.CollectSeason(ctx, playerIDs, contracts.Season(collectSeason))

	fmt.Printf("\nSeason %d collection finished\n", collectSeason)
	fmt.Printf("  total:   %d\n", summary.Total)
	fmt.Printf("  success: %d\n", summary.Success)
	fmt.Printf("  failed:  %d\n", summary.Failed)

	if summary.Failed > 0 {
		for _, r := range summary.Results {
			if r.Error != nil {
				fmt.Printf("  failed player %d: %v\n", r.PlayerID, r.Error)
			}
		}
	}
	return nil
}

func parsePlayerList(raw string) ([]contracts.PlayerID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []contracts.PlayerID
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("bad player id %q", part)
		}
		ids = append(ids, contracts.PlayerID(id))
	}
	return ids, nil
}
