package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/dugout/backend/internal/scheduler"
	"github.com/wonny/dugout/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "야간 수집 스케줄러 시작",
	Long: `스케줄러를 시작합니다.

등록 작업:
  gamelog_refresh   매일 05:00 저장된 전체 선수 게임 로그 재수집

Example:
  go run ./cmd/dugout scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Dugout Scheduler ===")

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	s := scheduler.New(p.log)
	if err := s.AddJob(jobs.NewRefreshJob(p.collector, p.repo, p.log)); err != nil {
		return err
	}

	s.Start()
	defer s.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	p.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	return nil
}
