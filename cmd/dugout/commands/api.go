package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dugout/backend/internal/api"
	"github.com/wonny/dugout/backend/internal/api/handlers"
	"github.com/wonny/dugout/backend/internal/serving"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                            - Health check
  GET  /api/players/{id}/features         - 시점 정합 피처 조회
  GET  /api/players/{id}/position         - 포지션 판정 조회
  POST /api/ingest/collect                - 게임 로그 수집 트리거
  GET  /api/runs                          - 데이터셋 런 이력

Example:
  go run ./cmd/dugout api
  go run ./cmd/dugout api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Dugout API Server ===")

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	if apiPort != "" {
		p.cfg.Port = apiPort
	}

	// Cold start defaults come from the current stored population
	ctx := context.Background()
	defaults, err := p.positionDefaults(ctx)
	if err != nil {
		return fmt.Errorf("build position defaults: %w", err)
	}

	service := serving.NewService(
		p.repo, p.resolver, p.computer, defaults,
		p.cfg.Serving, p.cfg.Features.ColdStartBlend, p.log,
	)

	featureHandler := handlers.NewFeatureHandler(service, p.resolver, p.log)
	ingestHandler := handlers.NewIngestHandler(p.collector, p.runs, p.log)
	router := api.NewRouter(featureHandler, ingestHandler, p.log)
	server := api.New(p.cfg, p.log, router)

	// Graceful shutdown on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		p.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
