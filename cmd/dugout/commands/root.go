package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dugout",
	Short: "Dugout - MLB 판타지 프로젝션 피처 파이프라인",
	Long: `Dugout Unified CLI

MLB 게임 로그를 수집해서 시점 정합(point-in-time) 피처를 만들고,
누수 없는 학습 데이터셋을 생성하는 파이프라인.

Usage:
  go run ./cmd/dugout [command]

Examples:
  go run ./cmd/dugout api
  go run ./cmd/dugout collect --season 2025 --players 660271,545361
  go run ./cmd/dugout dataset build
  go run ./cmd/dugout audit`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
