package main

import (
	"os"

	"github.com/wonny/dugout/backend/cmd/dugout/commands"
)

// main is the entry point for the Dugout CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/dugout [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
