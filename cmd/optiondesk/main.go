package main

import (
	"os"

	"github.com/wonny/optiondesk/cmd/optiondesk/commands"
)

// main is the entry point for the optiondesk CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/optiondesk [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
