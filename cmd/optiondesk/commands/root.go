package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	analyticsConfig string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "optiondesk",
	Short: "optiondesk - CBOE 옵션 체인 분석",
	Long: `optiondesk Unified CLI

CBOE delayed quote 기반 옵션 체인 분석.
S0 심볼 디코드 → S1 정규화/분할 → S2 노출 집계 → S3 스큐 → S4 스냅샷.

Usage:
  go run ./cmd/optiondesk [command]

Examples:
  go run ./cmd/optiondesk snapshot SPX
  go run ./cmd/optiondesk snapshot AAPL --table skew
  go run ./cmd/optiondesk decode SPXW240119C04750000
  go run ./cmd/optiondesk api --port 8089
  go run ./cmd/optiondesk scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&analyticsConfig, "analytics-config", "", "analytics YAML (default is ANALYTICS_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
