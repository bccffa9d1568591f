package commands

import (
	"github.com/spf13/cobra"

	"github.com/niyax/cvm/backend/pkg/config"
	"github.com/niyax/cvm/backend/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cvm",
	Short: "CVM Marketing Expert - subscriber campaign pipeline",
	Long: `CVM Marketing Expert CLI

Upload a subscriber base, classify lifecycle stages, assign
opportunities per line of business, generate offers and export
the campaign file.

Usage:
  go run ./cmd/cvm [command]

Examples:
  go run ./cmd/cvm api
  go run ./cmd/cvm run --input base.csv --lobs DATA,VOICE
  go run ./cmd/cvm forecast --session demo --rows 120000
  go run ./cmd/cvm catalog --path catalog.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads the environment and applies global flags
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}
