package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "signald",
	Short: "MACD momentum signal service for Binance spot markets",
	Long: `signald polls Binance klines for one symbol, derives MACD slope,
variation, acceleration and jerk, and turns them into buy/sell signals.

Every poll produces one indicator report which is appended to CSV and SQLite,
optionally published to Redis, and streamed to websocket clients.

Configuration comes from the environment (and .env), overridden by the YAML
file given with --config.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides environment)")
}
