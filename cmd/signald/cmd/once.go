package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"momentum-signalv1/config"
	"momentum-signalv1/internal/logger"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single poll cycle and print the result as JSON",
	Long: `Once fetches, evaluates and persists exactly one cycle, exactly as run
would on a tick, and prints the report, decision and trade (if any).

Example:
  signald once --config signald.yaml`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init("signald", logger.ParseLevel(cfg.LogLevel))

	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.RunOnce(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
