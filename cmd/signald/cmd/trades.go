package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"momentum-signalv1/config"
	"momentum-signalv1/internal/store/sqlite"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List recent trades from the SQLite journal",
	Args:  cobra.NoArgs,
	RunE:  runTrades,
}

var tradesLimit int

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.Flags().IntVarP(&tradesLimit, "limit", "n", 20, "number of trades to show")
}

func runTrades(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	trades, err := store.RecentTrades(context.Background(), tradesLimit)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no trades")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTYPE\tSYMBOL\tPOLICY\tPRICE\tVALUE")
	for _, t := range trades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.4f\n",
			t.Timestamp.UTC().Format(time.RFC3339), t.Type, t.Symbol, t.Policy, t.Price, t.Value)
	}
	return w.Flush()
}
