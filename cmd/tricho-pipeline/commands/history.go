package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tricholab/tricho-pipeline/cmd/tricho-pipeline/ui"
	"github.com/tricholab/tricho-pipeline/internal/config"
	"github.com/tricholab/tricho-pipeline/internal/history"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pipeline runs from the run ledger",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "db", "", "ledger database path (default: pipeline.history_db from config)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath := historyDB
	if dbPath == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		dbPath = cfg.Pipeline.HistoryDB
	}
	if dbPath == "" {
		return fmt.Errorf("no run ledger configured (set --db or pipeline.history_db)")
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	return ui.PrintJSON(cmd.OutOrStdout(), records)
}
