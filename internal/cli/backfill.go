package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"glucosewatch/internal/app"
)

var (
	backfillCount  int
	backfillDryRun bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fetch recent upstream entries and append those missing from the log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if backfillCount < 0 {
			return fmt.Errorf("--count cannot be negative")
		}

		opts := app.BackfillOptions{
			Count:  backfillCount,
			DryRun: backfillDryRun,
		}

		return getApp().Backfill(cmd.Context(), opts)
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillCount, "count", 0, "Number of entries to request (defaults to the render width)")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Run without writing to storage")
}
