package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"glucosewatch/internal/app"
	"glucosewatch/internal/logstore"
)

var (
	exportMonth     string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one month of readings as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		if exportMonth != "" {
			month, err := logstore.ParseMonth(exportMonth)
			if err != nil {
				return fmt.Errorf("invalid --month value: %w", err)
			}
			opts.Month = &month
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Month partition to export (YYYY-MM, defaults to current)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
