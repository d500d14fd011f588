package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"glucosewatch/internal/app"
)

var (
	simulateValue float64
	simulateAge   time.Duration
	simulateTrend string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "模拟一次读数并推送到显示与告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateValue <= 0 {
			return errors.New("--value 必须大于 0")
		}

		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			Value: simulateValue,
			Age:   simulateAge,
			Trend: simulateTrend,
		})
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateValue, "value", 0, "读数, 单位与 nightscout.units 一致")
	simulateCmd.Flags().DurationVar(&simulateAge, "age", 0, "读数距今的时间, 例如 25m")
	simulateCmd.Flags().StringVar(&simulateTrend, "trend", "Flat", "Nightscout 趋势方向")
}
