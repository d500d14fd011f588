package cli

import (
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the current window once from the log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Render(cmd.Context())
	},
}
