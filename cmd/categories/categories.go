// Package categories handles the categories command
package categories

import (
	"fjacquet/finances/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the categories command
var Cmd = &cobra.Command{
	Use:   "categories",
	Short: "List all categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := root.GetLedger()
		if err != nil {
			return err
		}
		categories, err := l.Categories(cmd.Context())
		if err != nil {
			return err
		}
		return root.PrintJSON(cmd, categories)
	},
}
