// Package deletecmd handles the delete command
package deletecmd

import (
	"fmt"

	"fjacquet/finances/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the delete command
var Cmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction by id",
	Long: `Delete a transaction by id. Its category is kept.

Example:
  finances delete 0b6f3c1e-5d0a-4a43-9c8e-2f1d7a9b3c11`,
	Args: cobra.ExactArgs(1),
	RunE: deleteFunc,
}

func deleteFunc(cmd *cobra.Command, args []string) error {
	l, err := root.GetLedger()
	if err != nil {
		return err
	}
	if err := l.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %s\n", args[0])
	return err
}
