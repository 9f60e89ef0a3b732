// Package balance handles the balance command
package balance

import (
	"fjacquet/finances/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the balance command
var Cmd = &cobra.Command{
	Use:     "balance",
	Aliases: []string{"transactions"},
	Short:   "List every transaction with the income, outcome and total balance",
	Args:    cobra.NoArgs,
	RunE:    balanceFunc,
}

func balanceFunc(cmd *cobra.Command, args []string) error {
	l, err := root.GetLedger()
	if err != nil {
		return err
	}
	report, err := l.Balance(cmd.Context())
	if err != nil {
		return err
	}
	return root.PrintJSON(cmd, report)
}
