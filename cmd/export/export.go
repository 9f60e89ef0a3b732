// Package export handles the export command
package export

import (
	"errors"

	"fjacquet/finances/cmd/root"
	"fjacquet/finances/internal/common"

	"github.com/spf13/cobra"
)

var (
	output string
	verify bool
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export all transactions to CSV",
	Long: `Export all transactions to CSV using the import layout, so the file can be
imported into another ledger. Writes to stdout unless --output is given.
With --verify the written file is read back and compared with the ledger.

Example:
  finances export -o backup.csv --verify`,
	Args: cobra.NoArgs,
	RunE: exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	Cmd.Flags().BoolVar(&verify, "verify", false, "Read the output file back and check it matches the ledger")
}

func exportFunc(cmd *cobra.Command, args []string) error {
	l, err := root.GetLedger()
	if err != nil {
		return err
	}
	report, err := l.Balance(cmd.Context())
	if err != nil {
		return err
	}

	delimiter := root.GetContainer().GetConfig().Delimiter()
	if output == "" {
		if verify {
			return errors.New("--verify requires --output")
		}
		return common.WriteTransactionsCSV(cmd.OutOrStdout(), report.Transactions, delimiter)
	}
	if err := common.ExportTransactionsToCSV(output, report.Transactions, delimiter, root.GetLogger()); err != nil {
		return err
	}
	if verify {
		return common.VerifyExportFile(output, report.Transactions, delimiter)
	}
	return nil
}
