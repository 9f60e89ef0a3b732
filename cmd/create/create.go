// Package create handles the create command
package create

import (
	"fmt"

	"fjacquet/finances/cmd/root"
	"fjacquet/finances/internal/ledger"
	"fjacquet/finances/internal/models"

	"github.com/spf13/cobra"
)

// Options holds the create command flags
type Options struct {
	Title    string
	Value    string
	Type     string
	Category string
}

var opts Options

// Cmd represents the create command
var Cmd = &cobra.Command{
	Use:   "create",
	Short: "Create a single income or outcome transaction",
	Long: `Create a single transaction. The category is created when it does not exist yet.
An outcome larger than the current total balance is rejected.

Example:
  finances create --title salary --value 1000 --type income --category job`,
	Args: cobra.NoArgs,
	RunE: createFunc,
}

func init() {
	Cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Transaction title")
	Cmd.Flags().StringVarP(&opts.Value, "value", "v", "", "Transaction value, non-negative")
	Cmd.Flags().StringVarP(&opts.Type, "type", "y", "", "Transaction type: income or outcome")
	Cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "Category title")
	_ = Cmd.MarkFlagRequired("title")
	_ = Cmd.MarkFlagRequired("value")
	_ = Cmd.MarkFlagRequired("type")
	_ = Cmd.MarkFlagRequired("category")
}

func createFunc(cmd *cobra.Command, args []string) error {
	l, err := root.GetLedger()
	if err != nil {
		return err
	}

	value, err := models.ParseValue(opts.Value)
	if err != nil {
		return fmt.Errorf("invalid --value: %w", err)
	}

	tx, err := l.Create(cmd.Context(), ledger.CreateRequest{
		Title:    opts.Title,
		Value:    value,
		Type:     models.TransactionType(opts.Type),
		Category: opts.Category,
	})
	if err != nil {
		return err
	}
	return root.PrintJSON(cmd, tx)
}
