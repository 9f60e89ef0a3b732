// Package ledger implements the ledger engine: balance computation, single
// transaction creation and deletion, and bulk import from delimited files.
package ledger

import (
	"context"
	"fmt"

	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"
)

// Calculator derives the balance from the full transaction set. Nothing is
// cached; every call reads the store.
type Calculator struct {
	transactions store.TransactionStore
	logger       logging.Logger
}

// NewCalculator creates a Calculator reading from ts.
func NewCalculator(ts store.TransactionStore, logger logging.Logger) *Calculator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Calculator{transactions: ts, logger: logger}
}

// ComputeBalance returns every transaction together with the balance over
// them. An empty ledger yields a zero balance.
func (c *Calculator) ComputeBalance(ctx context.Context) (models.Report, error) {
	txs, err := c.transactions.ListTransactions(ctx)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	balance := Summarize(txs)
	c.logger.WithFields(
		logging.F(logging.FieldCount, len(txs)),
		logging.F(logging.FieldTotal, balance.Total.String()),
	).Debug("Balance computed")

	return models.Report{Transactions: txs, Balance: balance}, nil
}

// Summarize folds txs into a balance in a single pass.
func Summarize(txs []models.Transaction) models.Balance {
	balance := models.ZeroBalance()
	for _, tx := range txs {
		balance = balance.Apply(tx)
	}
	return balance
}
