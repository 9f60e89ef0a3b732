package ledger

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/finances/internal/ledgererror"
	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/store"
)

// Deleter removes transactions by id. Categories are never touched.
type Deleter struct {
	transactions store.TransactionStore
	logger       logging.Logger
}

// NewDeleter creates a Deleter over ts.
func NewDeleter(ts store.TransactionStore, logger logging.Logger) *Deleter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Deleter{
		transactions: ts,
		logger:       logger.WithField(logging.FieldComponent, logging.ComponentLedger),
	}
}

// Delete removes the transaction with the given id, or fails with a
// NotFoundError when there is none.
func (d *Deleter) Delete(ctx context.Context, id string) error {
	if err := d.transactions.RemoveTransaction(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &ledgererror.NotFoundError{Entity: "transaction", ID: id}
		}
		return fmt.Errorf("failed to remove transaction %s: %w", id, err)
	}
	d.logger.WithField(logging.FieldTransactionID, id).Info("Transaction deleted")
	return nil
}
