package ledger

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/finances/internal/ledgererror"
	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"

	"github.com/shopspring/decimal"
)

// CreateRequest carries the fields of a single new transaction.
type CreateRequest struct {
	Title    string
	Value    decimal.Decimal
	Type     models.TransactionType
	Category string
}

// Creator inserts single transactions after checking that an outcome is
// covered by the current balance.
//
// Against a store.Transactor the check, the category resolution and the
// save run in one transaction. Other stores see them as separate calls, so
// callers that may run concurrently must serialise Create, as Ledger does.
type Creator struct {
	categories   store.CategoryStore
	transactions store.TransactionStore
	logger       logging.Logger
}

// NewCreator creates a Creator over the given stores.
func NewCreator(categories store.CategoryStore, transactions store.TransactionStore, logger logging.Logger) *Creator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Creator{
		categories:   categories,
		transactions: transactions,
		logger:       logger.WithField(logging.FieldComponent, logging.ComponentLedger),
	}
}

// Create validates req, checks the balance for outcomes, resolves the
// category by exact title (creating it when new) and persists the
// transaction. Nothing is written when it fails, except on a store without
// transactions whose save fails after a new category was committed; that
// case returns a PartialWriteError.
func (c *Creator) Create(ctx context.Context, req CreateRequest) (models.Transaction, error) {
	tx := models.Transaction{
		Title: strings.TrimSpace(req.Title),
		Value: req.Value,
		Type:  req.Type,
	}
	categoryTitle := strings.TrimSpace(req.Category)
	if err := validate(tx, categoryTitle); err != nil {
		return models.Transaction{}, err
	}

	var (
		saved models.Transaction
		err   error
	)
	if tr, ok := c.transactions.(store.Transactor); ok {
		err = tr.RunInTx(ctx, func(ctx context.Context, st store.Store) error {
			var err error
			saved, err = c.create(ctx, st, st, tx, categoryTitle, true)
			return err
		})
	} else {
		saved, err = c.create(ctx, c.categories, c.transactions, tx, categoryTitle, false)
	}
	if err != nil {
		return models.Transaction{}, err
	}

	c.logger.WithFields(
		logging.F(logging.FieldTransactionID, saved.ID),
		logging.F(logging.FieldType, saved.Type.String()),
		logging.F(logging.FieldValue, saved.Value.String()),
		logging.F(logging.FieldCategory, saved.CategoryTitle()),
	).Info("Transaction created")

	return saved, nil
}

func (c *Creator) create(ctx context.Context, cs store.CategoryStore, ts store.TransactionStore, tx models.Transaction, categoryTitle string, atomic bool) (models.Transaction, error) {
	if tx.IsOutcome() {
		report, err := NewCalculator(ts, c.logger).ComputeBalance(ctx)
		if err != nil {
			return models.Transaction{}, err
		}
		if !report.Balance.Covers(tx.Value) {
			c.logger.WithFields(
				logging.F(logging.FieldValue, tx.Value.String()),
				logging.F(logging.FieldTotal, report.Balance.Total.String()),
			).Warn("Rejected outcome exceeding balance")
			return models.Transaction{}, &ledgererror.InsufficientBalanceError{
				Requested: tx.Value,
				Available: report.Balance.Total,
			}
		}
	}

	category, created, err := c.resolveCategory(ctx, cs, categoryTitle, atomic)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to resolve category '%s': %w", categoryTitle, err)
	}
	tx.CategoryID = category.ID

	saved, err := ts.SaveTransaction(ctx, tx)
	if err != nil {
		err = fmt.Errorf("failed to save transaction: %w", err)
		if created {
			c.logger.WithError(err).WithField(logging.FieldCategory, category.Title).
				Error("Create failed after the category was committed")
			return models.Transaction{}, &ledgererror.PartialWriteError{Categories: []models.Category{category}, Err: err}
		}
		return models.Transaction{}, err
	}
	saved.Category = &category
	return saved, nil
}

// resolveCategory finds or creates the category. Outside a transaction it
// looks the title up first so a failed save can tell whether it left a new
// category behind.
func (c *Creator) resolveCategory(ctx context.Context, cs store.CategoryStore, title string, atomic bool) (models.Category, bool, error) {
	if !atomic {
		found, err := cs.FindCategoriesByTitles(ctx, []string{title})
		if err != nil {
			return models.Category{}, false, err
		}
		if len(found) > 0 {
			return found[0], false, nil
		}
	}
	category, err := cs.FindOrCreateCategory(ctx, title)
	return category, !atomic, err
}
// validate enforces the data model on a transaction about to be created.
func validate(tx models.Transaction, categoryTitle string) error {
	if err := tx.Validate(); err != nil {
		switch {
		case tx.Title == "":
			return &ledgererror.ValidationError{Field: "title", Reason: "must not be empty", Err: err}
		case tx.Value.IsNegative():
			return &ledgererror.ValidationError{Field: "value", Reason: "must not be negative", Err: err}
		default:
			return &ledgererror.ValidationError{Field: "type", Reason: fmt.Sprintf("must be '%s' or '%s'", models.TypeIncome, models.TypeOutcome), Err: err}
		}
	}
	if categoryTitle == "" {
		return &ledgererror.ValidationError{Field: "category", Reason: "must not be empty", Err: models.ErrMissingCategory}
	}
	return nil
}
