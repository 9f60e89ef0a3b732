package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"fjacquet/finances/internal/fileutils"
	"fjacquet/finances/internal/ledgererror"
	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"
)

// ImportOptions controls how import sources are read and committed.
type ImportOptions struct {
	// Delimiter separates fields; ',' when zero.
	Delimiter rune
	// DeleteSource removes an imported file after a successful commit.
	DeleteSource bool
	// EnforceBalance rejects an import whose running balance, taken in file
	// order from the current total, would go negative.
	EnforceBalance bool
	// SkipInvalidRows drops rows with an unknown type, a malformed or
	// negative value or no category instead of failing the import.
	SkipInvalidRows bool
}

// Candidate is a parsed row waiting for its category to be resolved.
type Candidate struct {
	Line        int
	Transaction models.Transaction
	Category    string
}

// Batch is the fully drained content of one import source.
type Batch struct {
	Candidates []Candidate
	Skipped    int
}

// CategoryTitles returns the category title of every candidate, duplicates
// included, in row order.
func (b Batch) CategoryTitles() []string {
	titles := make([]string, len(b.Candidates))
	for i, c := range b.Candidates {
		titles[i] = c.Category
	}
	return titles
}

// Importer ingests delimited sources in two phases: Collect drains the rows
// into a Batch, then Commit reconciles categories and persists the batch.
type Importer struct {
	store  store.Store
	opts   ImportOptions
	logger logging.Logger
}

// NewImporter creates an Importer writing to st. When st implements
// store.Transactor the category and transaction writes of a commit are
// atomic.
func NewImporter(st store.Store, opts ImportOptions, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &Importer{
		store:  st,
		opts:   opts,
		logger: logger.WithField(logging.FieldComponent, logging.ComponentImporter),
	}
}

// Collect drains rows. Rows without a title, type or value are dropped
// silently; other invalid rows fail with a RowError unless SkipInvalidRows
// is set.
func (im *Importer) Collect(ctx context.Context, rows iter.Seq2[Row, error]) (Batch, error) {
	var batch Batch
	for row, err := range rows {
		if err != nil {
			return Batch{}, err
		}
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}

		if row.Blank() {
			batch.Skipped++
			im.logger.WithField(logging.FieldLine, row.Line).Debug("Skipping incomplete row")
			continue
		}

		candidate, err := parseRow(row)
		if err != nil {
			if im.opts.SkipInvalidRows {
				batch.Skipped++
				im.logger.WithError(err).WithField(logging.FieldLine, row.Line).Warn("Skipping invalid row")
				continue
			}
			return Batch{}, err
		}
		batch.Candidates = append(batch.Candidates, candidate)
	}
	return batch, nil
}

func parseRow(row Row) (Candidate, error) {
	txType, err := models.ParseTransactionType(row.Type)
	if err != nil {
		return Candidate{}, &ledgererror.RowError{Line: row.Line, Field: "type", Value: row.Type, Err: err}
	}
	value, err := models.ParseValue(row.Value)
	if err != nil {
		return Candidate{}, &ledgererror.RowError{Line: row.Line, Field: "value", Value: row.Value, Err: err}
	}
	if row.Category == "" {
		return Candidate{}, &ledgererror.RowError{Line: row.Line, Field: "category", Err: models.ErrMissingCategory}
	}
	return Candidate{
		Line:        row.Line,
		Transaction: models.Transaction{Title: row.Title, Type: txType, Value: value},
		Category:    row.Category,
	}, nil
}

// Commit resolves the categories of batch with one lookup and one batch
// creation, then saves every transaction in one batch.
//
// Against a store.Transactor nothing is visible unless everything is. Other
// stores commit categories and transactions separately; if the second write
// fails the returned error is a PartialWriteError naming the categories
// left behind.
func (im *Importer) Commit(ctx context.Context, batch Batch) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(batch.Candidates) == 0 {
		return []models.Transaction{}, nil
	}

	tr, ok := im.store.(store.Transactor)
	if !ok {
		return im.commit(ctx, im.store, batch, false)
	}

	var saved []models.Transaction
	err := tr.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		saved, err = im.commit(ctx, tx, batch, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (im *Importer) commit(ctx context.Context, st store.Store, batch Batch, atomic bool) ([]models.Transaction, error) {
	if im.opts.EnforceBalance {
		if err := im.checkRunningBalance(ctx, st, batch); err != nil {
			return nil, err
		}
	}

	titles := store.UniqueTitles(batch.CategoryTitles())
	existing, err := st.FindCategoriesByTitles(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("failed to look up categories: %w", err)
	}

	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c.Title] = struct{}{}
	}
	var missing []string
	for _, title := range titles {
		if _, ok := known[title]; !ok {
			missing = append(missing, title)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var created []models.Category
	if len(missing) > 0 {
		created, err = st.CreateCategories(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to create categories: %w", err)
		}
	}

	pool := make(map[string]models.Category, len(created)+len(existing))
	for _, group := range [][]models.Category{created, existing} {
		for _, c := range group {
			if _, ok := pool[c.Title]; !ok {
				pool[c.Title] = c
			}
		}
	}

	txs := make([]models.Transaction, 0, len(batch.Candidates))
	for _, candidate := range batch.Candidates {
		c, ok := pool[candidate.Category]
		if !ok {
			return nil, im.partial(atomic, created, fmt.Errorf("line %d: category '%s' could not be resolved", candidate.Line, candidate.Category))
		}
		tx := candidate.Transaction
		tx.CategoryID = c.ID
		txs = append(txs, tx)
	}

	if err := ctx.Err(); err != nil {
		return nil, im.partial(atomic, created, err)
	}
	saved, err := st.SaveTransactions(ctx, txs)
	if err != nil {
		return nil, im.partial(atomic, created, fmt.Errorf("failed to save transactions: %w", err))
	}

	for i := range saved {
		if c, ok := pool[batch.Candidates[i].Category]; ok && saved[i].Category == nil {
			saved[i].Category = &c
		}
	}

	im.logger.WithFields(
		logging.F(logging.FieldCount, len(saved)),
		logging.F(logging.FieldCreated, len(created)),
		logging.F(logging.FieldSkipped, batch.Skipped),
	).Info("Import committed")

	return saved, nil
}

// partial reports err, flagging categories that outlive a failed
// non-atomic commit.
func (im *Importer) partial(atomic bool, created []models.Category, err error) error {
	if atomic || len(created) == 0 {
		return err
	}
	im.logger.WithError(err).WithField(logging.FieldCreated, len(created)).
		Error("Import failed after categories were committed")
	return &ledgererror.PartialWriteError{Categories: created, Err: err}
}

func (im *Importer) checkRunningBalance(ctx context.Context, st store.TransactionStore, batch Batch) error {
	report, err := NewCalculator(st, im.logger).ComputeBalance(ctx)
	if err != nil {
		return err
	}
	balance := report.Balance
	for _, candidate := range batch.Candidates {
		tx := candidate.Transaction
		if tx.IsOutcome() && !balance.Covers(tx.Value) {
			return &ledgererror.RowError{
				Line:  candidate.Line,
				Field: "value",
				Value: tx.Value.String(),
				Err:   &ledgererror.InsufficientBalanceError{Requested: tx.Value, Available: balance.Total},
			}
		}
		balance = balance.Apply(tx)
	}
	return nil
}

// Import collects and commits a source read from r.
func (im *Importer) Import(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	batch, err := im.Collect(ctx, ReadRows(r, im.opts.Delimiter))
	if err != nil {
		return nil, err
	}
	return im.Commit(ctx, batch)
}

// CollectFile opens path and drains it into a Batch. An unopenable file
// fails with a SourceUnreadableError.
func (im *Importer) CollectFile(ctx context.Context, path string) (Batch, error) {
	file, err := fileutils.OpenFile(path)
	if err != nil {
		return Batch{}, &ledgererror.SourceUnreadableError{Path: path, Err: err}
	}
	defer file.Close()

	batch, err := im.Collect(ctx, ReadRows(file, im.opts.Delimiter))
	if err != nil {
		var unreadable *ledgererror.SourceUnreadableError
		if errors.As(err, &unreadable) && unreadable.Path == "" {
			unreadable.Path = path
		}
		return Batch{}, err
	}
	return batch, nil
}

// Consume removes an imported source when DeleteSource is set. Failing to
// remove it is logged and otherwise ignored; the import already succeeded.
func (im *Importer) Consume(path string) {
	if !im.opts.DeleteSource {
		return
	}
	if err := fileutils.RemoveFile(path); err != nil {
		im.logger.WithError(err).WithField(logging.FieldFile, path).Warn("Failed to remove imported file")
		return
	}
	im.logger.WithField(logging.FieldFile, path).Debug("Removed imported file")
}

// ImportFile imports the file at path and removes it afterwards when
// configured to.
func (im *Importer) ImportFile(ctx context.Context, path string) ([]models.Transaction, error) {
	start := time.Now()

	batch, err := im.CollectFile(ctx, path)
	if err != nil {
		return nil, err
	}
	saved, err := im.Commit(ctx, batch)
	if err != nil {
		return nil, err
	}
	im.Consume(path)

	im.logger.WithFields(
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(saved)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()),
	).Info("File imported")
	return saved, nil
}
