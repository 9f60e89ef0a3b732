package ledger

import (
	"context"
	"fmt"
	"io"
	"sync"

	"fjacquet/finances/internal/events"
	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"
)

// Ledger is the entry point used by the delivery layer. It is the single
// writer of one logical ledger: creations, deletions and import commits are
// serialised, so a balance check and the write it guards cannot interleave
// with another writer. Reading and parsing import sources happen outside
// the lock.
type Ledger struct {
	mu sync.Mutex

	store      store.Store
	calculator *Calculator
	creator    *Creator
	deleter    *Deleter
	importer   *Importer
	publisher  events.Publisher
	logger     logging.Logger
}

// New wires a Ledger over st. A nil publisher disables events.
func New(st store.Store, opts ImportOptions, publisher events.Publisher, logger logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.Nop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Ledger{
		store:      st,
		calculator: NewCalculator(st, logger),
		creator:    NewCreator(st, st, logger),
		deleter:    NewDeleter(st, logger),
		importer:   NewImporter(st, opts, logger),
		publisher:  publisher,
		logger:     logger.WithField(logging.FieldComponent, logging.ComponentLedger),
	}
}

// Balance returns every transaction and the balance over them.
func (l *Ledger) Balance(ctx context.Context) (models.Report, error) {
	return l.calculator.ComputeBalance(ctx)
}

// Categories lists all categories.
func (l *Ledger) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := l.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// Create inserts a single transaction. See Creator.Create.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (models.Transaction, error) {
	l.mu.Lock()
	tx, err := l.creator.Create(ctx, req)
	l.mu.Unlock()
	if err != nil {
		return models.Transaction{}, err
	}

	l.publish(ctx, events.NewEvent(events.KindTransactionCreated, []string{tx.ID}, []string{tx.CategoryID}))
	return tx, nil
}

// Delete removes a transaction. See Deleter.Delete.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	err := l.deleter.Delete(ctx, id)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	l.publish(ctx, events.NewEvent(events.KindTransactionDeleted, []string{id}, nil))
	return nil
}

// ImportFile imports the file at path. The file is parsed before the write
// lock is taken and removed after the commit when configured to.
func (l *Ledger) ImportFile(ctx context.Context, path string) ([]models.Transaction, error) {
	batch, err := l.importer.CollectFile(ctx, path)
	if err != nil {
		return nil, err
	}

	saved, err := l.commit(ctx, batch)
	if err != nil {
		return nil, err
	}
	l.importer.Consume(path)

	if len(saved) > 0 {
		event := importedEvent(saved)
		event.Source = path
		l.publish(ctx, event)
	}
	return saved, nil
}

// Import imports a source read from r.
func (l *Ledger) Import(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	batch, err := l.importer.Collect(ctx, ReadRows(r, l.importer.opts.Delimiter))
	if err != nil {
		return nil, err
	}

	saved, err := l.commit(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(saved) > 0 {
		l.publish(ctx, importedEvent(saved))
	}
	return saved, nil
}

func (l *Ledger) commit(ctx context.Context, batch Batch) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.importer.Commit(ctx, batch)
}

func importedEvent(saved []models.Transaction) events.Event {
	txIDs := make([]string, 0, len(saved))
	var categoryIDs []string
	seen := make(map[string]struct{})
	for _, tx := range saved {
		txIDs = append(txIDs, tx.ID)
		if _, ok := seen[tx.CategoryID]; !ok {
			seen[tx.CategoryID] = struct{}{}
			categoryIDs = append(categoryIDs, tx.CategoryID)
		}
	}
	return events.NewEvent(events.KindTransactionsImported, txIDs, categoryIDs)
}

// publish never fails the operation that produced the event.
func (l *Ledger) publish(ctx context.Context, event events.Event) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.WithError(err).WithField(logging.FieldEvent, string(event.Kind)).Warn("Failed to publish event")
	}
}
