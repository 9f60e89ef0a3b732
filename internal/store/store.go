// Package store defines the persistence collaborators of the ledger and the
// errors every backend reports.
package store

import (
	"context"
	"errors"
	"strings"

	"fjacquet/finances/internal/models"
)

var (
	// ErrNotFound is returned when an entity with the requested id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCategory is returned when a category title is already taken.
	ErrDuplicateCategory = errors.New("duplicate category title")
	// ErrUnknownCategory is returned when a transaction references a category
	// that is not persisted.
	ErrUnknownCategory = errors.New("unknown category reference")
)

// CategoryStore persists categories. Titles are unique and matched exactly.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	// FindCategoriesByTitles returns the categories whose title is in titles,
	// in a single lookup. Unknown titles are simply absent from the result.
	FindCategoriesByTitles(ctx context.Context, titles []string) ([]models.Category, error)
	// FindOrCreateCategory returns the category with the given title, creating
	// it when missing. It is atomic: concurrent callers get the same category.
	FindOrCreateCategory(ctx context.Context, title string) (models.Category, error)
	// CreateCategories creates one category per title in a single batch. Either
	// every category is created or none is.
	CreateCategories(ctx context.Context, titles []string) ([]models.Category, error)
}

// TransactionStore persists transactions.
type TransactionStore interface {
	// ListTransactions returns every transaction in creation order with its
	// category attached.
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	SaveTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	// SaveTransactions persists the batch all-or-nothing.
	SaveTransactions(ctx context.Context, txs []models.Transaction) ([]models.Transaction, error)
	RemoveTransaction(ctx context.Context, id string) error
}

// Store is a complete ledger backend.
type Store interface {
	CategoryStore
	TransactionStore
	Close() error
}

// Transactor is implemented by backends able to run several operations as
// one atomic unit. The Store handed to fn is only valid inside fn.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Snapshot is a complete copy of a ledger, used by file-backed stores.
type Snapshot struct {
	Categories   []models.Category    `yaml:"categories"`
	Transactions []models.Transaction `yaml:"transactions"`
}

// UniqueTitles returns the trimmed, non-empty titles in first-seen order
// with duplicates removed.
func UniqueTitles(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	result := make([]string, 0, len(titles))
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		result = append(result, title)
	}
	return result
}
