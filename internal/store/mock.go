package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"fjacquet/finances/internal/models"
)

// MockStore is an in-memory Store for testing. It records how often each
// batch operation is called and can be told to fail any of them. It does not
// implement Transactor.
type MockStore struct {
	mu sync.Mutex

	Categories   []models.Category
	Transactions []models.Transaction

	// Error flags for testing error conditions
	ListCategoriesError       error
	FindCategoriesError       error
	FindOrCreateCategoryError error
	CreateCategoriesError     error
	ListTransactionsError     error
	GetTransactionError       error
	SaveTransactionError      error
	SaveTransactionsError     error
	RemoveTransactionError    error

	// Call recording
	FindCategoriesCalls   int
	CreateCategoriesCalls int
	SaveTransactionCalls  int
	SaveTransactionsCalls int
	CreatedTitles         [][]string
	Closed                bool

	nextID int
}

func (m *MockStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// ListCategories returns the mock categories.
func (m *MockStore) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListCategoriesError != nil {
		return nil, m.ListCategoriesError
	}
	return slices.Clone(m.Categories), nil
}

// FindCategoriesByTitles returns the mock categories matching titles.
func (m *MockStore) FindCategoriesByTitles(_ context.Context, titles []string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCategoriesCalls++
	if m.FindCategoriesError != nil {
		return nil, m.FindCategoriesError
	}
	var result []models.Category
	for _, c := range m.Categories {
		if slices.Contains(titles, c.Title) {
			result = append(result, c)
		}
	}
	return result, nil
}

// FindOrCreateCategory returns the category titled title, adding it if missing.
func (m *MockStore) FindOrCreateCategory(_ context.Context, title string) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindOrCreateCategoryError != nil {
		return models.Category{}, m.FindOrCreateCategoryError
	}
	if c, ok := models.FindCategoryByTitle(m.Categories, title); ok {
		return c, nil
	}
	c := models.Category{ID: m.id("cat"), Title: title, CreatedAt: time.Now()}
	m.Categories = append(m.Categories, c)
	return c, nil
}

// CreateCategories adds one category per title.
func (m *MockStore) CreateCategories(_ context.Context, titles []string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCategoriesCalls++
	m.CreatedTitles = append(m.CreatedTitles, slices.Clone(titles))
	if m.CreateCategoriesError != nil {
		return nil, m.CreateCategoriesError
	}
	created := make([]models.Category, 0, len(titles))
	for _, title := range titles {
		if _, ok := models.FindCategoryByTitle(m.Categories, title); ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCategory, title)
		}
		created = append(created, models.Category{ID: m.id("cat"), Title: title, CreatedAt: time.Now()})
	}
	m.Categories = append(m.Categories, created...)
	return created, nil
}

// ListTransactions returns the mock transactions.
func (m *MockStore) ListTransactions(_ context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListTransactionsError != nil {
		return nil, m.ListTransactionsError
	}
	return slices.Clone(m.Transactions), nil
}

// GetTransaction returns the mock transaction with the given id.
func (m *MockStore) GetTransaction(_ context.Context, id string) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTransactionError != nil {
		return models.Transaction{}, m.GetTransactionError
	}
	for _, tx := range m.Transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// SaveTransaction appends tx.
func (m *MockStore) SaveTransaction(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveTransactionCalls++
	if m.SaveTransactionError != nil {
		return models.Transaction{}, m.SaveTransactionError
	}
	tx = m.stamp(tx)
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}

// SaveTransactions appends the whole batch.
func (m *MockStore) SaveTransactions(_ context.Context, txs []models.Transaction) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveTransactionsCalls++
	if m.SaveTransactionsError != nil {
		return nil, m.SaveTransactionsError
	}
	saved := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		saved = append(saved, m.stamp(tx))
	}
	m.Transactions = append(m.Transactions, saved...)
	return saved, nil
}

// RemoveTransaction deletes the transaction with the given id.
func (m *MockStore) RemoveTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveTransactionError != nil {
		return m.RemoveTransactionError
	}
	for i, tx := range m.Transactions {
		if tx.ID == id {
			m.Transactions = slices.Delete(m.Transactions, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// Close marks the store closed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockStore) stamp(tx models.Transaction) models.Transaction {
	if tx.ID == "" {
		tx.ID = m.id("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if c, ok := findCategoryByID(m.Categories, tx.CategoryID); ok {
		tx.Category = &c
	}
	return tx
}

func findCategoryByID(categories []models.Category, id string) (models.Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}
