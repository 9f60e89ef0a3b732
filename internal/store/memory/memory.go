// Package memory provides a Store kept entirely in process memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"

	"github.com/google/uuid"
)

// Store implements store.Store and store.Transactor with in-memory maps.
type Store struct {
	mu sync.RWMutex
	state
}

type state struct {
	categories    map[string]models.Category
	titleIndex    map[string]string
	categoryOrder []string

	transactions map[string]models.Transaction
	txOrder      []string
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{state: newState()}
}

// NewFromSnapshot creates a store holding the content of snap. It fails if
// the snapshot repeats a category title or references an unknown category.
func NewFromSnapshot(snap store.Snapshot) (*Store, error) {
	s := New()
	for _, c := range snap.Categories {
		if _, ok := s.titleIndex[c.Title]; ok {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateCategory, c.Title)
		}
		s.putCategory(c)
	}
	for _, tx := range snap.Transactions {
		if _, ok := s.categories[tx.CategoryID]; !ok {
			return nil, fmt.Errorf("transaction %s: %w: %s", tx.ID, store.ErrUnknownCategory, tx.CategoryID)
		}
		tx.Category = nil
		s.putTransaction(tx)
	}
	return s, nil
}

func newState() state {
	return state{
		categories:   make(map[string]models.Category),
		titleIndex:   make(map[string]string),
		transactions: make(map[string]models.Transaction),
	}
}

func (st *state) clone() state {
	c := state{
		categories:    make(map[string]models.Category, len(st.categories)),
		titleIndex:    make(map[string]string, len(st.titleIndex)),
		categoryOrder: slices.Clone(st.categoryOrder),
		transactions:  make(map[string]models.Transaction, len(st.transactions)),
		txOrder:       slices.Clone(st.txOrder),
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.titleIndex {
		c.titleIndex[k] = v
	}
	for k, v := range st.transactions {
		c.transactions[k] = v
	}
	return c
}

func (st *state) putCategory(c models.Category) {
	st.categories[c.ID] = c
	st.titleIndex[c.Title] = c.ID
	st.categoryOrder = append(st.categoryOrder, c.ID)
}

func (st *state) putTransaction(tx models.Transaction) {
	st.transactions[tx.ID] = tx
	st.txOrder = append(st.txOrder, tx.ID)
}

// withCategory returns tx with its category attached.
func (st *state) withCategory(tx models.Transaction) models.Transaction {
	if c, ok := st.categories[tx.CategoryID]; ok {
		tx.Category = &c
	}
	return tx
}

// Snapshot returns a copy of the whole store content in insertion order.
func (s *Store) Snapshot() store.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := store.Snapshot{
		Categories:   make([]models.Category, 0, len(s.categoryOrder)),
		Transactions: make([]models.Transaction, 0, len(s.txOrder)),
	}
	for _, id := range s.categoryOrder {
		snap.Categories = append(snap.Categories, s.categories[id])
	}
	for _, id := range s.txOrder {
		snap.Transactions = append(snap.Transactions, s.transactions[id])
	}
	return snap
}

// ListCategories returns all categories in creation order.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Category, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		result = append(result, s.categories[id])
	}
	return result, nil
}

// FindCategoriesByTitles returns the categories matching titles exactly.
func (s *Store) FindCategoriesByTitles(ctx context.Context, titles []string) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Category
	seen := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		if id, ok := s.titleIndex[title]; ok {
			result = append(result, s.categories[id])
		}
	}
	return result, nil
}

// FindOrCreateCategory returns the category titled title, creating it under
// the write lock when it does not exist yet.
func (s *Store) FindOrCreateCategory(ctx context.Context, title string) (models.Category, error) {
	if err := ctx.Err(); err != nil {
		return models.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.titleIndex[title]; ok {
		return s.categories[id], nil
	}
	c := models.Category{ID: uuid.NewString(), Title: title, CreatedAt: time.Now().UTC()}
	s.putCategory(c)
	return c, nil
}

// CreateCategories creates all titles or none of them.
func (s *Store) CreateCategories(ctx context.Context, titles []string) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		if _, ok := s.titleIndex[title]; ok {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateCategory, title)
		}
		if _, ok := pending[title]; ok {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateCategory, title)
		}
		pending[title] = struct{}{}
	}

	now := time.Now().UTC()
	created := make([]models.Category, 0, len(titles))
	for _, title := range titles {
		c := models.Category{ID: uuid.NewString(), Title: title, CreatedAt: now}
		s.putCategory(c)
		created = append(created, c)
	}
	return created, nil
}

// ListTransactions returns all transactions in creation order.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Transaction, 0, len(s.txOrder))
	for _, id := range s.txOrder {
		result = append(result, s.withCategory(s.transactions[id]))
	}
	return result, nil
}

// GetTransaction returns the transaction with the given id.
func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return models.Transaction{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return s.withCategory(tx), nil
}

// SaveTransaction persists a single transaction.
func (s *Store) SaveTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	saved, err := s.SaveTransactions(ctx, []models.Transaction{tx})
	if err != nil {
		return models.Transaction{}, err
	}
	return saved[0], nil
}

// SaveTransactions validates the whole batch before storing any of it.
func (s *Store) SaveTransactions(ctx context.Context, txs []models.Transaction) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	prepared := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, ok := s.categories[tx.CategoryID]; !ok {
			return nil, fmt.Errorf("transaction %q: %w: %s", tx.Title, store.ErrUnknownCategory, tx.CategoryID)
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		} else if _, exists := s.transactions[tx.ID]; exists {
			return nil, fmt.Errorf("transaction %s already exists", tx.ID)
		}
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = now
		}
		tx.Category = nil
		prepared = append(prepared, tx)
	}

	saved := make([]models.Transaction, 0, len(prepared))
	for _, tx := range prepared {
		s.putTransaction(tx)
		saved = append(saved, s.withCategory(tx))
	}
	return saved, nil
}

// RemoveTransaction deletes the transaction with the given id.
func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	delete(s.transactions, id)
	if i := slices.Index(s.txOrder, id); i >= 0 {
		s.txOrder = slices.Delete(s.txOrder, i, i+1)
	}
	return nil
}

// RunInTx runs fn against a private copy of the store and swaps the copy in
// only when fn succeeds. The store is write-locked for the duration.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	child := &Store{state: s.state.clone()}
	if err := fn(ctx, child); err != nil {
		return err
	}
	s.state = child.state
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
