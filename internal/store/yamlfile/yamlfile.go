// Package yamlfile provides a Store persisted as a single YAML document.
// The whole ledger is held in memory and the file is rewritten after every
// committed change.
package yamlfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"
	"fjacquet/finances/internal/store/memory"

	"gopkg.in/yaml.v3"
)

// Store implements store.Store and store.Transactor on a YAML file.
type Store struct {
	mu   sync.Mutex
	path string
	mem  *memory.Store
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

// Open loads the ledger at path. A missing file is an empty ledger; it is
// created on the first change.
func Open(path string) (*Store, error) {
	snap, err := load(path)
	if err != nil {
		return nil, err
	}
	mem, err := memory.NewFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger file %s: %w", path, err)
	}
	return &Store{path: path, mem: mem}, nil
}

func load(path string) (store.Snapshot, error) {
	var snap store.Snapshot
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("error reading ledger file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("error parsing ledger file %s: %w", path, err)
	}
	return snap, nil
}

// write replaces the file atomically through a temporary sibling.
func (s *Store) write(snap store.Snapshot) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("error marshaling ledger: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error marshaling ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing ledger file: %w", err)
	}
	if err := tmp.Chmod(models.PermissionDataFile); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("error replacing ledger file %s: %w", s.path, err)
	}
	return nil
}

// mutate applies fn to a copy of the ledger and keeps the result only once
// it is on disk.
func (s *Store) mutate(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return s.write(tx.(*memory.Store).Snapshot())
	})
}

// RunInTx runs fn against the ledger and writes the file once at the end.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.mutate(ctx, fn)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.mem.ListCategories(ctx)
}

func (s *Store) FindCategoriesByTitles(ctx context.Context, titles []string) ([]models.Category, error) {
	return s.mem.FindCategoriesByTitles(ctx, titles)
}

// FindOrCreateCategory only touches the file when the category is new.
func (s *Store) FindOrCreateCategory(ctx context.Context, title string) (models.Category, error) {
	found, err := s.mem.FindCategoriesByTitles(ctx, []string{title})
	if err != nil {
		return models.Category{}, err
	}
	if len(found) > 0 {
		return found[0], nil
	}

	var c models.Category
	err = s.mutate(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		c, err = tx.FindOrCreateCategory(ctx, title)
		return err
	})
	return c, err
}

func (s *Store) CreateCategories(ctx context.Context, titles []string) ([]models.Category, error) {
	var created []models.Category
	err := s.mutate(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		created, err = tx.CreateCategories(ctx, titles)
		return err
	})
	return created, err
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.mem.ListTransactions(ctx)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return s.mem.GetTransaction(ctx, id)
}

func (s *Store) SaveTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	var saved models.Transaction
	err := s.mutate(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		saved, err = tx.SaveTransaction(ctx, t)
		return err
	})
	return saved, err
}

func (s *Store) SaveTransactions(ctx context.Context, txs []models.Transaction) ([]models.Transaction, error) {
	var saved []models.Transaction
	err := s.mutate(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		saved, err = tx.SaveTransactions(ctx, txs)
		return err
	})
	return saved, err
}

func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	return s.mutate(ctx, func(ctx context.Context, tx store.Store) error {
		return tx.RemoveTransaction(ctx, id)
	})
}

// Close is a no-op; every change is already on disk.
func (s *Store) Close() error {
	return nil
}

// Path returns the ledger file location.
func (s *Store) Path() string {
	return s.path
}
