// Package sqlite provides a Store backed by a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Fixed width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// maxParams bounds the number of bound parameters in a single IN (...) query.
const maxParams = 500

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store and store.Transactor on SQLite.
type Store struct {
	db *sql.DB
	tx *sql.Tx
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

// Open opens (creating if needed) the database file at path and migrates it.
// In-memory databases are not supported since migrations run on their own
// connection.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := DSN(path)
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// DSN returns the connection string used for the database file at path.
func DSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database.
func (s *Store) Close() error {
	if s.tx != nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// atomically runs fn inside the surrounding transaction, or a new one.
func (s *Store) atomically(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunInTx runs fn in a single database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.atomically(ctx, func(q querier) error {
		return fn(ctx, &Store{db: s.db, tx: q.(*sql.Tx)})
	})
}

// ListCategories returns all categories in creation order.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.q().QueryContext(ctx,
		`SELECT id, title, created_at FROM categories ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return scanCategories(rows)
}

// FindCategoriesByTitles looks titles up with batched IN queries.
func (s *Store) FindCategoriesByTitles(ctx context.Context, titles []string) ([]models.Category, error) {
	var result []models.Category
	for start := 0; start < len(titles); start += maxParams {
		chunk := titles[start:min(start+maxParams, len(titles))]
		query := `SELECT id, title, created_at FROM categories WHERE title IN (` +
			placeholders(len(chunk)) + `) ORDER BY created_at, rowid`

		rows, err := s.q().QueryContext(ctx, query, toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("find categories: %w", err)
		}
		found, err := scanCategories(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, found...)
	}
	return result, nil
}

// FindOrCreateCategory inserts the title unless present, then reads it back.
// The unique index on title makes concurrent calls converge on one row.
func (s *Store) FindOrCreateCategory(ctx context.Context, title string) (models.Category, error) {
	var c models.Category
	err := s.atomically(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO categories (id, title, created_at) VALUES (?, ?, ?) ON CONFLICT(title) DO NOTHING`,
			uuid.NewString(), title, formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("insert category %q: %w", title, err)
		}
		var createdAt string
		err = q.QueryRowContext(ctx,
			`SELECT id, title, created_at FROM categories WHERE title = ?`, title).
			Scan(&c.ID, &c.Title, &createdAt)
		if err != nil {
			return fmt.Errorf("read category %q: %w", title, err)
		}
		c.CreatedAt, err = parseTime(createdAt)
		return err
	})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

// CreateCategories inserts every title in one transaction.
func (s *Store) CreateCategories(ctx context.Context, titles []string) ([]models.Category, error) {
	now := time.Now().UTC()
	created := make([]models.Category, 0, len(titles))

	err := s.atomically(ctx, func(q querier) error {
		for _, title := range titles {
			c := models.Category{ID: uuid.NewString(), Title: title, CreatedAt: now}
			_, err := q.ExecContext(ctx,
				`INSERT INTO categories (id, title, created_at) VALUES (?, ?, ?)`,
				c.ID, c.Title, formatTime(c.CreatedAt))
			if err != nil {
				return fmt.Errorf("create category %q: %w", title, translate(err))
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

const selectTransactions = `
SELECT t.id, t.title, t.value, t.type, t.category_id, t.created_at,
       c.id, c.title, c.created_at
FROM transactions t
JOIN categories c ON c.id = t.category_id`

// ListTransactions returns all transactions in creation order.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.q().QueryContext(ctx, selectTransactions+` ORDER BY t.created_at, t.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return result, nil
}

// GetTransaction returns the transaction with the given id.
func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	row := s.q().QueryRowContext(ctx, selectTransactions+` WHERE t.id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// SaveTransaction persists a single transaction.
func (s *Store) SaveTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	saved, err := s.SaveTransactions(ctx, []models.Transaction{tx})
	if err != nil {
		return models.Transaction{}, err
	}
	return saved[0], nil
}

// SaveTransactions inserts the batch in one transaction.
func (s *Store) SaveTransactions(ctx context.Context, txs []models.Transaction) ([]models.Transaction, error) {
	now := time.Now().UTC()
	saved := make([]models.Transaction, 0, len(txs))

	err := s.atomically(ctx, func(q querier) error {
		stmt, err := prepare(ctx, q,
			`INSERT INTO transactions (id, title, value, type, category_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, tx := range txs {
			if tx.ID == "" {
				tx.ID = uuid.NewString()
			}
			if tx.CreatedAt.IsZero() {
				tx.CreatedAt = now
			}
			_, err := stmt.ExecContext(ctx,
				tx.ID, tx.Title, tx.Value.String(), string(tx.Type), tx.CategoryID, formatTime(tx.CreatedAt))
			if err != nil {
				return fmt.Errorf("save transaction %q: %w", tx.Title, translate(err))
			}
			saved = append(saved, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Attach categories only after the batch is known to be committed.
	ids := make([]string, 0, len(saved))
	for _, tx := range saved {
		ids = append(ids, tx.CategoryID)
	}
	slices.Sort(ids)
	categories, err := s.categoriesByID(ctx, slices.Compact(ids))
	if err != nil {
		return nil, err
	}
	for i := range saved {
		if c, ok := categories[saved[i].CategoryID]; ok {
			saved[i].Category = &c
		}
	}
	return saved, nil
}

// RemoveTransaction deletes the transaction with the given id.
func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	res, err := s.q().ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) categoriesByID(ctx context.Context, ids []string) (map[string]models.Category, error) {
	result := make(map[string]models.Category, len(ids))
	for start := 0; start < len(ids); start += maxParams {
		chunk := ids[start:min(start+maxParams, len(ids))]
		rows, err := s.q().QueryContext(ctx,
			`SELECT id, title, created_at FROM categories WHERE id IN (`+placeholders(len(chunk))+`)`,
			toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		found, err := scanCategories(rows)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			result[c.ID] = c
		}
	}
	return result, nil
}

func prepare(ctx context.Context, q querier, query string) (*sql.Stmt, error) {
	switch p := q.(type) {
	case *sql.Tx:
		return p.PrepareContext(ctx, query)
	case *sql.DB:
		return p.PrepareContext(ctx, query)
	default:
		return nil, fmt.Errorf("unsupported querier %T", q)
	}
}

func scanCategories(rows *sql.Rows) ([]models.Category, error) {
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		var (
			c         models.Category
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		var err error
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var (
		tx                           models.Transaction
		c                            models.Category
		value, txType                string
		txCreatedAt, categoryCreated string
	)
	err := row.Scan(&tx.ID, &tx.Title, &value, &txType, &tx.CategoryID, &txCreatedAt,
		&c.ID, &c.Title, &categoryCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return tx, err
	}
	if err != nil {
		return tx, fmt.Errorf("scan transaction: %w", err)
	}

	if tx.Value, err = decimal.NewFromString(value); err != nil {
		return tx, fmt.Errorf("transaction %s: stored value %q: %w", tx.ID, value, err)
	}
	tx.Type = models.TransactionType(txType)
	if tx.CreatedAt, err = parseTime(txCreatedAt); err != nil {
		return tx, err
	}
	if c.CreatedAt, err = parseTime(categoryCreated); err != nil {
		return tx, err
	}
	tx.Category = &c
	return tx, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// translate maps constraint violations onto the store sentinels.
func translate(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: categories.title"):
		return fmt.Errorf("%w: %v", store.ErrDuplicateCategory, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", store.ErrUnknownCategory, err)
	default:
		return err
	}
}
