package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"
	"fjacquet/finances/internal/store/storetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTemp(t)
	})
}

func TestOpen_CreatesDirectoryAndIsReopenable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")

	s, err := Open(path)
	require.NoError(t, err)
	food, err := s.FindOrCreateCategory(ctx, "food")
	require.NoError(t, err)
	_, err = s.SaveTransaction(ctx, models.Transaction{
		Title: "bread", Value: decimal.RequireFromString("2.35"), Type: models.TypeOutcome, CategoryID: food.ID,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Migrations are idempotent on an existing schema.
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2.35", list[0].Value.String())
	assert.Equal(t, food.ID, list[0].Category.ID)
}

func TestFindCategoriesByTitles_Chunked(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	titles := make([]string, 0, maxParams+20)
	for i := range maxParams + 20 {
		titles = append(titles, "category-"+decimal.NewFromInt(int64(i)).String())
	}
	_, err := s.CreateCategories(ctx, titles)
	require.NoError(t, err)

	found, err := s.FindCategoriesByTitles(ctx, titles)
	require.NoError(t, err)
	assert.Len(t, found, len(titles))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	a, err := parseTime("2024-01-02T03:04:05.100000000Z")
	require.NoError(t, err)
	b, err := parseTime("2024-01-02T03:04:05.120000000Z")
	require.NoError(t, err)
	assert.True(t, a.Before(b))
	assert.Less(t, formatTime(a), formatTime(b))
}
