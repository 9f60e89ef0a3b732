// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run executes the shared backend checks against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("find or create is idempotent", func(t *testing.T) { testFindOrCreate(t, newStore(t)) })
	t.Run("concurrent find or create", func(t *testing.T) { testConcurrentFindOrCreate(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("batch save is all or nothing", func(t *testing.T) { testBatchAtomicity(t, newStore(t)) })
	t.Run("remove", func(t *testing.T) { testRemove(t, newStore(t)) })

	if _, ok := newStore(t).(store.Transactor); ok {
		t.Run("run in tx", func(t *testing.T) { testRunInTx(t, newStore(t)) })
	}
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.CreateCategories(ctx, []string{"food", "job"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEmpty(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Equal(t, "food", created[0].Title)
	assert.False(t, created[0].CreatedAt.IsZero())

	_, err = s.CreateCategories(ctx, []string{"rent", "food"})
	assert.ErrorIs(t, err, store.ErrDuplicateCategory)

	all, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "job"}, models.CategoryTitles(all), "failed batch must not leave rent behind")

	found, err := s.FindCategoriesByTitles(ctx, []string{"job", "rent", "Food"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created[1].ID, found[0].ID)

	none, err := s.FindCategoriesByTitles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testFindOrCreate(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, err := s.FindOrCreateCategory(ctx, "food")
	require.NoError(t, err)
	second, err := s.FindOrCreateCategory(ctx, "food")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := s.FindOrCreateCategory(ctx, "Food")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "titles are matched exactly")

	all, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testConcurrentFindOrCreate(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers = 16

	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c, err := s.FindOrCreateCategory(ctx, "groceries")
			ids[i], errs[i] = c.ID, err
		}()
	}
	close(start)
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	all, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()

	food, err := s.FindOrCreateCategory(ctx, "food")
	require.NoError(t, err)

	saved, err := s.SaveTransaction(ctx, models.Transaction{
		Title:      "groceries",
		Value:      decimal.RequireFromString("12.34"),
		Type:       models.TypeOutcome,
		CategoryID: food.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, "food", saved.CategoryTitle())

	batch, err := s.SaveTransactions(ctx, []models.Transaction{
		{Title: "salary", Value: decimal.NewFromInt(5000), Type: models.TypeIncome, CategoryID: food.ID},
		{Title: "bonus", Value: decimal.RequireFromString("0.10"), Type: models.TypeIncome, CategoryID: food.ID},
	})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	got, err := s.GetTransaction(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", got.Title)
	assert.True(t, decimal.RequireFromString("12.34").Equal(got.Value))
	assert.Equal(t, models.TypeOutcome, got.Type)
	assert.Equal(t, food.ID, got.CategoryID)
	require.NotNil(t, got.Category)
	assert.Equal(t, "food", got.Category.Title)

	list, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"groceries", "salary", "bonus"}, titles(list))
	assert.True(t, decimal.RequireFromString("0.10").Equal(list[2].Value))

	_, err = s.GetTransaction(ctx, "does-not-exist")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testBatchAtomicity(t *testing.T, s store.Store) {
	ctx := context.Background()

	food, err := s.FindOrCreateCategory(ctx, "food")
	require.NoError(t, err)

	_, err = s.SaveTransactions(ctx, []models.Transaction{
		{Title: "ok", Value: decimal.NewFromInt(1), Type: models.TypeIncome, CategoryID: food.ID},
		{Title: "dangling", Value: decimal.NewFromInt(1), Type: models.TypeIncome, CategoryID: "missing"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnknownCategory)

	list, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testRemove(t *testing.T, s store.Store) {
	ctx := context.Background()

	food, err := s.FindOrCreateCategory(ctx, "food")
	require.NoError(t, err)
	a, err := s.SaveTransaction(ctx, models.Transaction{Title: "a", Value: decimal.NewFromInt(1), Type: models.TypeIncome, CategoryID: food.ID})
	require.NoError(t, err)
	b, err := s.SaveTransaction(ctx, models.Transaction{Title: "b", Value: decimal.NewFromInt(2), Type: models.TypeIncome, CategoryID: food.ID})
	require.NoError(t, err)

	require.NoError(t, s.RemoveTransaction(ctx, a.ID))
	assert.ErrorIs(t, s.RemoveTransaction(ctx, a.ID), store.ErrNotFound)

	list, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1, "removing a transaction keeps its category")
}

func testRunInTx(t *testing.T, s store.Store) {
	ctx := context.Background()
	tr := s.(store.Transactor)
	boom := errors.New("boom")

	err := tr.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		cats, err := tx.CreateCategories(ctx, []string{"food"})
		if err != nil {
			return err
		}
		if _, err := tx.SaveTransactions(ctx, []models.Transaction{
			{Title: "x", Value: decimal.NewFromInt(1), Type: models.TypeIncome, CategoryID: cats[0].ID},
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats, "rolled back categories must not be visible")
	list, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = tr.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		cats, err := tx.CreateCategories(ctx, []string{"food"})
		if err != nil {
			return err
		}
		_, err = tx.SaveTransactions(ctx, []models.Transaction{
			{Title: "x", Value: decimal.NewFromInt(1), Type: models.TypeIncome, CategoryID: cats[0].ID},
		})
		return err
	})
	require.NoError(t, err)

	list, err = s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "food", list[0].CategoryTitle())
}

func titles(txs []models.Transaction) []string {
	result := make([]string, 0, len(txs))
	for _, tx := range txs {
		result = append(result, tx.Title)
	}
	return result
}
