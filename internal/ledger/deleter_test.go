package ledger

import (
	"context"
	"errors"
	"testing"

	"fjacquet/finances/internal/ledgererror"
	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"
	"fjacquet/finances/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelete_UnknownID(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seed(t, st, "salary", models.TypeIncome, "1000", "job")

	err := NewDeleter(st, nil).Delete(ctx, "unknown-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, ledgererror.ErrNotFound)

	var notFound *ledgererror.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "unknown-id", notFound.ID)
	assert.Equal(t, "transaction", notFound.Entity)

	txs, err := st.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestDelete_RemovesOnlyTheTransaction(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	keep := seed(t, st, "salary", models.TypeIncome, "1000", "job")
	drop := seed(t, st, "rent", models.TypeOutcome, "400", "housing")

	require.NoError(t, NewDeleter(st, nil).Delete(ctx, drop.ID))

	txs, err := st.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, keep.ID, txs[0].ID)

	// Categories are not cascaded.
	cats, err := st.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"job", "housing"}, models.CategoryTitles(cats))

	assert.True(t, dec("1000").Equal(balanceOf(t, st).Total))

	// A second delete of the same id is NotFound.
	assert.ErrorIs(t, NewDeleter(st, nil).Delete(ctx, drop.ID), ledgererror.ErrNotFound)
}

func TestDelete_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("locked")
	err := NewDeleter(&store.MockStore{RemoveTransactionError: boom}, nil).Delete(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ledgererror.ErrNotFound)
}
