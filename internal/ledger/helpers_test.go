package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/finances/internal/models"
	"fjacquet/finances/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seed stores one transaction directly, bypassing every ledger check.
func seed(t *testing.T, st store.Store, title string, txType models.TransactionType, value, category string) models.Transaction {
	t.Helper()
	ctx := context.Background()
	c, err := st.FindOrCreateCategory(ctx, category)
	require.NoError(t, err)
	tx, err := st.SaveTransaction(ctx, models.Transaction{Title: title, Type: txType, Value: dec(value), CategoryID: c.ID})
	require.NoError(t, err)
	return tx
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func balanceOf(t *testing.T, st store.TransactionStore) models.Balance {
	t.Helper()
	report, err := NewCalculator(st, nil).ComputeBalance(context.Background())
	require.NoError(t, err)
	return report.Balance
}

func titlesOf(txs []models.Transaction) []string {
	result := make([]string, 0, len(txs))
	for _, tx := range txs {
		result = append(result, tx.Title)
	}
	return result
}
