package export_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/finances/cmd/export"
	"fjacquet/finances/cmd/root"
	"fjacquet/finances/internal/config"
	"fjacquet/finances/internal/container"
	"fjacquet/finances/internal/ledger"
	"fjacquet/finances/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryLedger(t *testing.T) *container.Container {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"
	cfg.Database.Driver = config.DriverMemory
	cfg.Import.Delimiter = ","
	cfg.Import.DeleteSource = true
	cfg.Import.Concurrency = 2

	c, err := container.NewContainer(cfg)
	require.NoError(t, err)
	root.SetContainer(c)
	t.Cleanup(func() { _ = root.Teardown() })
	return c
}
func seed(t *testing.T, c *container.Container, title string, txType models.TransactionType, value, category string) models.Transaction {
	t.Helper()
	tx, err := c.GetLedger().Create(context.Background(), ledger.CreateRequest{
		Title:    title,
		Value:    decimal.RequireFromString(value),
		Type:     txType,
		Category: category,
	})
	require.NoError(t, err)
	return tx
}

func TestExportCommand_Stdout(t *testing.T) {
	c := useMemoryLedger(t)
	seed(t, c, "salary", models.TypeIncome, "1000", "job")
	seed(t, c, "rent", models.TypeOutcome, "400.5", "housing")

	var out bytes.Buffer
	export.Cmd.SetOut(&out)
	export.Cmd.SetArgs([]string{"--output", ""})
	require.NoError(t, export.Cmd.Execute())

	assert.Equal(t, "title,type,value,category\nsalary,income,1000.00,job\nrent,outcome,400.50,housing\n", out.String())
}

func TestExportCommand_File(t *testing.T) {
	c := useMemoryLedger(t)
	seed(t, c, "salary", models.TypeIncome, "1000", "job")
	path := filepath.Join(t.TempDir(), "backup.csv")

	export.Cmd.SetArgs([]string{"-o", path})
	require.NoError(t, export.Cmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "title,type,value,category\nsalary,income,1000.00,job\n", string(data))
}

func TestExportCommand_Verify(t *testing.T) {
	c := useMemoryLedger(t)
	seed(t, c, "salary", models.TypeIncome, "1000", "job")
	seed(t, c, "lunch, with team", models.TypeOutcome, "12.5", "food")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "file", args: []string{"-o", filepath.Join(t.TempDir(), "backup.csv"), "--verify"}},
		{name: "stdout", args: []string{"--output", "", "--verify"}, wantErr: "--verify requires --output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			export.Cmd.SetOut(&bytes.Buffer{})
			export.Cmd.SetArgs(tt.args)
			t.Cleanup(func() { _ = export.Cmd.Flags().Set("verify", "false") })

			err := export.Cmd.Execute()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
