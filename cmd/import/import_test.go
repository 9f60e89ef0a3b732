package importcmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	importcmd "fjacquet/finances/cmd/import"
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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func run(t *testing.T, stdin string, args ...string) ([]importcmd.Result, error) {
	t.Helper()
	var out bytes.Buffer
	importcmd.Cmd.SetOut(&out)
	importcmd.Cmd.SetIn(strings.NewReader(stdin))
	importcmd.Cmd.SetArgs(append([]string{}, args...))
	err := importcmd.Cmd.Execute()

	var results []importcmd.Result
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	}
	return results, err
}

func TestImportCommand_Metadata(t *testing.T) {
	assert.Equal(t, "import [file...]", importcmd.Cmd.Use)
	assert.Contains(t, importcmd.Cmd.Long, "header")
	for _, name := range []string{"dir", "keep-source", "enforce-balance", "skip-invalid", "delimiter", "concurrency"} {
		assert.NotNil(t, importcmd.Cmd.Flags().Lookup(name), name)
	}
}

func TestImportCommand_Files(t *testing.T) {
	c := useMemoryLedger(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "a.csv", "title,type,value,category\ncoffee,outcome,5,food\n,outcome,10,food\nbonus,income,300,job\n")
	second := writeFile(t, dir, "b.csv", "title,type,value,category\nlunch,outcome,12,food\n")

	results, err := run(t, "", first, second)
	require.NoError(t, err)
	assert.Equal(t, []importcmd.Result{
		{Source: first, Imported: 2},
		{Source: second, Imported: 1},
	}, results)

	assert.NoFileExists(t, first)
	assert.NoFileExists(t, second)

	categories, err := c.GetLedger().Categories(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"food", "job"}, models.CategoryTitles(categories))
}

func TestImportCommand_Directory(t *testing.T) {
	c := useMemoryLedger(t)
	dir := t.TempDir()
	writeFile(t, dir, "one.csv", "h\na,income,1,x\n")
	writeFile(t, dir, "two.CSV", "h\nb,income,2,x\n")
	writeFile(t, dir, "notes.txt", "ignored")

	results, err := run(t, "", "--dir", dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoFileExists(t, filepath.Join(dir, "one.csv"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	report, err := c.GetLedger().Balance(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Transactions, 2)
}

func TestImportCommand_Stdin(t *testing.T) {
	c := useMemoryLedger(t)
	seed(t, c, "salary", models.TypeIncome, "10", "job")

	results, err := run(t, "title,type,value,category\nbook,outcome,4,leisure\n", "-")
	require.NoError(t, err)
	assert.Equal(t, []importcmd.Result{{Source: "-", Imported: 1}}, results)
}

func TestImportCommand_ReportsFailures(t *testing.T) {
	useMemoryLedger(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "h\na,income,1,x\n")
	bad := writeFile(t, dir, "bad.csv", "h\nb,transfer,1,x\n")
	missing := filepath.Join(dir, "missing.csv")

	results, err := run(t, "", good, bad, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv")
	assert.Contains(t, err.Error(), "missing.csv")

	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Imported)
	assert.Empty(t, results[0].Error)
	assert.Contains(t, results[1].Error, "line 2")
	assert.Contains(t, results[2].Error, "unreadable")

	assert.FileExists(t, bad, "a failed source is kept")
}

func TestImportCommand_NoSources(t *testing.T) {
	useMemoryLedger(t)

	_, err := run(t, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no import source given")
}

func TestImportCommand_StdinOnce(t *testing.T) {
	useMemoryLedger(t)

	_, err := run(t, "", "-", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin can only be imported once")
}
