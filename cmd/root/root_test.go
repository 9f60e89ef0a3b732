package root_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fjacquet/finances/cmd/root"
	"fjacquet/finances/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var initOnce sync.Once

// inspect records the configuration the container was built with.
var (
	inspectedConfig *config.Config
	inspect         = &cobra.Command{
		Use: "inspect",
		RunE: func(cmd *cobra.Command, args []string) error {
			inspectedConfig = root.GetContainer().GetConfig()
			_, err := root.GetLedger()
			return err
		},
	}
)

func setupRoot(t *testing.T) {
	t.Helper()
	initOnce.Do(func() {
		root.Init()
		root.Cmd.AddCommand(inspect)
	})
	for _, key := range []string{"FINANCES_DATABASE_DRIVER", "FINANCES_DATABASE_PATH", "FINANCES_LOG_LEVEL", "FINANCES_EVENTS_ENABLED"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	root.Cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	inspectedConfig = nil
	t.Cleanup(func() { _ = root.Teardown() })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "finances", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "ledger")
	assert.Contains(t, root.Cmd.Long, "bulk imports transactions from CSV files")
	assert.NotNil(t, root.Cmd.RunE)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRunE)
}

func TestRootCommand_Flags(t *testing.T) {
	setupRoot(t)

	for _, name := range []string{"config", "driver", "database", "log-level", "log-format"} {
		assert.NotNil(t, root.Cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCommand_BuildsContainerFromConfigFile(t *testing.T) {
	setupRoot(t)
	path := writeConfig(t, "database:\n  driver: memory\nlog:\n  level: error\n")

	root.Cmd.SetArgs([]string{"--config", path, "inspect"})
	require.NoError(t, root.Cmd.Execute())

	require.NotNil(t, inspectedConfig)
	assert.Equal(t, config.DriverMemory, inspectedConfig.Database.Driver)
	assert.Nil(t, root.GetContainer(), "container is closed after the command")
}

func TestRootCommand_FlagsOverrideConfig(t *testing.T) {
	setupRoot(t)
	path := writeConfig(t, "database:\n  driver: memory\nlog:\n  level: error\n")
	ledgerPath := filepath.Join(t.TempDir(), "ledger.yaml")

	root.Cmd.SetArgs([]string{"--config", path, "inspect", "--driver", "yaml", "--database", ledgerPath, "--log-format", "json"})
	require.NoError(t, root.Cmd.Execute())

	require.NotNil(t, inspectedConfig)
	assert.Equal(t, config.DriverYAML, inspectedConfig.Database.Driver)
	assert.Equal(t, ledgerPath, inspectedConfig.Database.Path)
	assert.Equal(t, "json", inspectedConfig.Log.Format)
}

func TestRootCommand_InvalidOverride(t *testing.T) {
	setupRoot(t)
	path := writeConfig(t, "database:\n  driver: memory\n")

	root.Cmd.SetArgs([]string{"--config", path, "inspect", "--driver", "postgres"})
	err := root.Cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database driver")
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	setupRoot(t)

	root.Cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "inspect"})
	err := root.Cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestRootCommand_HelpSkipsContainer(t *testing.T) {
	setupRoot(t)
	var out bytes.Buffer
	root.Cmd.SetOut(&out)
	t.Cleanup(func() { root.Cmd.SetOut(nil) })

	root.Cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "help", "inspect"})
	require.NoError(t, root.Cmd.Execute())

	assert.Nil(t, inspectedConfig)
	_, err := root.GetLedger()
	assert.EqualError(t, err, "container not initialized")
}

func TestGetLedger_BeforeSetup(t *testing.T) {
	require.NoError(t, root.Teardown())

	_, err := root.GetLedger()
	assert.EqualError(t, err, "container not initialized")
	assert.NotNil(t, root.GetLogger())
}

func TestPrintJSON(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, root.PrintJSON(cmd, map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", buf.String())
}

func TestApplyFlagOverrides_ImportFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "import"}
	cmd.Flags().Bool("keep-source", false, "")
	cmd.Flags().Bool("enforce-balance", false, "")
	cmd.Flags().Bool("skip-invalid", false, "")
	cmd.Flags().String("delimiter", "", "")
	cmd.Flags().Int("concurrency", 0, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--keep-source", "--enforce-balance", "--skip-invalid", "--delimiter", ";", "--concurrency", "8"}))

	cfg := &config.Config{}
	cfg.Import.DeleteSource = true
	cfg.Import.Delimiter = ","
	cfg.Import.Concurrency = 4
	root.ApplyFlagOverrides(cmd, cfg)

	assert.False(t, cfg.Import.DeleteSource)
	assert.True(t, cfg.Import.EnforceBalance)
	assert.True(t, cfg.Import.SkipInvalidRows)
	assert.Equal(t, ";", cfg.Import.Delimiter)
	assert.Equal(t, 8, cfg.Import.Concurrency)
}

func TestApplyFlagOverrides_UnsetFlagsKeepConfig(t *testing.T) {
	cmd := &cobra.Command{Use: "balance"}
	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverSQLite
	cfg.Import.DeleteSource = true

	root.ApplyFlagOverrides(cmd, cfg)

	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.Import.DeleteSource)
}
