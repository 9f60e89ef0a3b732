// Package root contains the root command for the application
package root

import (
	"encoding/json"
	"fmt"

	"fjacquet/finances/internal/config"
	"fjacquet/finances/internal/container"
	"fjacquet/finances/internal/ledger"
	"fjacquet/finances/internal/logging"

	"github.com/spf13/cobra"
)

// GlobalFlags represents the flags shared by every command
type GlobalFlags struct {
	ConfigFile string
	Driver     string
	Database   string
	LogLevel   string
	LogFormat  string
}

var (
	// Flags holds the parsed persistent flags
	Flags = GlobalFlags{}

	appContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "finances",
		Short: "A CLI tool to keep a personal income and outcome ledger.",
		Long: `finances keeps a ledger of income and outcome transactions grouped by category.
It computes the running balance, refuses outcomes the balance cannot cover
and bulk imports transactions from CSV files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if appContainer != nil || !needsContainer(cmd) {
				return nil
			}
			return setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return Teardown()
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&Flags.ConfigFile, "config", "", "Config file (default searches $HOME/.finances, .finances and .)")
	Cmd.PersistentFlags().StringVar(&Flags.Driver, "driver", "", "Storage driver: memory, sqlite or yaml")
	Cmd.PersistentFlags().StringVar(&Flags.Database, "database", "", "Ledger database path")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&Flags.LogFormat, "log-format", "", "Log format (text or json)")
}

// needsContainer reports whether cmd touches the ledger. Help and
// completion commands must work without a database.
func needsContainer(cmd *cobra.Command) bool {
	return cmd.HasParent() && cmd.Name() != "help" && cmd.Name() != "completion" &&
		cmd.Parent().Name() != "completion"
}

func setup(cmd *cobra.Command) error {
	// Ignored when absent; real environment variables win
	_, _ = config.LoadEnv()

	cfg, err := config.InitializeConfigFromFile(Flags.ConfigFile)
	if err != nil {
		return err
	}
	ApplyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	SetContainer(c)
	return nil
}

// ApplyFlagOverrides copies explicitly set persistent flags onto cfg.
func ApplyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Database.Driver = Flags.Driver
	}
	if flags.Changed("database") {
		cfg.Database.Path = Flags.Database
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = Flags.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = Flags.LogFormat
	}

	// Import flags only exist on the import command.
	if flags.Changed("keep-source") {
		keep, _ := flags.GetBool("keep-source")
		cfg.Import.DeleteSource = !keep
	}
	if flags.Changed("enforce-balance") {
		cfg.Import.EnforceBalance, _ = flags.GetBool("enforce-balance")
	}
	if flags.Changed("skip-invalid") {
		cfg.Import.SkipInvalidRows, _ = flags.GetBool("skip-invalid")
	}
	if flags.Changed("delimiter") {
		cfg.Import.Delimiter, _ = flags.GetString("delimiter")
	}
	if flags.Changed("concurrency") {
		cfg.Import.Concurrency, _ = flags.GetInt("concurrency")
	}
}

// SetContainer installs the container used by the commands. Tests use it to
// run commands against an in-memory ledger.
func SetContainer(c *container.Container) {
	appContainer = c
}

// GetContainer returns the application container, nil before setup.
func GetContainer() *container.Container {
	return appContainer
}

// GetLedger returns the ledger of the application container.
func GetLedger() (*ledger.Ledger, error) {
	if appContainer == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return appContainer.GetLedger(), nil
}

// GetLogger returns the application logger, or a no-op logger before setup.
func GetLogger() logging.Logger {
	if appContainer == nil {
		return logging.Nop()
	}
	return appContainer.GetLogger()
}

// Teardown closes the application container.
func Teardown() error {
	if appContainer == nil {
		return nil
	}
	err := appContainer.Close()
	appContainer = nil
	return err
}

// PrintJSON writes v as indented JSON to the command output.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
