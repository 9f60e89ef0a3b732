// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverYAML   = "yaml"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Driver string `mapstructure:"driver" yaml:"driver"`
		Path   string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Import struct {
		Delimiter       string `mapstructure:"delimiter" yaml:"delimiter"`
		DeleteSource    bool   `mapstructure:"delete_source" yaml:"delete_source"`
		EnforceBalance  bool   `mapstructure:"enforce_balance" yaml:"enforce_balance"`
		SkipInvalidRows bool   `mapstructure:"skip_invalid_rows" yaml:"skip_invalid_rows"`
		Concurrency     int    `mapstructure:"concurrency" yaml:"concurrency"`
	} `mapstructure:"import" yaml:"import"`

	Events struct {
		Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
		URL        string `mapstructure:"url" yaml:"-"` // may carry credentials
		Exchange   string `mapstructure:"exchange" yaml:"exchange"`
		RoutingKey string `mapstructure:"routing_key" yaml:"routing_key"`
	} `mapstructure:"events" yaml:"events"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile behaves like InitializeConfig but reads the given
// file instead of searching the default locations when path is not empty.
func InitializeConfigFromFile(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.finances")
		v.AddConfigPath(".finances")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("FINANCES")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. The broker URL is commonly provided unprefixed
	if err := v.BindEnv("events.url", "FINANCES_EVENTS_URL", "AMQP_URL"); err != nil {
		fmt.Printf("Warning: failed to bind AMQP_URL environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "finances.db")

	// Import defaults
	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.delete_source", true)
	v.SetDefault("import.enforce_balance", false)
	v.SetDefault("import.skip_invalid_rows", false)
	v.SetDefault("import.concurrency", 4)

	// Events defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.url", "")
	v.SetDefault("events.exchange", "finances")
	v.SetDefault("events.routing_key", "ledger")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch config.Database.Driver {
	case DriverMemory:
	case DriverSQLite, DriverYAML:
		if strings.TrimSpace(config.Database.Path) == "" {
			return fmt.Errorf("database.path required for driver %s", config.Database.Driver)
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be 'memory', 'sqlite' or 'yaml')", config.Database.Driver)
	}

	if len([]rune(config.Import.Delimiter)) != 1 {
		return fmt.Errorf("import delimiter must be a single character, got: %s", config.Import.Delimiter)
	}

	if config.Import.Concurrency < 1 || config.Import.Concurrency > 64 {
		return fmt.Errorf("import.concurrency must be between 1 and 64, got: %d", config.Import.Concurrency)
	}

	if config.Events.Enabled {
		if config.Events.URL == "" {
			return fmt.Errorf("events.url (or AMQP_URL) required when events are enabled")
		}
		if config.Events.Exchange == "" {
			return fmt.Errorf("events.exchange required when events are enabled")
		}
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// Delimiter returns the import delimiter as a rune.
func (c *Config) Delimiter() rune {
	r := []rune(c.Import.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// Validate checks c again, typically after command line overrides.
func (c *Config) Validate() error {
	return validateConfig(c)
}
