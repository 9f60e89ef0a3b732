// Package container provides dependency injection for the finances application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"errors"
	"fmt"

	"fjacquet/finances/internal/config"
	"fjacquet/finances/internal/events"
	"fjacquet/finances/internal/ledger"
	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/store"
	"fjacquet/finances/internal/store/memory"
	"fjacquet/finances/internal/store/sqlite"
	"fjacquet/finances/internal/store/yamlfile"
)

// Container holds all application dependencies and provides methods to access them.
// It acts as the central registry for dependency injection, ensuring that all
// components receive their required dependencies through constructors.
//
// Container is immutable after creation; dependencies are only reachable
// through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     store.Store
	publisher events.Publisher
	ledger    *ledger.Ledger
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
//
// Parameters:
//   - cfg: Application configuration
//
// Returns:
//   - *Container: Fully wired container with all dependencies
//   - error: Any error encountered during dependency creation
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))

	st, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	opts := ledger.ImportOptions{
		Delimiter:       cfg.Delimiter(),
		DeleteSource:    cfg.Import.DeleteSource,
		EnforceBalance:  cfg.Import.EnforceBalance,
		SkipInvalidRows: cfg.Import.SkipInvalidRows,
	}

	logger.Debug("Container initialized",
		logging.F(logging.FieldDriver, cfg.Database.Driver),
		logging.F(logging.FieldDatabase, cfg.Database.Path),
		logging.F("events_enabled", cfg.Events.Enabled))

	return &Container{
		logger:    logger,
		config:    cfg,
		store:     st,
		publisher: publisher,
		ledger:    ledger.New(st, opts, publisher, logger),
	}, nil
}

// OpenStore opens the storage backend selected by cfg.Database.Driver.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
		}
		return st, nil
	case config.DriverYAML:
		st, err := yamlfile.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open yaml ledger: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

func newPublisher(cfg *config.Config, logger logging.Logger) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		return events.NopPublisher{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, cfg.Events.RoutingKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	logger.Info("Event publishing enabled",
		logging.F("exchange", cfg.Events.Exchange))
	return p, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the storage backend.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetPublisher returns the event publisher; a no-op one when events are disabled.
func (c *Container) GetPublisher() events.Publisher {
	return c.publisher
}

// GetLedger returns the ledger facade used by the commands.
func (c *Container) GetLedger() *ledger.Ledger {
	return c.ledger
}

// Close releases the publisher connection and the store.
func (c *Container) Close() error {
	err := errors.Join(c.publisher.Close(), c.store.Close())
	if err != nil {
		c.logger.WithError(err).Warn("Container closed with errors")
		return err
	}
	c.logger.Debug("Container closed")
	return nil
}
