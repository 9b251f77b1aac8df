// Package engine ties the dataset loader, normalization, the state store and
// the warehouse adapter together for the CLI and the dashboard server.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/macrodash/internal/loader"
	"github.com/leapstack-labs/macrodash/internal/state"
	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
)

// Engine orchestrates loading, normalizing and publishing datasets.
type Engine struct {
	// Warehouse adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    *adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	// Loader (lazy, since a warehouse source needs the adapter)
	cache    *loader.Cache
	loaderMu sync.Mutex

	// recorded holds raw tables whose load has been written to the store.
	recorded   map[*core.RawTable]bool
	recordedMu sync.Mutex

	logger   *slog.Logger
	store    core.Store
	source   core.SourceConfig
	seedsDir string
}

// Config holds engine configuration.
type Config struct {
	// Source describes where datasets are read from.
	Source core.SourceConfig
	// SeedsDir is the path to CSV files loaded by LoadSeeds.
	SeedsDir string
	// StatePath is the path to the SQLite state database.
	StatePath string
	// AdapterConfig is the warehouse target. Nil disables publishing,
	// seeding and warehouse sources.
	AdapterConfig *adapter.Config
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates an engine. The warehouse is only connected when first needed.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		slog.String("source_type", cfg.Source.Type),
		slog.String("source_path", cfg.Source.Path))

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	var dbConfig *adapter.Config
	if cfg.AdapterConfig != nil && cfg.AdapterConfig.Type != "" {
		c := *cfg.AdapterConfig
		dbConfig = &c
	}

	return &Engine{
		dbConfig: dbConfig,
		recorded: make(map[*core.RawTable]bool),
		logger:   logger,
		store:    store,
		source:   cfg.Source,
		seedsDir: cfg.SeedsDir,
	}, nil
}

// ErrNoTarget is returned by operations that need a warehouse when none is configured.
var ErrNoTarget = fmt.Errorf("no warehouse target configured (set target.type or --target)")

// ensureDBConnected lazily connects to the warehouse.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}
	if e.dbConfig == nil {
		return ErrNoTarget
	}

	e.logger.Debug("connecting to warehouse", slog.String("adapter_type", e.dbConfig.Type))

	db, err := adapter.NewAdapter(*e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create warehouse adapter: %w", err)
	}
	if err := db.Connect(ctx, *e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}

	e.db = db
	e.dbConnected = true
	return nil
}

// Adapter returns the connected warehouse adapter.
func (e *Engine) Adapter(ctx context.Context) (adapter.Adapter, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.db, nil
}

func (e *Engine) loader(ctx context.Context) (*loader.Cache, error) {
	e.loaderMu.Lock()
	defer e.loaderMu.Unlock()

	if e.cache != nil {
		return e.cache, nil
	}

	var adp adapter.Adapter
	if isWarehouse(e.source) {
		if err := e.ensureDBConnected(ctx); err != nil {
			return nil, err
		}
		adp = e.db
	}

	l, err := loader.New(e.source, adp, e.logger)
	if err != nil {
		return nil, err
	}
	e.cache = loader.NewCache(l, e.logger)
	return e.cache, nil
}

func isWarehouse(src core.SourceConfig) bool {
	return src.Type == loader.SourceWarehouse
}

// Store returns the state store.
func (e *Engine) Store() core.Store {
	return e.store
}

// Source returns the configured source.
func (e *Engine) Source() core.SourceConfig {
	return e.source
}

// Close releases the warehouse connection and the state store.
func (e *Engine) Close() error {
	var firstErr error
	e.dbMu.Lock()
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			firstErr = err
		}
		e.db = nil
		e.dbConnected = false
	}
	e.dbMu.Unlock()

	if e.store != nil {
		if err := e.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NormalizeOptions returns the normalization options derived from the source.
func (e *Engine) NormalizeOptions() normalize.Options {
	return normalize.Options{FallbackGroup: e.source.FallbackGroup}
}
