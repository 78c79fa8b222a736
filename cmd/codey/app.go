package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/config"
	codeyjson "github.com/fwojciec/codey/json"
	"github.com/fwojciec/codey/sqlite"
	"github.com/fwojciec/codey/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds what every command shares: configuration, the log and the
// conversation store.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	close  []func() error
}

// openApp loads configuration from path and opens the store on the
// configured backend.
func openApp(ctx context.Context, path string, verbose bool) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	persister, err := a.persister(ctx)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	a.store = store.Open(ctx, store.WithPersister(persister), store.WithLogger(logger.Named("store")))
	logger.Debug("store opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", cfg.Storage.Path),
		zap.Int("sessions", len(a.store.List())))
	return a, nil
}

func (a *app) persister(ctx context.Context) (codey.Persister, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.Path), 0o700); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
		db, err := sqlite.Open(ctx, a.cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		a.close = append(a.close, db.Close)
		return db, nil
	default:
		return codeyjson.NewFile(a.cfg.Storage.Path), nil
	}
}

// Close releases the storage backend and flushes the log.
func (a *app) Close() error {
	var first error
	for _, fn := range a.close {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	_ = a.logger.Sync()
	return first
}

// newLogger writes JSON lines to the configured file; the terminal belongs
// to the TUI. Verbose forces debug level.
func newLogger(c config.LogConfig, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	if c.Path == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{c.Path}
	zc.ErrorOutputPaths = []string{c.Path}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return logger, nil
}
