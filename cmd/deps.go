package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/config"
	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/lock"
	"github.com/abhisek/synap/internal/logging"
	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/store"
	"github.com/abhisek/synap/internal/store/pgstore"
)

// deps is everything a command needs, opened from config and flags.
type deps struct {
	cfg     *config.Config
	logger  *zap.Logger
	content *content.Service
	reviews *review.Service
	closers []func() error
}

// logMode selects where command logs go. quietLogs keeps the TUI's screen
// clean: logs are dropped unless --log-file is given.
type logMode int

const (
	logStderr logMode = iota
	quietLogs
)

// openDeps loads config, builds the logger, opens the configured backend
// and picks a lock implementation.
func openDeps(cmd *cobra.Command, mode logMode) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg}
	logFile, _ := cmd.Flags().GetString("log-file")
	if mode == quietLogs && logFile == "" {
		d.logger = zap.NewNop()
	} else {
		d.logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, logFile)
		if err != nil {
			return nil, err
		}
	}
	d.closers = append(d.closers, func() error {
		// Sync on stderr fails on some platforms; nothing to do about it.
		_ = d.logger.Sync()
		return nil
	})

	backend, err := openBackend(cmd, cfg, d.logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.closers = append(d.closers, backend.Close)

	locker, err := openLocker(cmd, cfg, d)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.content = content.NewService(backend.ItemRepo(), d.logger, nil)
	d.reviews = review.NewService(backend, locker, d.logger, nil)
	return d, nil
}

func openBackend(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) (store.Backend, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := pgstore.New(cmd.Context(), cfg.Database.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.Migrate(cmd.Context()); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return pg, nil
	default:
		dbPath, err := resolveDBPath(cmd, cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		logger.Debug("opened sqlite store", zap.String("path", dbPath))
		return st, nil
	}
}

func openLocker(cmd *cobra.Command, cfg *config.Config, d *deps) (lock.Locker, error) {
	if cfg.Redis.URL == "" {
		return lock.NewLocal(), nil
	}
	rdb, err := lock.DialRedis(cmd.Context(), cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func() error { return closeRedis(rdb) })
	return lock.NewRedis(rdb, cfg.Redis.LockTTL, d.logger), nil
}

func closeRedis(rdb *redis.Client) error {
	if err := rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			fmt.Fprintln(os.Stderr, "close:", err)
		}
	}
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SYNAP_DB env var, then database.path from config, then the default
// XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if os.Getenv("SYNAP_DB") == "" && cfg.Database.Path != "" {
		return cfg.Database.Path, store.EnsureDir(cfg.Database.Path)
	}
	return store.DefaultDBPath()
}
