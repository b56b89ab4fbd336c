package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"taskdeck/internal/ai"
	"taskdeck/internal/config"
	"taskdeck/internal/db"
	"taskdeck/internal/migrate"
	"taskdeck/internal/repo"
	"taskdeck/internal/store"
	"taskdeck/internal/timeline"
)

// App bundles the long-lived components of one process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Blobs    repo.BlobStore
	Store    *store.Store
	AI       *ai.Service
	Timeline timeline.Engine
	Planner  *Planner

	closers []io.Closer
}

// Open builds the blob backend named by cfg, loads the store and wires the
// AI service and timeline engine around it.
func Open(ctx context.Context, workspace string, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	blobs, err := a.openBlobs(ctx, workspace)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Blobs = blobs

	a.Store, err = store.Open(ctx, blobs,
		store.WithKeyPrefix(cfg.Storage.KeyPrefix),
		store.WithLogger(logger.With("component", "store")),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	client := ai.NewClient(cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Timeout)
	a.AI = ai.NewService(client, ai.Options{
		Concurrency: cfg.AI.Concurrency,
		MaxFailures: cfg.AI.Breaker.MaxFailures,
		OpenTimeout: cfg.AI.Breaker.OpenTimeout,
		Logger:      logger.With("component", "ai"),
	})
	a.Timeline = timeline.New(a.Store, Metrics(cfg.Timeline))
	a.Planner = NewPlanner(a.Store, a.AI, logger.With("component", "planner"))
	return a, nil
}

func (a *App) openBlobs(ctx context.Context, workspace string) (repo.BlobStore, error) {
	st := a.Config.Storage
	switch st.Driver {
	case config.DriverMemory:
		return repo.NewMemoryBlobs(), nil
	case config.DriverRedis:
		client, err := repo.OpenRedis(ctx, st.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client)
		return repo.NewRedisBlobs(client), nil
	case config.DriverSQLite, config.DriverPostgres:
		dialect := db.SQLite
		if st.Driver == config.DriverPostgres {
			dialect = db.Postgres
		}
		conn, err := db.Open(db.Config{Workspace: workspace, Dialect: dialect, DSN: st.DSN})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn)
		if _, err := migrate.Migrate(ctx, conn, dialect); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repo.NewSQLBlobs(conn, dialect), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", st.Driver)
	}
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Metrics converts timeline config into layout metrics.
func Metrics(c config.Timeline) timeline.Metrics {
	return timeline.Metrics{
		DayWidth:     c.DayWidth,
		RowHeight:    c.RowHeight,
		HeaderHeight: c.HeaderHeight,
		EmptyHeight:  c.EmptyHeight,
		Gap:          c.Gap,
	}
}

// NewLogger builds the process logger from the log section.
func NewLogger(c config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
