package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/agrodocs/internal/archive"
	"github.com/diewo77/agrodocs/internal/config"
	"github.com/diewo77/agrodocs/internal/db"
	"github.com/diewo77/agrodocs/internal/handlers"
	"github.com/diewo77/agrodocs/internal/metrics"
	"github.com/diewo77/agrodocs/internal/renderer"
	"github.com/diewo77/agrodocs/internal/sequence"
	"github.com/diewo77/agrodocs/internal/services"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// catalogTTL bounds how long the variable catalog is reused between generations.
const catalogTTL = 30 * time.Second

// App wires the services behind the CLI commands and the HTTP API.
type App struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	db      *gorm.DB
	metrics *metrics.Metrics
	seq     sequence.Generator

	subtotals *services.SubtotalService
	variables *services.VariableService
	templates *services.TemplateService
	generator *services.Generator
	batch     *services.BatchGenerator

	closers []func() error
}

// NewApp connects every backend named by cfg. Close releases them.
func NewApp(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	app := &App{cfg: cfg, log: log, metrics: metrics.NewWithRuntime()}

	conn, err := db.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	app.db = conn
	app.closers = append(app.closers, func() error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	seq, closeSeq, err := sequence.New(ctx, cfg.Sequence, conn)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("sequence backend: %w", err)
	}
	app.seq = seq
	app.closers = append(app.closers, closeSeq)

	store, closeStore, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("archive backend: %w", err)
	}
	app.closers = append(app.closers, closeStore)

	r, err := renderer.New(cfg.Generation.Format, cfg.Generation.Font)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.subtotals = services.NewSubtotalService(conn, seq, log)
	app.variables = services.NewVariableService(conn, log, catalogTTL)
	app.templates = services.NewTemplateService(conn, seq, log)
	app.subtotals.OnChange(app.variables.InvalidateCatalog)
	app.generator = services.NewGenerator(conn, app.templates, app.variables, r, store, cfg.Generation, app.metrics, log)
	app.batch = services.NewBatchGenerator(conn, app.generator, cfg.Generation.Workers, log)
	return app, nil
}

// Migrate brings the schema up to date and seeds when asked to.
func (a *App) Migrate(ctx context.Context, seed bool) error {
	if err := db.Migrate(a.db, a.cfg.Database, a.log); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if seed || a.cfg.Database.Seed {
		if err := db.Seed(ctx, a.db); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}
	// after seeding, so the configured backend also clears the seeded codes
	return db.BackfillSequences(ctx, a.db, a.seq)
}

// Handler is the HTTP API with request logging and metrics.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	handlers.NewSubtotalHandler(a.subtotals, a.log).Register(mux)
	handlers.NewVariableHandler(a.variables, a.log).Register(mux)
	handlers.NewTemplateHandler(a.templates, a.log).Register(mux)
	handlers.NewDocumentHandler(a.generator, a.log).Register(mux)
	handlers.NewCompanyHandler(a.db, a.log).Register(mux)
	handlers.NewProductHandler(a.db, a.log).Register(mux)
	mux.Handle("GET /metrics", a.metrics.Handler())
	mux.HandleFunc("GET /healthz", handlers.Health(a.db))
	return handlers.WithLogging(mux, a.metrics, a.log)
}

// Close releases the backends in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
