package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/agrodocs/internal/config"
	"github.com/diewo77/agrodocs/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// registers the postgres driver for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// requiredTables must exist once migration is done.
var requiredTables = []string{"subtotals", "variables", "templates", "template_fields", "sequences"}

// Migrate brings the schema up to date. With database.migrations set it applies the
// embedded SQL migrations (postgres only), otherwise gorm AutoMigrate.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, log logrus.FieldLogger) error {
	if cfg.Migrations {
		if cfg.Driver != "postgres" {
			return fmt.Errorf("sql migrations need postgres, got %q", cfg.Driver)
		}
		log.Info("running sql migrations")
		if err := RunSQLMigrations(ToURLDSN(cfg.DSN())); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range requiredTables {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the embedded migrations to the database at url.
func RunSQLMigrations(url string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
