// Package db opens the database, migrates the schema and seeds development data.
package db

import (
	"fmt"
	"os"
	"time"

	"github.com/diewo77/agrodocs/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Connect opens the configured database, retrying while postgres starts up.
// The gorm logger stays silent unless database.debug or DB_DEBUG=1.
func Connect(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	level := logger.Silent
	if cfg.Debug || os.Getenv("DB_DEBUG") == "1" {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level), TranslateError: true}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		return gorm.Open(dialector, gcfg)
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", i+1).Warn("retrying database connection")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	log.WithField("dsn", MaskDSN(cfg.DSN())).Info("database connected")
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		dsn := NormalizeDSN(os.Getenv("DATABASE_DSN"))
		if dsn == "" {
			dsn = cfg.DSN()
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
