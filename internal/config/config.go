// Package config provides application configuration loaded from a config file and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. AGRODOCS_DATABASE_HOST.
const EnvPrefix = "AGRODOCS"

// Config holds all application configuration.
type Config struct {
	Env        string           `mapstructure:"env"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Generation GenerationConfig `mapstructure:"generation"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Sequence   SequenceConfig   `mapstructure:"sequence"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds connection settings. Driver is postgres or sqlite.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the sqlite database file.
	Path string `mapstructure:"path"`
	// Migrations selects sql migrations (golang-migrate) instead of AutoMigrate.
	Migrations bool `mapstructure:"migrations"`
	Seed       bool `mapstructure:"seed"`
	Debug      bool `mapstructure:"debug"`
}

// LogConfig holds logrus settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// GenerationConfig tunes document generation.
type GenerationConfig struct {
	Format  string        `mapstructure:"format"` // xlsx, pdf
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
	Font    string        `mapstructure:"font"`
}

// ArchiveConfig selects where generated files are stored.
type ArchiveConfig struct {
	Backend string `mapstructure:"backend"` // local, gcs
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// SequenceConfig selects the code generator backend.
type SequenceConfig struct {
	Backend   string `mapstructure:"backend"` // db, redis
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configPath (or config.yaml in the usual places when empty), then
// environment variables, over the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		// missing file means defaults
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects unknown backends and formats.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}
	switch c.Generation.Format {
	case "xlsx", "pdf":
	default:
		return fmt.Errorf("generation.format: unsupported %q", c.Generation.Format)
	}
	switch c.Archive.Backend {
	case "local":
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend: unsupported %q", c.Archive.Backend)
	}
	switch c.Sequence.Backend {
	case "db", "redis":
	default:
		return fmt.Errorf("sequence.backend: unsupported %q", c.Sequence.Backend)
	}
	if c.Generation.Workers < 1 {
		return fmt.Errorf("generation.workers must be at least 1")
	}
	return nil
}

// IsProduction reports whether env is production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "agrodocs")
	v.SetDefault("database.password", "agrodocs")
	v.SetDefault("database.dbname", "agrodocs")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "agrodocs.db")
	v.SetDefault("database.migrations", false)
	v.SetDefault("database.seed", false)
	v.SetDefault("database.debug", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("generation.format", "xlsx")
	v.SetDefault("generation.timeout", 30*time.Second)
	v.SetDefault("generation.workers", 4)
	v.SetDefault("generation.font", "Helvetica")

	v.SetDefault("archive.backend", "local")
	v.SetDefault("archive.dir", "generated")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "")

	v.SetDefault("sequence.backend", "db")
	v.SetDefault("sequence.redis_addr", "localhost:6379")
	v.SetDefault("sequence.redis_db", 0)
}
