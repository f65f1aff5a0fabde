package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "xlsx", cfg.Generation.Format)
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 4, cfg.Generation.Workers)
	assert.Equal(t, "local", cfg.Archive.Backend)
	assert.Equal(t, "db", cfg.Sequence.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
database:
  driver: sqlite
  path: /tmp/agro.db
generation:
  format: pdf
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("AGRODOCS_GENERATION_WORKERS", "9")
	t.Setenv("AGRODOCS_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/agro.db", cfg.Database.Path)
	assert.Equal(t, "pdf", cfg.Generation.Format)
	assert.Equal(t, 5*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 9, cfg.Generation.Workers)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"format", func(c *Config) { c.Generation.Format = "docx" }},
		{"gcs without bucket", func(c *Config) { c.Archive.Backend = "gcs" }},
		{"archive", func(c *Config) { c.Archive.Backend = "s3" }},
		{"sequence", func(c *Config) { c.Sequence.Backend = "etcd" }},
		{"workers", func(c *Config) { c.Generation.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "agro", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=agro sslmode=disable", d.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/agro?sslmode=disable", d.URL())
}
