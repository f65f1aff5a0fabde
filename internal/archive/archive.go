// Package archive stores generated documents, on local disk or in a GCS bucket.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/diewo77/agrodocs/internal/config"
)

var (
	ErrNotFound = errors.New("archived file not found")
	ErrExists   = errors.New("archived file already exists")
)

// Store persists generated files under a key. Keys are never overwritten.
type Store interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Key builds the storage key of a generated document: <kind>/<code>/<id>.<ext>.
func Key(kind, code, id, ext string) string {
	return path.Join(sanitize(kind), sanitize(code), id+"."+strings.TrimPrefix(ext, "."))
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}

// New opens the backend selected in cfg. Close must be called on the returned closer.
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, func() error, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.Dir), func() error { return nil }, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		return NewGCS(client.Bucket(cfg.Bucket), cfg.Prefix), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported archive backend %q", cfg.Backend)
}
