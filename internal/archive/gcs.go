package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCS stores files as objects of a bucket.
type GCS struct {
	bucket *storage.BucketHandle
	prefix string
}

func NewGCS(bucket *storage.BucketHandle, prefix string) *GCS {
	return &GCS{bucket: bucket, prefix: prefix}
}

func (g *GCS) object(key string) *storage.ObjectHandle {
	return g.bucket.Object(path.Join(g.prefix, key))
}

// Put creates the object only if it does not exist yet.
func (g *GCS) Put(ctx context.Context, key string, content []byte) error {
	w := g.object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return fmt.Errorf("%w: %s", ErrExists, key)
		}
		return fmt.Errorf("finalize gcs object %s: %w", key, err)
	}
	return nil
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read gcs object %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
