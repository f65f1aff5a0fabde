// Package repository gives every persisted entity kind the same small set of
// gorm-backed operations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicated = errors.New("duplicated key")
)

// Repository reads and writes records of type T identified by a key column of type K.
type Repository[T any, K comparable] struct {
	db       *gorm.DB
	key      string
	preloads []string
}

// New returns a repository keyed on column key. Associations named in preloads
// are loaded on every read.
func New[T any, K comparable](db *gorm.DB, key string, preloads ...string) *Repository[T, K] {
	return &Repository[T, K]{db: db, key: key, preloads: preloads}
}

// WithTx returns a copy bound to tx.
func (r *Repository[T, K]) WithTx(tx *gorm.DB) *Repository[T, K] {
	return &Repository[T, K]{db: tx, key: r.key, preloads: r.preloads}
}

// DB exposes the underlying handle for queries the repository does not cover.
func (r *Repository[T, K]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *Repository[T, K]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

func (r *Repository[T, K]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Find returns nil, nil when no record has the key.
func (r *Repository[T, K]) Find(ctx context.Context, key K) (*T, error) {
	var rec T
	err := r.query(ctx).Where(r.key+" = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %v: %w", key, err)
	}
	return &rec, nil
}

// Get is Find with ErrNotFound on a miss.
func (r *Repository[T, K]) Get(ctx context.Context, key K) (*T, error) {
	rec, err := r.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, key)
	}
	return rec, nil
}

// GetAll returns every record ordered by key.
func (r *Repository[T, K]) GetAll(ctx context.Context) ([]T, error) {
	return r.Where(ctx, "")
}

// Where returns the records matching a condition, ordered by key. An empty query matches all.
func (r *Repository[T, K]) Where(ctx context.Context, query string, args ...any) ([]T, error) {
	var out []T
	q := r.query(ctx).Order(r.key)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

// Register inserts rec with its associations.
func (r *Repository[T, K]) Register(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Update saves every column of rec. Associations are left untouched.
func (r *Repository[T, K]) Update(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error; err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicated, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	return err
}
