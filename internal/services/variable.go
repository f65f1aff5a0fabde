package services

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/engine"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/internal/repository"
	"github.com/diewo77/agrodocs/internal/variable"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VariableInput is a variable as submitted by a user.
type VariableInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Attribute    string `json:"attribute"`
	SubtotalCode *int64 `json:"subtotal_code,omitempty"`
}

type VariableService struct {
	repo      *repository.Repository[models.VariableRecord, string]
	subtotals *repository.Repository[models.SubtotalRecord, int64]
	catalog   *Cached[engine.Catalog]
	log       logrus.FieldLogger
}

// NewVariableService builds the service. The engine catalog is cached for ttl.
func NewVariableService(db *gorm.DB, log logrus.FieldLogger, ttl time.Duration) *VariableService {
	s := &VariableService{
		repo:      repository.New[models.VariableRecord, string](db, "name", "Subtotal"),
		subtotals: repository.New[models.SubtotalRecord, int64](db, "code"),
		log:       log,
	}
	s.catalog = NewCached(s.loadCatalog, ttl)
	return s
}

// Register validates in against every registered name, deleted ones included, and
// stores it when valid. The unique index on name settles concurrent registrations.
func (s *VariableService) Register(ctx context.Context, in VariableInput) (validation.State, error) {
	v, state, err := s.build(ctx, in)
	if err != nil || !state.OK() {
		return state, err
	}
	names, err := s.names(ctx, "")
	if err != nil {
		return "", err
	}
	if state := variable.Validate(v, names); !state.OK() {
		return state, nil
	}
	rec := models.NewVariableRecord(v)
	if err := s.repo.Register(ctx, &rec); err != nil {
		if errors.Is(err, repository.ErrDuplicated) {
			return validation.Duplicated, nil
		}
		return "", err
	}
	s.catalog.Invalidate()
	s.log.WithFields(logrus.Fields{"variable": v.Name, "attribute": v.Attribute}).Info("variable registered")
	return validation.Valid, nil
}

// Update replaces the variable registered as name. Renaming is allowed; the new
// name must be free.
func (s *VariableService) Update(ctx context.Context, name string, in VariableInput) (validation.State, error) {
	rec, err := s.repo.Find(ctx, name)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return validation.NotFound, nil
	}
	if rec.Deleted {
		return validation.ReadOnly, nil
	}
	v, state, err := s.build(ctx, in)
	if err != nil || !state.OK() {
		return state, err
	}
	names, err := s.names(ctx, name)
	if err != nil {
		return "", err
	}
	if state := variable.Validate(v, names); !state.OK() {
		return state, nil
	}
	next := models.NewVariableRecord(v)
	next.ID, next.CreatedAt = rec.ID, rec.CreatedAt
	if err := s.repo.Update(ctx, &next); err != nil {
		if errors.Is(err, repository.ErrDuplicated) {
			return validation.Duplicated, nil
		}
		return "", err
	}
	s.catalog.Invalidate()
	s.log.WithFields(logrus.Fields{"variable": name, "renamed_to": v.Name}).Info("variable updated")
	return validation.Valid, nil
}

// Remove flags the variable deleted. It reports false when name is unknown.
func (s *VariableService) Remove(ctx context.Context, name string) (bool, error) {
	return s.setDeleted(ctx, name, true)
}

// Restore clears the deletion flag. It reports false when name is unknown.
func (s *VariableService) Restore(ctx context.Context, name string) (bool, error) {
	return s.setDeleted(ctx, name, false)
}

func (s *VariableService) setDeleted(ctx context.Context, name string, deleted bool) (bool, error) {
	rec, err := s.repo.Find(ctx, name)
	if err != nil || rec == nil {
		return false, err
	}
	if rec.Deleted != deleted {
		rec.Deleted = deleted
		if err := s.repo.Update(ctx, rec); err != nil {
			return false, err
		}
		s.catalog.Invalidate()
	}
	return true, nil
}

// List returns variables ordered by name.
func (s *VariableService) List(ctx context.Context, includeDeleted bool) ([]variable.Variable, error) {
	var (
		recs []models.VariableRecord
		err  error
	)
	if includeDeleted {
		recs, err = s.repo.GetAll(ctx)
	} else {
		recs, err = s.repo.Where(ctx, "deleted = ?", false)
	}
	if err != nil {
		return nil, err
	}
	out := make([]variable.Variable, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].Domain())
	}
	return out, nil
}

// Find returns nil, nil when name is unknown.
func (s *VariableService) Find(ctx context.Context, name string) (*variable.Variable, error) {
	rec, err := s.repo.Find(ctx, name)
	if err != nil || rec == nil {
		return nil, err
	}
	v := rec.Domain()
	return &v, nil
}

// Catalog returns the live variables the engine resolves against.
func (s *VariableService) Catalog(ctx context.Context) (engine.Catalog, error) {
	return s.catalog.Get(ctx)
}

// InvalidateCatalog forces the next Catalog call to reload.
func (s *VariableService) InvalidateCatalog() { s.catalog.Invalidate() }

func (s *VariableService) loadCatalog(ctx context.Context) (engine.Catalog, error) {
	vars, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	return engine.NewCatalog(vars...), nil
}

// build turns input into a domain variable. A subtotal variable needs a live subtotal.
func (s *VariableService) build(ctx context.Context, in VariableInput) (variable.Variable, validation.State, error) {
	attr, err := attribute.Parse(in.Attribute)
	if err != nil {
		return variable.Variable{}, validation.InvalidAttribute, nil
	}
	if in.SubtotalCode == nil {
		return variable.New(in.Name, in.Description, attr), validation.Valid, nil
	}
	rec, err := s.subtotals.Find(ctx, *in.SubtotalCode)
	if err != nil {
		return variable.Variable{}, "", err
	}
	if rec == nil || rec.Deleted {
		return variable.Variable{}, validation.InvalidSubtotal, nil
	}
	v := variable.NewSubtotal(in.Name, in.Description, rec.Domain())
	// the attribute check in Validate reports a mismatch
	v.Attribute = attr
	return v, validation.Valid, nil
}

func (s *VariableService) names(ctx context.Context, except string) (variable.Names, error) {
	var all []string
	if err := s.repo.DB(ctx).Model(&models.VariableRecord{}).Pluck("name", &all).Error; err != nil {
		return nil, err
	}
	names := variable.NewNames()
	for _, n := range all {
		if n != except {
			names[n] = struct{}{}
		}
	}
	return names, nil
}
