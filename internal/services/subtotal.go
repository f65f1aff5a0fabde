package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/internal/repository"
	"github.com/diewo77/agrodocs/internal/sequence"
	"github.com/diewo77/agrodocs/internal/subtotal"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrSubtotalInUse blocks removing a subtotal that any variable still carries,
// deleted ones included, since a restored variable would bring it back.
var ErrSubtotalInUse = errors.New("subtotal is used by a variable")

// SubtotalInput is the user supplied part of a subtotal. The code is assigned.
type SubtotalInput struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	IsDiscount bool   `json:"is_discount"`
}

type SubtotalService struct {
	repo      *repository.Repository[models.SubtotalRecord, int64]
	variables *repository.Repository[models.VariableRecord, string]
	seq       sequence.Generator
	log       logrus.FieldLogger
	changed   func()
}

func NewSubtotalService(db *gorm.DB, seq sequence.Generator, log logrus.FieldLogger) *SubtotalService {
	return &SubtotalService{
		repo:      repository.New[models.SubtotalRecord, int64](db, "code"),
		variables: repository.New[models.VariableRecord, string](db, "name"),
		seq:       seq,
		log:       log,
		changed:   func() {},
	}
}

// Register stores a new subtotal under the next code. Percentages are clamped.
func (s *SubtotalService) Register(ctx context.Context, in SubtotalInput) (validation.State, *subtotal.Subtotal, error) {
	if strings.TrimSpace(in.Name) == "" {
		return validation.InvalidName, nil, nil
	}
	code, err := s.seq.Next(ctx, sequence.Subtotals)
	if err != nil {
		return "", nil, fmt.Errorf("subtotal code: %w", err)
	}
	st := subtotal.New(code, strings.TrimSpace(in.Name), in.Percentage, in.IsDiscount)
	rec := models.NewSubtotalRecord(st)
	if err := s.repo.Register(ctx, &rec); err != nil {
		if errors.Is(err, repository.ErrDuplicated) {
			return validation.Duplicated, nil, nil
		}
		return "", nil, err
	}
	s.log.WithFields(logrus.Fields{"code": code, "percentage": st.Percentage, "discount": st.IsDiscount}).Info("subtotal registered")
	return validation.Valid, &st, nil
}

// List returns subtotals ordered by code.
func (s *SubtotalService) List(ctx context.Context, includeDeleted bool) ([]subtotal.Subtotal, error) {
	var (
		recs []models.SubtotalRecord
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
	out := make([]subtotal.Subtotal, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].Domain())
	}
	return out, nil
}

// Find returns nil, nil when code is unknown.
func (s *SubtotalService) Find(ctx context.Context, code int64) (*subtotal.Subtotal, error) {
	rec, err := s.repo.Find(ctx, code)
	if err != nil || rec == nil {
		return nil, err
	}
	st := rec.Domain()
	return &st, nil
}

// Remove flags the subtotal deleted. It reports false when code is unknown and
// fails with ErrSubtotalInUse while any variable references it.
func (s *SubtotalService) Remove(ctx context.Context, code int64) (bool, error) {
	rec, err := s.repo.Find(ctx, code)
	if err != nil || rec == nil {
		return false, err
	}
	var users int64
	if err := s.variables.DB(ctx).Model(&models.VariableRecord{}).
		Where("subtotal_code = ?", code).Count(&users).Error; err != nil {
		return false, err
	}
	if users > 0 {
		return false, fmt.Errorf("%w: %d variable(s)", ErrSubtotalInUse, users)
	}
	return true, s.setDeleted(ctx, rec, true)
}

// Restore clears the deletion flag.
func (s *SubtotalService) Restore(ctx context.Context, code int64) (bool, error) {
	rec, err := s.repo.Find(ctx, code)
	if err != nil || rec == nil {
		return false, err
	}
	return true, s.setDeleted(ctx, rec, false)
}

func (s *SubtotalService) setDeleted(ctx context.Context, rec *models.SubtotalRecord, deleted bool) error {
	if rec.Deleted == deleted {
		return nil
	}
	rec.Deleted = deleted
	if err := s.repo.Update(ctx, rec); err != nil {
		return err
	}
	s.changed()
	s.log.WithFields(logrus.Fields{"code": rec.Code, "deleted": deleted}).Info("subtotal updated")
	return nil
}

// OnChange registers fn to run after a subtotal is removed or restored.
func (s *SubtotalService) OnChange(fn func()) { s.changed = fn }
