package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/internal/renderer"
	"github.com/diewo77/agrodocs/internal/repository"
	"github.com/diewo77/agrodocs/internal/sequence"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TemplateUpdate lists the parts of a template to change. Nil parts are kept.
type TemplateUpdate struct {
	Name   *string          `json:"name,omitempty"`
	File   *template.File   `json:"file,omitempty"`
	Fields []template.Field `json:"fields,omitempty"`
	// ReplaceFields distinguishes "no change" from "remove every field".
	ReplaceFields bool `json:"replace_fields,omitempty"`
}

type TemplateService struct {
	repo *repository.Repository[models.TemplateRecord, int64]
	seq  sequence.Generator
	log  logrus.FieldLogger
}

func NewTemplateService(db *gorm.DB, seq sequence.Generator, log logrus.FieldLogger) *TemplateService {
	return &TemplateService{
		repo: repository.New[models.TemplateRecord, int64](db, "code", "Fields"),
		seq:  seq,
		log:  log,
	}
}

// Register validates and stores a new template. Field order gives the evaluation sequence.
func (s *TemplateService) Register(ctx context.Context, name string, file template.File, fields []template.Field) (validation.State, int64, error) {
	if state := checkTemplate(name, file); !state.OK() {
		return state, 0, nil
	}
	tpl := &template.Template{Name: name, File: file, Version: 1}
	if err := tpl.ReplaceFields(fields); err != nil {
		return template.StateOf(err), 0, nil
	}
	code, err := s.seq.Next(ctx, sequence.Templates)
	if err != nil {
		return "", 0, fmt.Errorf("template code: %w", err)
	}
	tpl.Code = code
	rec := models.NewTemplateRecord(tpl)
	if err := s.repo.Register(ctx, &rec); err != nil {
		if errors.Is(err, repository.ErrDuplicated) {
			return validation.Duplicated, 0, nil
		}
		return "", 0, err
	}
	s.log.WithFields(logrus.Fields{"template": code, "name": name, "fields": len(tpl.Fields)}).Info("template registered")
	return validation.Valid, code, nil
}

// RegisterFromPath reads the template file from disk first.
func (s *TemplateService) RegisterFromPath(ctx context.Context, name, path string, fields []template.Field) (validation.State, int64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Warn("template file unreadable")
		return validation.InvalidFile, 0, nil
	}
	return s.Register(ctx, name, template.FileFromName(path, content), fields)
}

// Update applies upd to the template and bumps its version. A deleted template is read only.
func (s *TemplateService) Update(ctx context.Context, code int64, upd TemplateUpdate) (validation.State, error) {
	rec, err := s.repo.Find(ctx, code)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return validation.NotFound, nil
	}
	tpl := rec.Domain()
	if tpl.Deleted {
		return validation.ReadOnly, nil
	}
	name, file := tpl.Name, tpl.File
	if upd.Name != nil {
		name = *upd.Name
	}
	if upd.File != nil {
		file = *upd.File
	}
	if state := checkTemplate(name, file); !state.OK() {
		return state, nil
	}
	if upd.ReplaceFields || upd.Fields != nil {
		if err := tpl.ReplaceFields(upd.Fields); err != nil {
			return template.StateOf(err), nil
		}
	}
	tpl.Name, tpl.File = name, file
	return s.save(ctx, rec, tpl)
}

// AddField appends a field at the end of the evaluation order.
func (s *TemplateService) AddField(ctx context.Context, code int64, position, expression string) (validation.State, error) {
	return s.editFields(ctx, code, func(t *template.Template) error {
		f, err := template.NewField(position, expression)
		if err != nil {
			return err
		}
		return t.AddField(f)
	})
}

// UpdateField changes the position and expression of a field, keeping its sequence.
func (s *TemplateService) UpdateField(ctx context.Context, code int64, position, newPosition, expression string) (validation.State, error) {
	return s.editFields(ctx, code, func(t *template.Template) error {
		return t.UpdateField(position, newPosition, expression)
	})
}

func (s *TemplateService) RemoveField(ctx context.Context, code int64, position string) (validation.State, error) {
	return s.editFields(ctx, code, func(t *template.Template) error {
		return t.RemoveField(position)
	})
}

func (s *TemplateService) editFields(ctx context.Context, code int64, edit func(*template.Template) error) (validation.State, error) {
	rec, err := s.repo.Find(ctx, code)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return validation.NotFound, nil
	}
	tpl := rec.Domain()
	if err := edit(tpl); err != nil {
		if state := template.StateOf(err); state != "" {
			return state, nil
		}
		return "", err
	}
	return s.save(ctx, rec, tpl)
}

// save writes tpl over rec and replaces its field rows in one transaction.
func (s *TemplateService) save(ctx context.Context, rec *models.TemplateRecord, tpl *template.Template) (validation.State, error) {
	next := models.NewTemplateRecord(tpl)
	next.ID, next.CreatedAt = rec.ID, rec.CreatedAt
	next.Version = rec.Version + 1
	fields := next.Fields
	next.Fields = nil

	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, &next); err != nil {
			return err
		}
		if err := tx.Where("template_id = ?", next.ID).Delete(&models.TemplateFieldRecord{}).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		for i := range fields {
			fields[i].TemplateID = next.ID
		}
		return tx.Create(&fields).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicated) {
			return validation.InvalidPosition, nil
		}
		return "", err
	}
	s.log.WithFields(logrus.Fields{"template": next.Code, "version": next.Version}).Info("template updated")
	return validation.Valid, nil
}

// Remove flags the template deleted. It reports false when code is unknown.
func (s *TemplateService) Remove(ctx context.Context, code int64) (bool, error) {
	return s.setDeleted(ctx, code, true)
}

// Restore clears the deletion flag. It reports false when code is unknown.
func (s *TemplateService) Restore(ctx context.Context, code int64) (bool, error) {
	return s.setDeleted(ctx, code, false)
}

func (s *TemplateService) setDeleted(ctx context.Context, code int64, deleted bool) (bool, error) {
	rec, err := s.repo.Find(ctx, code)
	if err != nil || rec == nil {
		return false, err
	}
	if rec.Deleted == deleted {
		return true, nil
	}
	rec.Deleted = deleted
	if err := s.repo.Update(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// Find returns nil, nil when code is unknown.
func (s *TemplateService) Find(ctx context.Context, code int64) (*template.Template, error) {
	rec, err := s.repo.Find(ctx, code)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Domain(), nil
}

// List returns templates ordered by code.
func (s *TemplateService) List(ctx context.Context, includeDeleted bool) ([]*template.Template, error) {
	var (
		recs []models.TemplateRecord
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
	out := make([]*template.Template, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].Domain())
	}
	return out, nil
}

// checkTemplate runs the static checks and then makes sure excelize can open the file.
func checkTemplate(name string, file template.File) validation.State {
	if state := template.Validate(name, file); !state.OK() {
		return state
	}
	if err := renderer.Check(file); err != nil {
		return validation.InvalidFile
	}
	return validation.Valid
}
