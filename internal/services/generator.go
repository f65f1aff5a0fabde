package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/agrodocs/internal/archive"
	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/config"
	"github.com/diewo77/agrodocs/internal/document"
	"github.com/diewo77/agrodocs/internal/engine"
	"github.com/diewo77/agrodocs/internal/metrics"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/internal/renderer"
	"github.com/diewo77/agrodocs/internal/repository"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrCancelled        = errors.New("invoice is cancelled")
	ErrIssuerMissing    = errors.New("issuing company is not configured")
	ErrUnknownKind      = errors.New("unknown document kind")
)

// ParseKind accepts "invoice", "delivery_note" and "delivery-note".
func ParseKind(s string) (attribute.DocumentKind, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case string(attribute.DocumentInvoice):
		return attribute.DocumentInvoice, nil
	case string(attribute.DocumentDeliveryNote):
		return attribute.DocumentDeliveryNote, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Request names a document and the template to render it with.
type Request struct {
	Kind         attribute.DocumentKind `json:"kind"`
	DocumentCode string                 `json:"document_code"`
	TemplateCode int64                  `json:"template_code"`
}

// Generator turns a template and a business document into an archived output file.
type Generator struct {
	templates *TemplateService
	variables *VariableService
	renderer  renderer.Renderer
	store     archive.Store
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	timeout   time.Duration
	now       func() time.Time

	issuers       *repository.Repository[models.CompanySettings, string]
	invoices      *repository.Repository[models.Invoice, string]
	deliveryNotes *repository.Repository[models.DeliveryNote, string]
	generated     *repository.Repository[models.GeneratedDocument, string]
}

func NewGenerator(
	db *gorm.DB,
	templates *TemplateService,
	variables *VariableService,
	r renderer.Renderer,
	store archive.Store,
	cfg config.GenerationConfig,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *Generator {
	return &Generator{
		templates: templates,
		variables: variables,
		renderer:  r,
		store:     store,
		metrics:   m,
		log:       log,
		timeout:   cfg.Timeout,
		now:       time.Now,

		issuers:       repository.New[models.CompanySettings, string](db, "code"),
		invoices:      repository.New[models.Invoice, string](db, "code", "Customer", "DeliveryNotes.Customer", "DeliveryNotes.Product", "DeliveryNotes.Lines.Container"),
		deliveryNotes: repository.New[models.DeliveryNote, string](db, "code", "Customer", "Product", "Lines.Container"),
		generated:     repository.New[models.GeneratedDocument, string](db, "id"),
	}
}

// WithClock replaces the clock stamping GENERATION_DATE.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate resolves, renders, archives and records one document. Nothing reaches the
// renderer unless every field resolves.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.GeneratedDocument, error) {
	start := time.Now()
	log := g.log.WithFields(logrus.Fields{
		"template": req.TemplateCode,
		"document": req.DocumentCode,
		"kind":     req.Kind,
	})

	tpl, err := g.templates.Find(ctx, req.TemplateCode)
	if err != nil {
		return nil, g.fail(log, req, "load", err)
	}
	if tpl == nil {
		return nil, g.fail(log, req, "not_found", fmt.Errorf("%w: %d", ErrTemplateNotFound, req.TemplateCode))
	}
	if tpl.Deleted {
		return nil, g.fail(log, req, "not_found", fmt.Errorf("%w: %d", template.ErrTemplateDeleted, req.TemplateCode))
	}
	catalog, err := g.variables.Catalog(ctx)
	if err != nil {
		return nil, g.fail(log, req, "load", err)
	}
	doc, err := g.loadDocument(ctx, req.Kind, req.DocumentCode)
	if err != nil {
		reason := "load"
		switch {
		case errors.Is(err, ErrDocumentNotFound), errors.Is(err, ErrUnknownKind):
			reason = "not_found"
		case errors.Is(err, ErrCancelled):
			reason = "cancelled"
		}
		return nil, g.fail(log, req, reason, err)
	}

	res, err := engine.Resolve(tpl, catalog, doc, engine.Options{Now: g.now})
	if err != nil {
		return nil, g.fail(log, req, "resolution", err)
	}

	out, err := g.render(ctx, tpl.File, res)
	if err != nil {
		return nil, g.fail(log, req, "render", err)
	}

	id := uuid.NewString()
	key := archive.Key(string(req.Kind), req.DocumentCode, id, out.Extension)
	if err := g.store.Put(ctx, key, out.Content); err != nil {
		return nil, g.fail(log, req, "archive", err)
	}

	values := make(datatypes.JSONMap, len(res.Writes()))
	for pos, v := range res.Flatten() {
		values[pos] = v
	}
	gd := &models.GeneratedDocument{
		ID:              id,
		TemplateCode:    tpl.Code,
		TemplateVersion: tpl.Version,
		DocumentKind:    string(req.Kind),
		DocumentCode:    req.DocumentCode,
		Format:          out.Extension,
		ArchiveKey:      key,
		Size:            int64(len(out.Content)),
		Values:          values,
	}
	if err := g.generated.Register(ctx, gd); err != nil {
		return nil, g.fail(log, req, "persist", err)
	}

	elapsed := time.Since(start)
	g.metrics.DocumentGenerated(string(req.Kind), out.Extension, elapsed)
	log.WithFields(logrus.Fields{
		"id":       id,
		"key":      key,
		"size":     gd.Size,
		"total":    res.Total.StringFixed(2),
		"duration": elapsed,
	}).Info("document generated")
	return gd, nil
}

// Find returns a generated document record, nil, nil when id is unknown.
func (g *Generator) Find(ctx context.Context, id string) (*models.GeneratedDocument, error) {
	return g.generated.Find(ctx, id)
}

// Content reads back the archived output of a generated document.
func (g *Generator) Content(ctx context.Context, gd *models.GeneratedDocument) ([]byte, error) {
	return g.store.Get(ctx, gd.ArchiveKey)
}

func (g *Generator) render(ctx context.Context, file template.File, res *engine.Result) (template.File, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	wb, err := g.renderer.Load(file)
	if err != nil {
		return template.File{}, fmt.Errorf("load template file: %w", err)
	}
	defer wb.Close()
	for _, c := range res.Writes() {
		if err := ctx.Err(); err != nil {
			return template.File{}, err
		}
		if err := g.renderer.WriteCell(wb, c.Position, c.Value); err != nil {
			return template.File{}, fmt.Errorf("write %s: %w", c.Position, err)
		}
	}
	return g.renderer.Convert(ctx, wb)
}

func (g *Generator) loadDocument(ctx context.Context, kind attribute.DocumentKind, code string) (engine.Context, error) {
	issuer, err := g.issuer(ctx)
	if err != nil {
		return nil, err
	}
	switch kind {
	case attribute.DocumentInvoice:
		inv, err := g.invoices.Find(ctx, code)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			return nil, fmt.Errorf("%w: invoice %s", ErrDocumentNotFound, code)
		}
		if inv.Cancelled() {
			return nil, fmt.Errorf("%w: %s", ErrCancelled, code)
		}
		return document.NewInvoice(issuer, inv), nil
	case attribute.DocumentDeliveryNote:
		note, err := g.deliveryNotes.Find(ctx, code)
		if err != nil {
			return nil, err
		}
		if note == nil {
			return nil, fmt.Errorf("%w: delivery note %s", ErrDocumentNotFound, code)
		}
		return document.NewDeliveryNote(issuer, note), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// issuer is the first configured company.
func (g *Generator) issuer(ctx context.Context) (*models.CompanySettings, error) {
	var c models.CompanySettings
	err := g.issuers.DB(ctx).Order("id").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIssuerMissing
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (g *Generator) fail(log *logrus.Entry, req Request, reason string, err error) error {
	g.metrics.GenerationFailed(string(req.Kind), reason)
	log.WithError(err).WithField("reason", reason).Error("document generation failed")
	return err
}
