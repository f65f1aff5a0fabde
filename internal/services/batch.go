package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Outcome is the result of one document of a batch.
type Outcome struct {
	DocumentCode string                    `json:"document_code"`
	Document     *models.GeneratedDocument `json:"document,omitempty"`
	Err          error                     `json:"-"`
	Error        string                    `json:"error,omitempty"`
}

// BatchGenerator renders many documents with bounded parallelism. Each document is
// generated on its own: one failure does not stop the others.
type BatchGenerator struct {
	db        *gorm.DB
	generator *Generator
	workers   int
	log       logrus.FieldLogger
}

func NewBatchGenerator(db *gorm.DB, generator *Generator, workers int, log logrus.FieldLogger) *BatchGenerator {
	if workers < 1 {
		workers = 1
	}
	return &BatchGenerator{db: db, generator: generator, workers: workers, log: log}
}

// GenerateInvoices renders every invoice dated within [from, to] with templateCode,
// cancelled ones excepted. Outcomes follow invoice code order.
func (b *BatchGenerator) GenerateInvoices(ctx context.Context, from, to time.Time, templateCode int64) ([]Outcome, error) {
	var codes []string
	if err := b.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("date >= ? AND date <= ? AND (status IS NULL OR status <> ?)", from, to, models.InvoiceStatusCancelled).
		Order("code").Pluck("code", &codes).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return b.Generate(ctx, attribute.DocumentInvoice, codes, templateCode)
}

// Generate renders the documents of kind named by codes.
func (b *BatchGenerator) Generate(ctx context.Context, kind attribute.DocumentKind, codes []string, templateCode int64) ([]Outcome, error) {
	outcomes := make([]Outcome, len(codes))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, code := range codes {
		g.Go(func() error {
			gd, err := b.generator.Generate(gctx, Request{Kind: kind, DocumentCode: code, TemplateCode: templateCode})
			o := Outcome{DocumentCode: code, Document: gd, Err: err}
			if err != nil {
				o.Error = err.Error()
				mu.Lock()
				failed++
				mu.Unlock()
			}
			outcomes[i] = o
			// only cancellation of the whole batch stops it
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	b.log.WithFields(logrus.Fields{
		"kind":      kind,
		"template":  templateCode,
		"documents": len(codes),
		"failed":    failed,
	}).Info("batch generation finished")
	return outcomes, nil
}
