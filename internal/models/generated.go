package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedDocument records one rendered output and the values that went into it.
type GeneratedDocument struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TemplateCode    int64  `gorm:"not null;index" json:"template_code"`
	TemplateVersion int    `gorm:"not null" json:"template_version"`
	DocumentKind    string `gorm:"size:20;not null;index:idx_generated_document" json:"document_kind"`
	DocumentCode    string `gorm:"size:50;not null;index:idx_generated_document" json:"document_code"`

	Format     string            `gorm:"size:10;not null" json:"format"`
	ArchiveKey string            `gorm:"size:500;not null" json:"archive_key"`
	Size       int64             `json:"size"`
	Values     datatypes.JSONMap `json:"values"`
}

// BeforeCreate assigns a random id when none is set.
func (d *GeneratedDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Sequence is a named monotonic counter used to hand out codes.
type Sequence struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	Value     int64     `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&CompanySettings{}, &Customer{}, &Product{}, &Container{},
		&DeliveryNote{}, &DeliveryNoteLine{}, &Invoice{},
		&SubtotalRecord{}, &VariableRecord{}, &TemplateRecord{}, &TemplateFieldRecord{},
		&GeneratedDocument{}, &Sequence{},
	}
}
