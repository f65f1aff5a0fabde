package models

import (
	"time"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/subtotal"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/diewo77/agrodocs/internal/variable"
)

// SubtotalRecord persists a subtotal. Deleted is a business flag: deleted
// subtotals stay listed and keep their code forever.
type SubtotalRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code       int64  `gorm:"uniqueIndex;not null" json:"code"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Percentage int    `gorm:"not null" json:"percentage"`
	IsDiscount bool   `gorm:"not null;default:false" json:"is_discount"`
	Deleted    bool   `gorm:"not null;default:false;index" json:"deleted"`
}

func (SubtotalRecord) TableName() string { return "subtotals" }

// Domain converts the record.
func (r *SubtotalRecord) Domain() subtotal.Subtotal {
	s := subtotal.New(r.Code, r.Name, r.Percentage, r.IsDiscount)
	s.Deleted = r.Deleted
	return s
}

// NewSubtotalRecord converts a domain subtotal.
func NewSubtotalRecord(s subtotal.Subtotal) SubtotalRecord {
	return SubtotalRecord{
		Code:       s.Code,
		Name:       s.Name,
		Percentage: subtotal.Clamp(s.Percentage),
		IsDiscount: s.IsDiscount,
		Deleted:    s.Deleted,
	}
}

// VariableRecord persists a variable. The unique index on name spans deleted rows,
// so names are never recycled.
type VariableRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string          `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description  string          `gorm:"size:500" json:"description,omitempty"`
	Attribute    string          `gorm:"size:64;not null" json:"attribute"`
	SubtotalCode *int64          `gorm:"index" json:"subtotal_code,omitempty"`
	Subtotal     *SubtotalRecord `gorm:"foreignKey:SubtotalCode;references:Code" json:"subtotal,omitempty"`
	Deleted      bool            `gorm:"not null;default:false;index" json:"deleted"`
}

func (VariableRecord) TableName() string { return "variables" }

// Domain converts the record. Subtotal must be preloaded for subtotal variables.
func (r *VariableRecord) Domain() variable.Variable {
	v := variable.Variable{
		Name:        r.Name,
		Description: r.Description,
		Attribute:   attribute.Attribute(r.Attribute),
		Deleted:     r.Deleted,
	}
	if r.Subtotal != nil {
		s := r.Subtotal.Domain()
		v.Subtotal = &s
	}
	return v
}

// NewVariableRecord converts a domain variable.
func NewVariableRecord(v variable.Variable) VariableRecord {
	r := VariableRecord{
		Name:        v.Name,
		Description: v.Description,
		Attribute:   string(v.Attribute),
		Deleted:     v.Deleted,
	}
	if v.Subtotal != nil {
		code := v.Subtotal.Code
		r.SubtotalCode = &code
	}
	return r
}

// TemplateRecord persists a template and its file.
type TemplateRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code      int64                 `gorm:"uniqueIndex;not null" json:"code"`
	Name      string                `gorm:"size:255;not null" json:"name"`
	Version   int                   `gorm:"not null;default:1" json:"version"`
	Content   []byte                `gorm:"not null" json:"-"`
	Extension string                `gorm:"size:10;not null" json:"extension"`
	Deleted   bool                  `gorm:"not null;default:false;index" json:"deleted"`
	Fields    []TemplateFieldRecord `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
}

func (TemplateRecord) TableName() string { return "templates" }

// TemplateFieldRecord is one position/expression pair of a template.
type TemplateFieldRecord struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	TemplateID uint   `gorm:"not null;uniqueIndex:idx_template_field_position" json:"-"`
	Sequence   int    `gorm:"not null" json:"sequence"`
	Position   string `gorm:"size:32;not null;uniqueIndex:idx_template_field_position" json:"position"`
	Expression string `gorm:"type:text;not null" json:"expression"`
}

func (TemplateFieldRecord) TableName() string { return "template_fields" }

// Domain converts the record. Fields must be preloaded.
func (r *TemplateRecord) Domain() *template.Template {
	t := &template.Template{
		Code:    r.Code,
		Name:    r.Name,
		Version: r.Version,
		File:    template.File{Content: r.Content, Extension: r.Extension},
		Deleted: r.Deleted,
		Fields:  make([]template.Field, 0, len(r.Fields)),
	}
	for _, f := range r.Fields {
		t.Fields = append(t.Fields, template.Field{Sequence: f.Sequence, Position: f.Position, Expression: f.Expression})
	}
	t.Fields = t.OrderedFields()
	return t
}

// NewTemplateRecord converts a domain template.
func NewTemplateRecord(t *template.Template) TemplateRecord {
	r := TemplateRecord{
		Code:      t.Code,
		Name:      t.Name,
		Version:   t.Version,
		Content:   t.File.Content,
		Extension: t.File.Extension,
		Deleted:   t.Deleted,
	}
	r.Fields = FieldRecords(t.Fields)
	return r
}

// FieldRecords converts template fields for storage.
func FieldRecords(fields []template.Field) []TemplateFieldRecord {
	out := make([]TemplateFieldRecord, 0, len(fields))
	for _, f := range fields {
		out = append(out, TemplateFieldRecord{Sequence: f.Sequence, Position: f.Position, Expression: f.Expression})
	}
	return out
}
