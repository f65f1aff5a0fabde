package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a crop or good traded on delivery notes.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code      string          `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"unit_price"`
	Unit      string          `gorm:"size:50;default:'kg'" json:"unit"`

	// PricedByWeight bills lines by net weight instead of quantity.
	PricedByWeight bool `gorm:"default:true" json:"priced_by_weight"`
}

// Container is a returnable box or crate; its tare is subtracted from gross weight.
type Container struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code string          `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name string          `gorm:"size:255;not null" json:"name"`
	Tare decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"tare"`
}
