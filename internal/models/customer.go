package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer is a farmer delivering produce and receiving invoices.
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code  string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name  string `gorm:"size:255;not null" json:"name"`
	TIN   string `gorm:"size:20;uniqueIndex" json:"tin,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`
	Phone string `gorm:"size:50" json:"phone,omitempty"`

	// Address
	Address    string `gorm:"size:500" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`

	DeliveryNotes []DeliveryNote `gorm:"foreignKey:CustomerID" json:"delivery_notes,omitempty"`
}

// FullAddress returns the formatted full address.
func (c *Customer) FullAddress() string {
	return formatAddress(c.Address, c.PostalCode, c.City, c.Country)
}
