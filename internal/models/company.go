package models

import (
	"time"

	"gorm.io/gorm"
)

// CompanySettings is the issuing company printed as sender on every document.
type CompanySettings struct {
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
}

// FullAddress returns the formatted full address.
func (c *CompanySettings) FullAddress() string {
	return formatAddress(c.Address, c.PostalCode, c.City, c.Country)
}

func formatAddress(street, postalCode, city, country string) string {
	addr := street
	if postalCode != "" || city != "" {
		if addr != "" {
			addr += "\n"
		}
		addr += postalCode
		if postalCode != "" && city != "" {
			addr += " "
		}
		addr += city
	}
	if country != "" {
		if addr != "" {
			addr += "\n"
		}
		addr += country
	}
	return addr
}
