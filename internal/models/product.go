package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             uint            `gorm:"primaryKey"`
	OrganizationID uint            `gorm:"index;not null"`
	Organization   Organization
	Name           string          `gorm:"size:150;not null"`
	SKU            string          `gorm:"size:50;index"`
	HSNCode        string          `gorm:"size:10"`          // tax classification code
	BaseUnit       string          `gorm:"size:20;not null"` // kg, pcs, box
	PurchasePrice  decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SalePrice      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	GSTRate        decimal.Decimal `gorm:"type:decimal(6,2);not null"` // percent, 0-100
	Units          []ProductUnit   `gorm:"foreignKey:ProductID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductUnit is an alternate sell/buy unit with a direct conversion factor
// to the product's base unit. No transitive chains: every alternate unit
// converts straight to base.
type ProductUnit struct {
	ID        uint            `gorm:"primaryKey"`
	ProductID uint            `gorm:"index;not null"`
	Name      string          `gorm:"size:20;not null"`
	Factor    decimal.Decimal `gorm:"type:decimal(20,6);not null"` // base units per alternate unit
	CreatedAt time.Time
	UpdatedAt time.Time
}
