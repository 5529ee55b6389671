package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLot is one received batch of a product. Purchases append lots, sales
// consume them oldest-first; RemainingQty in base units drops to zero as the
// lot is used up. Quantities are always stored in the product's base unit.
type StockLot struct {
	ID             string `gorm:"size:36;primaryKey"` // uuid
	OrganizationID uint   `gorm:"index;not null"`
	ProductID      uint   `gorm:"index:idx_lot_product_date;not null"`
	Product        Product

	PurchaseInvoiceID *uint `gorm:"index"`

	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	RemainingQty decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,4);not null"` // per base unit
	ReceivedAt   time.Time       `gorm:"index:idx_lot_product_date;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CogsAllocation records which lots a sales invoice line consumed and at what
// unit cost, so reported COGS stays stable even if lots are later adjusted.
type CogsAllocation struct {
	ID                 uint   `gorm:"primaryKey"`
	OrganizationID     uint   `gorm:"index;not null"`
	SalesInvoiceItemID uint   `gorm:"index;not null"`
	StockLotID         string `gorm:"size:36;index;not null"`

	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitCost decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	CreatedAt time.Time
}
