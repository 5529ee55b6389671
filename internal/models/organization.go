package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaxMode string

const (
	// Per-line Indian GST, split into CGST/SGST or IGST by state code.
	TaxModeGST TaxMode = "gst"
	// Single document-level tax rate.
	TaxModeFlat TaxMode = "flat"
	// Saudi VAT with ZATCA Phase 1 QR payloads.
	TaxModeSaudi TaxMode = "saudi"
)

type Organization struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:150;not null"`
	TaxMode   TaxMode `gorm:"size:10;not null;default:'flat'"`
	StateCode string  `gorm:"size:5"`  // GST state code ("29" = Karnataka)
	GSTIN     string  `gorm:"size:20"` // GST registration number
	VATNumber string  `gorm:"size:20"` // Saudi VAT registration number

	// VAT rate as a fraction (0.15 = 15%), applied in saudi mode.
	VATRate decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0.15"`

	// Feature flags surfaced to the client sidebar
	MultiUnitEnabled  bool `gorm:"not null;default:false"`
	DebitNotesEnabled bool `gorm:"not null;default:true"`
	ReportsEnabled    bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
