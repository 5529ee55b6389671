package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus is shared across purchase invoices, sales invoices and debit
// notes. Draft documents have no payment state yet; afterwards the status
// follows amount_paid vs total. Overpaid can only arise when an edit lowers
// the total below what was already paid - payments themselves are capped.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "draft"
	StatusIssued   DocumentStatus = "issued" // debit notes only, no payment state
	StatusUnpaid   DocumentStatus = "unpaid"
	StatusPartial  DocumentStatus = "partial"
	StatusPaid     DocumentStatus = "paid"
	StatusOverpaid DocumentStatus = "overpaid"
)

type DocumentType string

const (
	DocTypePurchaseInvoice DocumentType = "purchase_invoice"
	DocTypeSalesInvoice    DocumentType = "sales_invoice"
	DocTypeDebitNote       DocumentType = "debit_note"
)

type PurchaseInvoice struct {
	ID             uint           `gorm:"primaryKey"`
	OrganizationID uint           `gorm:"index;not null;uniqueIndex:idx_purchase_org_number"`
	Organization   Organization
	SupplierID     uint           `gorm:"index;not null"`
	Supplier       Supplier
	Number         string         `gorm:"size:30;not null;uniqueIndex:idx_purchase_org_number"`
	IssueDate      time.Time      `gorm:"index;not null"`
	DueDate        time.Time
	Status         DocumentStatus `gorm:"size:20;not null;default:'draft'"`

	Items []PurchaseInvoiceItem `gorm:"foreignKey:InvoiceID"`

	Subtotal decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Tax      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	IGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	VAT      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Discount decimal.Decimal `gorm:"type:decimal(20,4);not null"` // absolute, off the tax-inclusive total
	Total    decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	AmountPaid decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	BalanceDue decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	Notes     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PurchaseInvoiceItem struct {
	ID        uint    `gorm:"primaryKey"`
	InvoiceID uint    `gorm:"index;not null"`
	ProductID uint    `gorm:"index;not null"`
	Product   Product

	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Unit             string          `gorm:"size:20;not null"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,6);not null;default:1"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	GSTRate          decimal.Decimal `gorm:"type:decimal(6,2);not null"`

	LineTotal decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type SalesInvoice struct {
	ID             uint           `gorm:"primaryKey"`
	OrganizationID uint           `gorm:"index;not null;uniqueIndex:idx_sales_org_number"`
	Organization   Organization
	CustomerID     uint           `gorm:"index;not null"`
	Customer       Customer
	Number         string         `gorm:"size:30;not null;uniqueIndex:idx_sales_org_number"`
	IssueDate      time.Time      `gorm:"index;not null"`
	DueDate        time.Time
	Status         DocumentStatus `gorm:"size:20;not null;default:'draft'"`

	Items []SalesInvoiceItem `gorm:"foreignKey:InvoiceID"`

	Subtotal decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Tax      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	IGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	VAT      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Discount decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Total    decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	AmountPaid decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	BalanceDue decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	// ZATCA Phase 1 QR payload, set only for saudi-mode organizations.
	QRPayload string `gorm:"type:text"`

	Notes     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SalesInvoiceItem struct {
	ID        uint    `gorm:"primaryKey"`
	InvoiceID uint    `gorm:"index;not null"`
	ProductID uint    `gorm:"index;not null"`
	Product   Product

	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Unit             string          `gorm:"size:20;not null"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,6);not null;default:1"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	GSTRate          decimal.Decimal `gorm:"type:decimal(6,2);not null"`

	LineTotal decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	// Blended FIFO cost per sale unit, persisted at creation time so profit
	// reports never recompute from current prices.
	FIFOUnitCost decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type DebitNote struct {
	ID             uint         `gorm:"primaryKey"`
	OrganizationID uint         `gorm:"index;not null;uniqueIndex:idx_debit_org_number"`
	Organization   Organization
	SupplierID     uint         `gorm:"index;not null"`
	Supplier       Supplier

	// Optional link back to the purchase invoice being adjusted.
	PurchaseInvoiceID *uint          `gorm:"index"`
	Number            string         `gorm:"size:30;not null;uniqueIndex:idx_debit_org_number"`
	IssueDate         time.Time      `gorm:"index;not null"`
	Status            DocumentStatus `gorm:"size:20;not null;default:'draft'"`

	Items []DebitNoteItem `gorm:"foreignKey:NoteID"`

	Subtotal decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Tax      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	IGST     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	VAT      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Total    decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	Reason    string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DebitNoteItem struct {
	ID        uint    `gorm:"primaryKey"`
	NoteID    uint    `gorm:"index;not null"`
	ProductID uint    `gorm:"index;not null"`
	Product   Product

	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Unit             string          `gorm:"size:20;not null"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,6);not null;default:1"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	GSTRate          decimal.Decimal `gorm:"type:decimal(6,2);not null"`

	LineTotal decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentSequence hands out per-organization, per-document-type invoice
// numbers. NextNumber is the next unused value.
type DocumentSequence struct {
	ID             uint         `gorm:"primaryKey"`
	OrganizationID uint         `gorm:"not null;uniqueIndex:idx_seq_org_type"`
	DocumentType   DocumentType `gorm:"size:30;not null;uniqueIndex:idx_seq_org_type"`
	Prefix         string       `gorm:"size:10;not null"`
	NextNumber     uint         `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
