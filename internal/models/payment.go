package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentBank  PaymentMethod = "bank"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

// Payment is recorded against a single document; DocumentType + DocumentID
// identify which one. Reference is a server-generated UUID used on receipts.
type Payment struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index;not null"`
	Organization   Organization

	DocumentType DocumentType `gorm:"size:30;index:idx_payment_doc;not null"`
	DocumentID   uint         `gorm:"index:idx_payment_doc;not null"`

	Reference string          `gorm:"size:36;uniqueIndex;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Method    PaymentMethod   `gorm:"size:10;not null;default:'cash'"`
	Date      time.Time       `gorm:"index;not null"`
	Notes     string          `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
