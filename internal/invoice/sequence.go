package invoice

import (
	"fmt"

	"bizbook-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sequencePrefixes = map[models.DocumentType]string{
	models.DocTypePurchaseInvoice: "PUR",
	models.DocTypeSalesInvoice:    "INV",
	models.DocTypeDebitNote:       "DN",
}

// NextNumberTx hands out the next document number for the org/type pair,
// locking the sequence row so concurrent creates never share a number.
func NextNumberTx(tx *gorm.DB, orgID uint, docType models.DocumentType) (string, error) {
	var seq models.DocumentSequence
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND document_type = ?", orgID, docType).
		First(&seq).Error

	if err == gorm.ErrRecordNotFound {
		seq = models.DocumentSequence{
			OrganizationID: orgID,
			DocumentType:   docType,
			Prefix:         sequencePrefixes[docType],
			NextNumber:     1,
		}
		if err := tx.Create(&seq).Error; err != nil {
			return "", fmt.Errorf("could not create document sequence: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("could not load document sequence: %w", err)
	}

	number := FormatNumber(seq.Prefix, seq.NextNumber)
	seq.NextNumber++
	if err := tx.Save(&seq).Error; err != nil {
		return "", fmt.Errorf("could not advance document sequence: %w", err)
	}
	return number, nil
}

// FormatNumber renders "PUR-0001". Width grows past four digits rather than
// wrapping.
func FormatNumber(prefix string, n uint) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}
