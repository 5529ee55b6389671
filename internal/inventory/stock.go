package inventory

import (
	"fmt"
	"time"

	"bizbook-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// AddLotTx appends a stock lot inside the caller's transaction. Quantity and
// unit cost are in the product's base unit; purchase lines in alternate units
// are converted before this point.
func AddLotTx(tx *gorm.DB, orgID, productID uint, purchaseInvoiceID *uint, qty, unitCost decimal.Decimal, receivedAt time.Time) (models.StockLot, error) {
	lot := models.StockLot{
		ID:                uuid.NewString(),
		OrganizationID:    orgID,
		ProductID:         productID,
		PurchaseInvoiceID: purchaseInvoiceID,
		Quantity:          qty,
		RemainingQty:      qty,
		UnitCost:          unitCost,
		ReceivedAt:        receivedAt,
	}
	if err := tx.Create(&lot).Error; err != nil {
		return models.StockLot{}, fmt.Errorf("could not create stock lot: %w", err)
	}
	return lot, nil
}

// ConsumeFIFOTx draws qty base units from the product's open lots oldest
// first, persists the allocations against the sales invoice item and returns
// the blended FIFO unit cost. Lots are locked for the duration of the
// transaction so concurrent sales cannot double-spend stock.
func ConsumeFIFOTx(tx *gorm.DB, orgID, productID, salesItemID uint, qty decimal.Decimal) (decimal.Decimal, error) {
	var lots []models.StockLot
	err := tx.
		Clauses(lockForUpdate()).
		Where("organization_id = ? AND product_id = ? AND remaining_qty > 0", orgID, productID).
		Order("received_at asc, id asc").
		Find(&lots).Error
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("could not load stock lots: %w", err)
	}

	allocations, unitCost, err := AllocateFIFO(lots, qty)
	if err != nil {
		return decimal.Decimal{}, err
	}

	for _, alloc := range allocations {
		res := tx.Model(&models.StockLot{}).
			Where("id = ?", alloc.LotID).
			Update("remaining_qty", gorm.Expr("remaining_qty - ?", alloc.Quantity))
		if res.Error != nil {
			return decimal.Decimal{}, fmt.Errorf("could not draw down lot %s: %w", alloc.LotID, res.Error)
		}

		row := models.CogsAllocation{
			OrganizationID:     orgID,
			SalesInvoiceItemID: salesItemID,
			StockLotID:         alloc.LotID,
			Quantity:           alloc.Quantity,
			UnitCost:           alloc.UnitCost,
		}
		if err := tx.Create(&row).Error; err != nil {
			return decimal.Decimal{}, fmt.Errorf("could not record COGS allocation: %w", err)
		}
	}

	return unitCost, nil
}

// DrawDownTx removes qty base units from the product's open lots oldest first
// without recording per-sale allocations. Used for supplier returns, where the
// goods leave stock but there is no sale line to cost against. Returns the
// blended FIFO unit cost of what was removed.
func DrawDownTx(tx *gorm.DB, orgID, productID uint, qty decimal.Decimal) (decimal.Decimal, error) {
	var lots []models.StockLot
	err := tx.
		Clauses(lockForUpdate()).
		Where("organization_id = ? AND product_id = ? AND remaining_qty > 0", orgID, productID).
		Order("received_at asc, id asc").
		Find(&lots).Error
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("could not load stock lots: %w", err)
	}

	allocations, unitCost, err := AllocateFIFO(lots, qty)
	if err != nil {
		return decimal.Decimal{}, err
	}

	for _, alloc := range allocations {
		res := tx.Model(&models.StockLot{}).
			Where("id = ?", alloc.LotID).
			Update("remaining_qty", gorm.Expr("remaining_qty - ?", alloc.Quantity))
		if res.Error != nil {
			return decimal.Decimal{}, fmt.Errorf("could not draw down lot %s: %w", alloc.LotID, res.Error)
		}
	}

	return unitCost, nil
}

// ReleaseAllocationsTx returns consumed stock to its lots, used when a sales
// invoice is edited and its lines are replaced.
func ReleaseAllocationsTx(tx *gorm.DB, salesItemIDs []uint) error {
	if len(salesItemIDs) == 0 {
		return nil
	}

	var allocations []models.CogsAllocation
	if err := tx.Where("sales_invoice_item_id IN ?", salesItemIDs).Find(&allocations).Error; err != nil {
		return fmt.Errorf("could not load COGS allocations: %w", err)
	}

	for _, alloc := range allocations {
		res := tx.Model(&models.StockLot{}).
			Where("id = ?", alloc.StockLotID).
			Update("remaining_qty", gorm.Expr("remaining_qty + ?", alloc.Quantity))
		if res.Error != nil {
			return fmt.Errorf("could not restore lot %s: %w", alloc.StockLotID, res.Error)
		}
	}

	return tx.Where("sales_invoice_item_id IN ?", salesItemIDs).
		Delete(&models.CogsAllocation{}).Error
}

// RemoveLotsForInvoiceTx deletes the lots a purchase invoice created, used on
// edit before re-adding. Fails if any lot is already partially consumed.
func RemoveLotsForInvoiceTx(tx *gorm.DB, purchaseInvoiceID uint) error {
	var lots []models.StockLot
	if err := tx.Where("purchase_invoice_id = ?", purchaseInvoiceID).Find(&lots).Error; err != nil {
		return fmt.Errorf("could not load lots: %w", err)
	}
	for _, lot := range lots {
		if !lot.RemainingQty.Equal(lot.Quantity) {
			return fmt.Errorf("stock from this invoice has already been sold; issue a debit note instead")
		}
	}
	return tx.Where("purchase_invoice_id = ?", purchaseInvoiceID).
		Delete(&models.StockLot{}).Error
}
