package inventory

import (
	"fmt"

	"bizbook-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Allocation is one lot's contribution to a consumed quantity.
type Allocation struct {
	LotID    string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// ErrInsufficientStock reports how much was available when a consume request
// could not be filled.
type ErrInsufficientStock struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock: requested %s, available %s", e.Requested, e.Available)
}

// AllocateFIFO walks lots oldest-first and splits qty across them. Lots must
// already be ordered by received date ascending. Returns the per-lot
// allocations and the blended unit cost (total cost / qty).
func AllocateFIFO(lots []models.StockLot, qty decimal.Decimal) ([]Allocation, decimal.Decimal, error) {
	if !qty.IsPositive() {
		return nil, decimal.Decimal{}, fmt.Errorf("quantity must be positive, got %s", qty)
	}

	var (
		allocations []Allocation
		totalCost   decimal.Decimal
		remaining   = qty
	)

	for _, lot := range lots {
		if !lot.RemainingQty.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, lot.RemainingQty)
		allocations = append(allocations, Allocation{
			LotID:    lot.ID,
			Quantity: take,
			UnitCost: lot.UnitCost,
		})
		totalCost = totalCost.Add(take.Mul(lot.UnitCost))
		remaining = remaining.Sub(take)
		if remaining.IsZero() {
			break
		}
	}

	if remaining.IsPositive() {
		return nil, decimal.Decimal{}, ErrInsufficientStock{
			Requested: qty,
			Available: qty.Sub(remaining),
		}
	}

	return allocations, totalCost.Div(qty), nil
}
