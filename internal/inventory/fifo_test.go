package inventory_test

import (
	"errors"
	"testing"
	"time"

	"bizbook-backend/internal/inventory"
	"bizbook-backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lot(id string, remaining, cost string, day int) models.StockLot {
	return models.StockLot{
		ID:           id,
		RemainingQty: dec(remaining),
		UnitCost:     dec(cost),
		ReceivedAt:   time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestAllocateFIFO_SingleLot(t *testing.T) {
	lots := []models.StockLot{lot("a", "10", "30", 1)}

	allocs, unitCost, err := inventory.AllocateFIFO(lots, dec("4"))
	if err != nil {
		t.Fatalf("AllocateFIFO() error = %v", err)
	}
	if len(allocs) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocs))
	}
	if !allocs[0].Quantity.Equal(dec("4")) {
		t.Errorf("allocated %s, want 4", allocs[0].Quantity)
	}
	if !unitCost.Equal(dec("30")) {
		t.Errorf("unit cost = %s, want 30", unitCost)
	}
}

func TestAllocateFIFO_SpansLotsOldestFirst(t *testing.T) {
	lots := []models.StockLot{
		lot("old", "5", "20", 1),
		lot("new", "10", "30", 2),
	}

	allocs, unitCost, err := inventory.AllocateFIFO(lots, dec("8"))
	if err != nil {
		t.Fatalf("AllocateFIFO() error = %v", err)
	}
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocs))
	}
	if allocs[0].LotID != "old" || !allocs[0].Quantity.Equal(dec("5")) {
		t.Errorf("first allocation = %s*%s from %s, want 5 from old", allocs[0].Quantity, allocs[0].UnitCost, allocs[0].LotID)
	}
	if allocs[1].LotID != "new" || !allocs[1].Quantity.Equal(dec("3")) {
		t.Errorf("second allocation = %s from %s, want 3 from new", allocs[1].Quantity, allocs[1].LotID)
	}
	// (5*20 + 3*30) / 8 = 190/8 = 23.75
	if !unitCost.Equal(dec("23.75")) {
		t.Errorf("blended unit cost = %s, want 23.75", unitCost)
	}
}

func TestAllocateFIFO_SkipsEmptyLots(t *testing.T) {
	lots := []models.StockLot{
		lot("spent", "0", "10", 1),
		lot("live", "6", "25", 2),
	}

	allocs, _, err := inventory.AllocateFIFO(lots, dec("2"))
	if err != nil {
		t.Fatalf("AllocateFIFO() error = %v", err)
	}
	if len(allocs) != 1 || allocs[0].LotID != "live" {
		t.Errorf("expected single allocation from live lot, got %+v", allocs)
	}
}

func TestAllocateFIFO_InsufficientStock(t *testing.T) {
	lots := []models.StockLot{lot("a", "3", "10", 1)}

	_, _, err := inventory.AllocateFIFO(lots, dec("5"))
	var insufficient inventory.ErrInsufficientStock
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if !insufficient.Available.Equal(dec("3")) {
		t.Errorf("Available = %s, want 3", insufficient.Available)
	}
}

func TestAllocateFIFO_RejectsNonPositiveQty(t *testing.T) {
	lots := []models.StockLot{lot("a", "3", "10", 1)}
	if _, _, err := inventory.AllocateFIFO(lots, dec("0")); err == nil {
		t.Error("expected error for zero quantity")
	}
}
