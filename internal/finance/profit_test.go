package finance_test

import (
	"testing"

	"bizbook-backend/internal/finance"
)

func TestProfitLine(t *testing.T) {
	tests := []struct {
		name        string
		in          finance.ProfitInput
		wantPerUnit string
		wantPercent string
	}{
		{
			name: "plain margin",
			in: finance.ProfitInput{
				Quantity:     dec("1"),
				UnitPrice:    dec("500"),
				FIFOUnitCost: dec("300"),
			},
			wantPerUnit: "200",
			wantPercent: "40",
		},
		{
			name: "discount eats margin",
			in: finance.ProfitInput{
				Quantity:        dec("2"),
				UnitPrice:       dec("100"),
				DiscountPercent: dec("10"),
				FIFOUnitCost:    dec("90"),
			},
			wantPerUnit: "0",
			wantPercent: "0",
		},
		{
			name: "selling below cost",
			in: finance.ProfitInput{
				Quantity:     dec("1"),
				UnitPrice:    dec("80"),
				FIFOUnitCost: dec("100"),
			},
			wantPerUnit: "-20",
			wantPercent: "-25",
		},
		{
			name: "free item reports zero percent",
			in: finance.ProfitInput{
				Quantity:        dec("1"),
				UnitPrice:       dec("100"),
				DiscountPercent: dec("100"),
				FIFOUnitCost:    dec("60"),
			},
			wantPerUnit: "-60",
			wantPercent: "0", // divide-by-zero sentinel
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := finance.ProfitLine(tt.in)
			if !got.ProfitPerUnit.Equal(dec(tt.wantPerUnit)) {
				t.Errorf("ProfitPerUnit = %s, want %s", got.ProfitPerUnit, tt.wantPerUnit)
			}
			if !got.ProfitPercent.Equal(dec(tt.wantPercent)) {
				t.Errorf("ProfitPercent = %s, want %s", got.ProfitPercent, tt.wantPercent)
			}
		})
	}
}

func TestAggregateProfit_WeightedPercent(t *testing.T) {
	lines := []finance.LineProfit{
		finance.ProfitLine(finance.ProfitInput{
			Quantity: dec("1"), UnitPrice: dec("500"), FIFOUnitCost: dec("300"),
		}),
		finance.ProfitLine(finance.ProfitInput{
			Quantity: dec("3"), UnitPrice: dec("100"), FIFOUnitCost: dec("100"),
		}),
	}

	s := finance.AggregateProfit(lines)

	if !s.TotalRevenue.Equal(dec("800")) {
		t.Errorf("TotalRevenue = %s, want 800", s.TotalRevenue)
	}
	if !s.TotalCOGS.Equal(dec("600")) {
		t.Errorf("TotalCOGS = %s, want 600", s.TotalCOGS)
	}
	if !s.TotalProfit.Equal(dec("200")) {
		t.Errorf("TotalProfit = %s, want 200", s.TotalProfit)
	}
	if !s.ProfitPercent.Equal(dec("25")) {
		t.Errorf("ProfitPercent = %s, want 25 (200/800)", s.ProfitPercent)
	}
}

func TestAggregateProfit_ZeroRevenue(t *testing.T) {
	s := finance.AggregateProfit(nil)
	if !s.ProfitPercent.IsZero() {
		t.Errorf("ProfitPercent = %s, want 0 with no revenue", s.ProfitPercent)
	}
}
