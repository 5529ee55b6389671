package finance_test

import (
	"testing"

	"bizbook-backend/internal/finance"
)

func TestResolveUnit(t *testing.T) {
	options := []finance.UnitOption{
		{Name: "box", Factor: dec("12")},
		{Name: "pallet", Factor: dec("480")},
	}

	tests := []struct {
		name      string
		requested string
		want      string
		wantErr   bool
	}{
		{name: "base unit resolves to 1", requested: "pcs", want: "1"},
		{name: "empty request means base", requested: "", want: "1"},
		{name: "alternate unit", requested: "box", want: "12"},
		{name: "second alternate", requested: "pallet", want: "480"},
		{name: "unknown unit rejected", requested: "dozen", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := finance.ResolveUnit("pcs", options, tt.requested)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ResolveUnit() = nil error, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveUnit() error = %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ResolveUnit() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveUnit_NonPositiveFactorRejected(t *testing.T) {
	options := []finance.UnitOption{{Name: "box", Factor: dec("0")}}
	if _, err := finance.ResolveUnit("pcs", options, "box"); err == nil {
		t.Error("expected error for zero conversion factor")
	}
}

func TestAltUnitCost(t *testing.T) {
	// 25 per piece, 12 pieces per box → 300 per box
	got := finance.AltUnitCost(dec("25"), dec("12"))
	if !got.Equal(dec("300")) {
		t.Errorf("AltUnitCost() = %s, want 300", got)
	}
}
