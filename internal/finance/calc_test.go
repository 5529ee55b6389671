package finance_test

import (
	"testing"

	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(qty, price, disc string) finance.LineInput {
	return finance.LineInput{
		Quantity:        dec(qty),
		UnitPrice:       dec(price),
		DiscountPercent: dec(disc),
	}
}

func TestComputeLineTotal(t *testing.T) {
	tests := []struct {
		name string
		in   finance.LineInput
		want string
	}{
		{
			name: "no discount",
			in:   line("2", "50", "0"),
			want: "100",
		},
		{
			name: "ten percent discount",
			in:   line("10", "100", "10"),
			want: "900",
		},
		{
			name: "full discount",
			in:   line("3", "40", "100"),
			want: "0",
		},
		{
			name: "fractional quantity",
			in:   line("0.5", "99.99", "0"),
			want: "49.995",
		},
		{
			name: "alternate unit",
			in: finance.LineInput{
				Quantity:         dec("2"),
				UnitPrice:        dec("10"),
				ConversionFactor: dec("12"), // e.g. box of 12
			},
			want: "240",
		},
		{
			name: "zero conversion factor means base unit",
			in:   line("4", "25", "0"),
			want: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := finance.ComputeLineTotal(tt.in)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ComputeLineTotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeTotals_FlatMode(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeFlat}
	doc := finance.DocumentInput{
		Lines:   []finance.LineInput{line("10", "100", "10")}, // 900
		TaxRate: dec("18"),
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	if !totals.Subtotal.Equal(dec("900")) {
		t.Errorf("Subtotal = %s, want 900", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec("162")) {
		t.Errorf("Tax = %s, want 162", totals.Tax)
	}
	if !totals.Total.Equal(dec("1062")) {
		t.Errorf("Total = %s, want 1062", totals.Total)
	}
	if !totals.CGST.IsZero() || !totals.SGST.IsZero() || !totals.IGST.IsZero() || !totals.VAT.IsZero() {
		t.Errorf("flat mode must not populate GST/VAT branches: %+v", totals)
	}
}

func TestComputeTotals_GSTIntraState(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeGST, StateCode: "29"}
	l := line("10", "100", "0") // 1000
	l.GSTRate = dec("18")
	doc := finance.DocumentInput{
		Lines:             []finance.LineInput{l},
		CustomerStateCode: "29",
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	if !totals.CGST.Equal(dec("90")) {
		t.Errorf("CGST = %s, want 90", totals.CGST)
	}
	if !totals.SGST.Equal(dec("90")) {
		t.Errorf("SGST = %s, want 90", totals.SGST)
	}
	if !totals.IGST.IsZero() {
		t.Errorf("IGST = %s, want 0 for intra-state", totals.IGST)
	}
	if !totals.Tax.Equal(dec("180")) {
		t.Errorf("Tax = %s, want 180", totals.Tax)
	}
	if !totals.Total.Equal(dec("1180")) {
		t.Errorf("Total = %s, want 1180", totals.Total)
	}
}

func TestComputeTotals_GSTInterState(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeGST, StateCode: "29"}
	l := line("10", "100", "0")
	l.GSTRate = dec("18")
	doc := finance.DocumentInput{
		Lines:             []finance.LineInput{l},
		CustomerStateCode: "27", // Maharashtra vs Karnataka
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	if !totals.IGST.Equal(dec("180")) {
		t.Errorf("IGST = %s, want 180", totals.IGST)
	}
	if !totals.CGST.IsZero() || !totals.SGST.IsZero() {
		t.Errorf("inter-state must not populate CGST/SGST: CGST=%s SGST=%s", totals.CGST, totals.SGST)
	}
}

func TestComputeTotals_GSTMixedRates(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeGST, StateCode: "29"}
	l1 := line("1", "1000", "0")
	l1.GSTRate = dec("18")
	l2 := line("1", "500", "0")
	l2.GSTRate = dec("5")
	doc := finance.DocumentInput{
		Lines:             []finance.LineInput{l1, l2},
		CustomerStateCode: "29",
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	// 180 + 25 = 205, split 102.50 / 102.50
	if !totals.Tax.Equal(dec("205")) {
		t.Errorf("Tax = %s, want 205", totals.Tax)
	}
	if !totals.CGST.Add(totals.SGST).Equal(totals.Tax) {
		t.Errorf("CGST+SGST = %s, want %s", totals.CGST.Add(totals.SGST), totals.Tax)
	}
	if !totals.Subtotal.Equal(dec("1500")) {
		t.Errorf("Subtotal = %s, want 1500", totals.Subtotal)
	}
}

func TestComputeTotals_SaudiVAT(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeSaudi}
	doc := finance.DocumentInput{
		Lines: []finance.LineInput{line("10", "100", "0")}, // 1000
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	if !totals.VAT.Equal(dec("150")) {
		t.Errorf("VAT = %s, want 150", totals.VAT)
	}
	if !totals.Total.Equal(dec("1150")) {
		t.Errorf("Total = %s, want 1150", totals.Total)
	}
}

func TestComputeTotals_DocumentDiscountAndBalance(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeFlat}
	doc := finance.DocumentInput{
		Lines:            []finance.LineInput{line("10", "100", "0")}, // 1000
		TaxRate:          dec("10"),
		DocumentDiscount: dec("50"),
		AmountPaid:       dec("500"),
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	// 1000 + 100 tax - 50 discount = 1050; paid 500 → 550 due
	if !totals.Total.Equal(dec("1050")) {
		t.Errorf("Total = %s, want 1050", totals.Total)
	}
	if !totals.BalanceDue.Equal(dec("550")) {
		t.Errorf("BalanceDue = %s, want 550", totals.BalanceDue)
	}
}

func TestComputeTotals_OverpaymentGoesNegative(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeFlat}
	doc := finance.DocumentInput{
		Lines:      []finance.LineInput{line("1", "100", "0")},
		AmountPaid: dec("150"),
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}
	if !totals.BalanceDue.Equal(dec("-50")) {
		t.Errorf("BalanceDue = %s, want -50 (never clamped)", totals.BalanceDue)
	}
}

// Recomputing totals from a document's stored lines must reproduce the stored
// figures exactly.
func TestComputeTotals_RecalculationIdempotent(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeGST, StateCode: "07"}
	l1 := line("3", "199.99", "5")
	l1.GSTRate = dec("12")
	l2 := line("1.5", "89.90", "0")
	l2.GSTRate = dec("18")
	doc := finance.DocumentInput{
		Lines:             []finance.LineInput{l1, l2},
		CustomerStateCode: "07",
		AmountPaid:        dec("100"),
	}

	first, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}
	second, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() second run error = %v", err)
	}

	if !first.Total.Equal(second.Total) || !first.BalanceDue.Equal(second.BalanceDue) {
		t.Errorf("recalculation drifted: %s/%s vs %s/%s",
			first.Total, first.BalanceDue, second.Total, second.BalanceDue)
	}
}

func TestTotals_RoundedPreservesGSTSplit(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeGST, StateCode: "29"}
	l := line("1", "0.33", "0") // tax 0.0594, halves round awkwardly
	l.GSTRate = dec("18")
	doc := finance.DocumentInput{
		Lines:             []finance.LineInput{l},
		CustomerStateCode: "29",
	}

	totals, err := finance.ComputeTotals(cfg, doc)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	r := totals.Rounded()
	if !r.CGST.Add(r.SGST).Equal(r.Tax) {
		t.Errorf("rounded CGST+SGST = %s, want %s", r.CGST.Add(r.SGST), r.Tax)
	}
}

func TestValidate(t *testing.T) {
	gstCfg := finance.TenantConfig{TaxMode: models.TaxModeGST, StateCode: "29"}
	flatCfg := finance.TenantConfig{TaxMode: models.TaxModeFlat}

	tests := []struct {
		name      string
		cfg       finance.TenantConfig
		doc       finance.DocumentInput
		wantField string
	}{
		{
			name:      "no lines",
			cfg:       flatCfg,
			doc:       finance.DocumentInput{},
			wantField: "items",
		},
		{
			name: "zero quantity",
			cfg:  flatCfg,
			doc: finance.DocumentInput{
				Lines: []finance.LineInput{line("0", "10", "0")},
			},
			wantField: "items[0].quantity",
		},
		{
			name: "negative quantity",
			cfg:  flatCfg,
			doc: finance.DocumentInput{
				Lines: []finance.LineInput{line("-1", "10", "0")},
			},
			wantField: "items[0].quantity",
		},
		{
			name: "negative price",
			cfg:  flatCfg,
			doc: finance.DocumentInput{
				Lines: []finance.LineInput{line("1", "-10", "0")},
			},
			wantField: "items[0].unit_price",
		},
		{
			name: "discount above 100",
			cfg:  flatCfg,
			doc: finance.DocumentInput{
				Lines: []finance.LineInput{line("1", "10", "101")},
			},
			wantField: "items[0].discount_percent",
		},
		{
			name: "gst rate out of range",
			cfg:  gstCfg,
			doc: finance.DocumentInput{
				Lines: []finance.LineInput{{
					Quantity:  dec("1"),
					UnitPrice: dec("10"),
					GSTRate:   dec("120"),
				}},
				CustomerStateCode: "29",
			},
			wantField: "items[0].gst_rate",
		},
		{
			name: "negative document discount",
			cfg:  flatCfg,
			doc: finance.DocumentInput{
				Lines:            []finance.LineInput{line("1", "10", "0")},
				DocumentDiscount: dec("-5"),
			},
			wantField: "discount",
		},
		{
			name: "flat tax rate out of range",
			cfg:  flatCfg,
			doc: finance.DocumentInput{
				Lines:   []finance.LineInput{line("1", "10", "0")},
				TaxRate: dec("200"),
			},
			wantField: "tax_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := finance.Validate(tt.cfg, tt.doc)
			if err == nil {
				t.Fatalf("Validate() = nil, want error on %s", tt.wantField)
			}
			verrs, ok := err.(finance.ValidationErrors)
			if !ok {
				t.Fatalf("Validate() returned %T, want ValidationErrors", err)
			}
			if _, present := verrs[tt.wantField]; !present {
				t.Errorf("Validate() missing field %q, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidate_AggregatesAllFields(t *testing.T) {
	cfg := finance.TenantConfig{TaxMode: models.TaxModeFlat}
	doc := finance.DocumentInput{
		Lines:            []finance.LineInput{line("0", "-1", "150")},
		DocumentDiscount: dec("-5"),
	}

	err := finance.Validate(cfg, doc)
	verrs, ok := err.(finance.ValidationErrors)
	if !ok {
		t.Fatalf("Validate() returned %T, want ValidationErrors", err)
	}
	if len(verrs) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(verrs), verrs)
	}
}
