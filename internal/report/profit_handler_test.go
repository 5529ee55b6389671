package report

import (
	"testing"

	"bizbook-backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func soldLine(productID uint, name, qty, price, disc, factor, fifoCost string) models.SalesInvoiceItem {
	return models.SalesInvoiceItem{
		ProductID:        productID,
		Product:          models.Product{Name: name},
		Quantity:         dec(qty),
		UnitPrice:        dec(price),
		DiscountPercent:  dec(disc),
		ConversionFactor: dec(factor),
		FIFOUnitCost:     dec(fifoCost),
	}
}

func TestBuildProfitReportGroupsByProduct(t *testing.T) {
	items := []models.SalesInvoiceItem{
		soldLine(1, "Widget", "2", "500", "0", "1", "300"),
		soldLine(1, "Widget", "3", "500", "0", "1", "350"),
		soldLine(2, "Gadget", "1", "200", "0", "1", "250"),
	}

	out := buildProfitReport(items)

	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(out.Rows))
	}

	widget := out.Rows[0]
	if widget.ProductID != 1 || widget.ProductName != "Widget" {
		t.Fatalf("first row = %+v, want product 1 Widget", widget)
	}
	if !widget.QuantitySold.Equal(dec("5")) {
		t.Errorf("widget qty = %s, want 5", widget.QuantitySold)
	}
	// 2*500 + 3*500 = 2500 revenue, 2*300 + 3*350 = 1650 COGS
	if !widget.Revenue.Equal(dec("2500")) {
		t.Errorf("widget revenue = %s, want 2500", widget.Revenue)
	}
	if !widget.COGS.Equal(dec("1650")) {
		t.Errorf("widget cogs = %s, want 1650", widget.COGS)
	}
	if !widget.Profit.Equal(dec("850")) {
		t.Errorf("widget profit = %s, want 850", widget.Profit)
	}
	if !widget.ProfitPercent.Equal(dec("34")) {
		t.Errorf("widget profit%% = %s, want 34", widget.ProfitPercent)
	}

	gadget := out.Rows[1]
	if !gadget.Profit.Equal(dec("-50")) {
		t.Errorf("gadget profit = %s, want -50 (sold below cost)", gadget.Profit)
	}
	if !gadget.ProfitPercent.Equal(dec("-25")) {
		t.Errorf("gadget profit%% = %s, want -25", gadget.ProfitPercent)
	}
}

func TestBuildProfitReportSummaryIsWeighted(t *testing.T) {
	items := []models.SalesInvoiceItem{
		soldLine(1, "Widget", "1", "1000", "0", "1", "500"),
		soldLine(2, "Gadget", "1", "100", "0", "1", "100"),
	}

	out := buildProfitReport(items)

	if !out.Summary.TotalRevenue.Equal(dec("1100")) {
		t.Errorf("revenue = %s, want 1100", out.Summary.TotalRevenue)
	}
	if !out.Summary.TotalProfit.Equal(dec("500")) {
		t.Errorf("profit = %s, want 500", out.Summary.TotalProfit)
	}
	// 500/1100 weighted, not the mean of 50% and 0%
	if !out.Summary.ProfitPercent.Equal(dec("45.45")) {
		t.Errorf("profit%% = %s, want 45.45", out.Summary.ProfitPercent)
	}
}

func TestBuildProfitReportFreeItemSentinel(t *testing.T) {
	items := []models.SalesInvoiceItem{
		soldLine(1, "Sample", "4", "100", "100", "1", "60"),
	}

	out := buildProfitReport(items)

	row := out.Rows[0]
	if !row.Revenue.IsZero() {
		t.Errorf("revenue = %s, want 0", row.Revenue)
	}
	if !row.Profit.Equal(dec("-240")) {
		t.Errorf("profit = %s, want -240", row.Profit)
	}
	if !row.ProfitPercent.IsZero() {
		t.Errorf("profit%% = %s, want 0 sentinel on zero revenue", row.ProfitPercent)
	}
}

func TestBuildProfitReportAlternateUnitLine(t *testing.T) {
	// Sold 2 boxes of 12 at 10 per base unit; FIFO cost stored per box.
	items := []models.SalesInvoiceItem{
		soldLine(1, "Screws", "2", "10", "0", "12", "84"),
	}

	out := buildProfitReport(items)

	row := out.Rows[0]
	if !row.Revenue.Equal(dec("240")) {
		t.Errorf("revenue = %s, want 240", row.Revenue)
	}
	if !row.COGS.Equal(dec("168")) {
		t.Errorf("cogs = %s, want 168", row.COGS)
	}
	if !row.Profit.Equal(dec("72")) {
		t.Errorf("profit = %s, want 72", row.Profit)
	}
}
