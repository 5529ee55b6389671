package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestBalanceWorkbook_Layout(t *testing.T) {
	res := BalanceSummaryResponse{
		Receivables:     dec("250.50"),
		Payables:        dec("80.00"),
		SupplierCredits: dec("20.00"),
		StockValue:      dec("1300.25"),
		CustomerBalances: []PartnerBalance{
			{PartnerID: 1, PartnerName: "Asha Traders", Balance: dec("150.50")},
			{PartnerID: 2, PartnerName: "Binny Retail", Balance: dec("100.00")},
		},
		SupplierBalances: []PartnerBalance{
			{PartnerID: 3, PartnerName: "Chatur Supplies", Balance: dec("80.00")},
		},
	}

	f := balanceWorkbook(res)
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	read, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading workbook back: %v", err)
	}
	defer read.Close()
	sheet := read.GetSheetName(0)

	cells := map[string]string{
		"A1":  "Receivables",
		"B1":  "250.5",
		"A2":  "Payables",
		"B2":  "80",
		"A3":  "Supplier Credits",
		"B3":  "20",
		"A4":  "Stock Value",
		"B4":  "1300.25",
		"A6":  "Customer",
		"A7":  "Asha Traders",
		"B7":  "150.5",
		"A8":  "Binny Retail",
		"A10": "Supplier",
		"A11": "Chatur Supplies",
		"B11": "80",
	}
	for cell, want := range cells {
		got, err := read.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("reading %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestBalanceWorkbook_EmptySections(t *testing.T) {
	f := balanceWorkbook(BalanceSummaryResponse{})
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	read, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading workbook back: %v", err)
	}
	defer read.Close()
	sheet := read.GetSheetName(0)

	// Section headers still land on fixed rows when there are no partners.
	if got, _ := read.GetCellValue(sheet, "A6"); got != "Customer" {
		t.Errorf("A6 = %q, want %q", got, "Customer")
	}
	if got, _ := read.GetCellValue(sheet, "A8"); got != "Supplier" {
		t.Errorf("A8 = %q, want %q", got, "Supplier")
	}
}
