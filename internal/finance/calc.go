// Package finance holds the document calculation core: line totals, tax
// branches (per-line GST, flat document tax, Saudi VAT), document totals and
// balances, profit figures and unit conversion. Everything here is pure -
// config in, result out - so it can be exercised without a database or an
// HTTP context. Amounts use shopspring decimals end to end; rounding to two
// places happens only when a caller asks for it via Rounded.
package finance

import (
	"bizbook-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)

	// DefaultSaudiVATRate is the ZATCA statutory rate used when an
	// organization has no explicit rate configured.
	DefaultSaudiVATRate = decimal.NewFromFloat(0.15)
)

// TenantConfig carries the organization settings the calculator depends on.
// Handlers build it from the org row; nothing in this package reads session
// state.
type TenantConfig struct {
	TaxMode    models.TaxMode
	StateCode  string // seller GST state code
	VATRate    decimal.Decimal
	SellerName string
	VATNumber  string
	MultiUnit  bool
}

// LineInput is one document line as submitted by the client.
type LineInput struct {
	ProductID        uint
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	DiscountPercent  decimal.Decimal
	GSTRate          decimal.Decimal // used only in gst mode
	ConversionFactor decimal.Decimal // zero means "base unit", treated as 1
}

// DocumentInput is a full document to be priced.
type DocumentInput struct {
	Lines             []LineInput
	DocumentDiscount  decimal.Decimal // absolute amount
	TaxRate           decimal.Decimal // flat mode only, percent
	CustomerStateCode string          // gst mode only
	AmountPaid        decimal.Decimal
}

// LineResult is the priced form of one line.
type LineResult struct {
	LineTotal decimal.Decimal
	TaxAmount decimal.Decimal
}

// Totals is the priced form of a whole document. Exactly one tax branch is
// populated: CGST+SGST or IGST in gst mode, VAT in saudi mode, Tax alone in
// flat mode (Tax always carries the aggregate regardless of branch).
type Totals struct {
	Lines      []LineResult
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	IGST       decimal.Decimal
	VAT        decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	BalanceDue decimal.Decimal
}

// factorOrOne normalizes an absent conversion factor to 1.
func factorOrOne(f decimal.Decimal) decimal.Decimal {
	if f.IsZero() {
		return decimal.NewFromInt(1)
	}
	return f
}

// ComputeLineTotal prices a single line at full precision:
// qty * price * (1 - discount/100) * conversionFactor.
func ComputeLineTotal(line LineInput) decimal.Decimal {
	discountMult := decimal.NewFromInt(1).Sub(line.DiscountPercent.Div(hundred))
	return line.Quantity.
		Mul(line.UnitPrice).
		Mul(discountMult).
		Mul(factorOrOne(line.ConversionFactor))
}

// ComputeTotals validates the document and prices it under the given tenant
// config. The document-level discount is an absolute amount subtracted from
// the tax-inclusive total; balance due is total minus amount paid and may go
// negative on overpayment.
func ComputeTotals(cfg TenantConfig, doc DocumentInput) (Totals, error) {
	if err := Validate(cfg, doc); err != nil {
		return Totals{}, err
	}

	t := Totals{
		Lines:    make([]LineResult, 0, len(doc.Lines)),
		Discount: doc.DocumentDiscount,
	}

	for _, line := range doc.Lines {
		lt := ComputeLineTotal(line)
		lr := LineResult{LineTotal: lt}
		if cfg.TaxMode == models.TaxModeGST {
			lr.TaxAmount = lt.Mul(line.GSTRate).Div(hundred)
		}
		t.Subtotal = t.Subtotal.Add(lt)
		t.Lines = append(t.Lines, lr)
	}

	switch cfg.TaxMode {
	case models.TaxModeGST:
		for _, lr := range t.Lines {
			t.Tax = t.Tax.Add(lr.TaxAmount)
		}
		if doc.CustomerStateCode == cfg.StateCode {
			// Intra-state: half CGST, half SGST. SGST takes the remainder so
			// the two always sum back to the aggregate.
			t.CGST = t.Tax.Div(two)
			t.SGST = t.Tax.Sub(t.CGST)
		} else {
			t.IGST = t.Tax
		}
	case models.TaxModeSaudi:
		rate := cfg.VATRate
		if rate.IsZero() {
			rate = DefaultSaudiVATRate
		}
		t.VAT = t.Subtotal.Mul(rate)
		t.Tax = t.VAT
	default: // flat
		t.Tax = t.Subtotal.Mul(doc.TaxRate).Div(hundred)
	}

	t.Total = t.Subtotal.Add(t.Tax).Sub(doc.DocumentDiscount)
	t.BalanceDue = t.Total.Sub(doc.AmountPaid)
	return t, nil
}

// Rounded returns a copy with every amount rounded to two places, the form
// persisted and shown to clients.
func (t Totals) Rounded() Totals {
	r := t
	r.Lines = make([]LineResult, len(t.Lines))
	for i, lr := range t.Lines {
		r.Lines[i] = LineResult{
			LineTotal: lr.LineTotal.Round(2),
			TaxAmount: lr.TaxAmount.Round(2),
		}
	}
	r.Subtotal = t.Subtotal.Round(2)
	r.Tax = t.Tax.Round(2)
	r.CGST = t.CGST.Round(2)
	// SGST takes the rounding remainder so CGST+SGST still equals Tax.
	if !t.SGST.IsZero() || !t.CGST.IsZero() {
		r.SGST = r.Tax.Sub(r.CGST)
	}
	r.IGST = t.IGST.Round(2)
	r.VAT = t.VAT.Round(2)
	r.Discount = t.Discount.Round(2)
	r.Total = t.Total.Round(2)
	r.BalanceDue = t.BalanceDue.Round(2)
	return r
}
