package finance

import "github.com/shopspring/decimal"

// ProfitInput is one historical sold line with its externally supplied FIFO
// unit cost.
type ProfitInput struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	FIFOUnitCost    decimal.Decimal
}

// LineProfit is the margin view of a sold line.
type LineProfit struct {
	SalePrice     decimal.Decimal // unit price after discount
	ProfitPerUnit decimal.Decimal
	ProfitPercent decimal.Decimal
	Revenue       decimal.Decimal
	COGS          decimal.Decimal
	Profit        decimal.Decimal
}

// ProfitSummary aggregates LineProfit rows over a filtered item set.
type ProfitSummary struct {
	TotalRevenue  decimal.Decimal
	TotalCOGS     decimal.Decimal
	TotalProfit   decimal.Decimal
	ProfitPercent decimal.Decimal // weighted: totalProfit / totalRevenue * 100
}

// ProfitLine computes per-unit and extended margin for one sold line. A zero
// sale price (100% discount or free item) reports 0% rather than dividing by
// zero.
func ProfitLine(in ProfitInput) LineProfit {
	discountMult := decimal.NewFromInt(1).Sub(in.DiscountPercent.Div(hundred))
	salePrice := in.UnitPrice.Mul(discountMult)
	perUnit := salePrice.Sub(in.FIFOUnitCost)

	var percent decimal.Decimal
	if !salePrice.IsZero() {
		percent = perUnit.Div(salePrice).Mul(hundred)
	}

	return LineProfit{
		SalePrice:     salePrice,
		ProfitPerUnit: perUnit,
		ProfitPercent: percent,
		Revenue:       salePrice.Mul(in.Quantity),
		COGS:          in.FIFOUnitCost.Mul(in.Quantity),
		Profit:        perUnit.Mul(in.Quantity),
	}
}

// AggregateProfit sums revenue, COGS and profit across lines and derives the
// weighted profit percent, with the same zero-revenue sentinel as ProfitLine.
func AggregateProfit(lines []LineProfit) ProfitSummary {
	var s ProfitSummary
	for _, l := range lines {
		s.TotalRevenue = s.TotalRevenue.Add(l.Revenue)
		s.TotalCOGS = s.TotalCOGS.Add(l.COGS)
		s.TotalProfit = s.TotalProfit.Add(l.Profit)
	}
	if !s.TotalRevenue.IsZero() {
		s.ProfitPercent = s.TotalProfit.Div(s.TotalRevenue).Mul(hundred)
	}
	return s
}
