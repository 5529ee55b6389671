package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnitOption is an alternate unit with its direct conversion factor to the
// base unit (base units per one alternate unit).
type UnitOption struct {
	Name   string
	Factor decimal.Decimal
}

// ResolveUnit returns the conversion factor for the requested unit. The base
// unit always resolves to 1; alternates must match one of the configured
// options - there are no transitive chains. Unknown units are an error, not
// a silent factor of 1.
func ResolveUnit(baseUnit string, options []UnitOption, requested string) (decimal.Decimal, error) {
	if requested == "" || requested == baseUnit {
		return decimal.NewFromInt(1), nil
	}
	for _, opt := range options {
		if opt.Name == requested {
			if !opt.Factor.IsPositive() {
				return decimal.Decimal{}, fmt.Errorf("unit %q has non-positive conversion factor", requested)
			}
			return opt.Factor, nil
		}
	}
	return decimal.Decimal{}, fmt.Errorf("unknown unit %q for base unit %q", requested, baseUnit)
}

// AltUnitCost converts a base-unit cost to the requested unit's cost.
func AltUnitCost(baseCost, factor decimal.Decimal) decimal.Decimal {
	return baseCost.Mul(factor)
}
