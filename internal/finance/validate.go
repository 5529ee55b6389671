package finance

import (
	"fmt"
	"sort"
	"strings"

	"bizbook-backend/internal/models"

	"github.com/shopspring/decimal"
)

// ValidationErrors aggregates every invalid field of a request, keyed by
// field path ("items[2].quantity"). Invalid input is rejected up front -
// never coerced to zero.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var minQuantity = decimal.RequireFromString("0.01")

// Validate checks a document before any pricing runs. Returns nil or a
// ValidationErrors covering every offending field.
func Validate(cfg TenantConfig, doc DocumentInput) error {
	errs := ValidationErrors{}

	if len(doc.Lines) == 0 {
		errs["items"] = "at least one line item is required"
	}

	for i, line := range doc.Lines {
		key := func(f string) string { return fmt.Sprintf("items[%d].%s", i, f) }

		if line.Quantity.LessThan(minQuantity) {
			errs[key("quantity")] = "must be at least 0.01"
		}
		if line.UnitPrice.IsNegative() {
			errs[key("unit_price")] = "must not be negative"
		}
		if line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred) {
			errs[key("discount_percent")] = "must be between 0 and 100"
		}
		if cfg.TaxMode == models.TaxModeGST {
			if line.GSTRate.IsNegative() || line.GSTRate.GreaterThan(hundred) {
				errs[key("gst_rate")] = "must be between 0 and 100"
			}
		}
		if line.ConversionFactor.IsNegative() {
			errs[key("conversion_factor")] = "must not be negative"
		}
	}

	if doc.DocumentDiscount.IsNegative() {
		errs["discount"] = "must not be negative"
	}
	if cfg.TaxMode == models.TaxModeFlat {
		if doc.TaxRate.IsNegative() || doc.TaxRate.GreaterThan(hundred) {
			errs["tax_rate"] = "must be between 0 and 100"
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
