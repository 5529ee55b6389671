package invoice

import (
	"fmt"
	"time"

	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ItemRequest is one submitted document line. GSTRate is a pointer so an
// omitted rate falls back to the product's configured rate instead of zero.
type ItemRequest struct {
	ProductID       uint             `json:"product_id"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	Unit            string           `json:"unit"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	GSTRate         *decimal.Decimal `json:"gst_rate"`

	// Purchase and debit note flows submit "unit_cost"; sales flows submit
	// "unit_price". Whichever is present wins.
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

// Price returns the submitted per-unit amount regardless of which field the
// client used.
func (r ItemRequest) Price() decimal.Decimal {
	if r.UnitCost != nil {
		return *r.UnitCost
	}
	return r.UnitPrice
}

type ItemResponse struct {
	ID               uint            `json:"id"`
	ProductID        uint            `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	DiscountPercent  decimal.Decimal `json:"discount_percent"`
	GSTRate          decimal.Decimal `json:"gst_rate"`
	LineTotal        decimal.Decimal `json:"line_total"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
}

type TotalsResponse struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	CGST       decimal.Decimal `json:"cgst"`
	SGST       decimal.Decimal `json:"sgst"`
	IGST       decimal.Decimal `json:"igst"`
	VAT        decimal.Decimal `json:"vat"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Could not resolve user")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "User not found")
	}

	return userID, user.Name, nil
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	idStr := c.Params("id")
	var id uint
	if _, err := fmt.Sscan(idStr, &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}
	return id, nil
}

func parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" is required (YYYY-MM-DD)")
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" must be YYYY-MM-DD")
	}
	return t, nil
}

func loadOrg(orgID uint) (models.Organization, error) {
	var org models.Organization
	if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
		return models.Organization{}, fiber.NewError(fiber.StatusInternalServerError, "Organization not found")
	}
	return org, nil
}

// tenantConfig translates org settings into the calculator's explicit config.
func tenantConfig(org models.Organization) finance.TenantConfig {
	return finance.TenantConfig{
		TaxMode:    org.TaxMode,
		StateCode:  org.StateCode,
		VATRate:    org.VATRate,
		SellerName: org.Name,
		VATNumber:  org.VATNumber,
		MultiUnit:  org.MultiUnitEnabled,
	}
}

// resolvedItem pairs a request line with its product, resolved unit factor
// and effective GST rate.
type resolvedItem struct {
	Req     ItemRequest
	Product models.Product
	Factor  decimal.Decimal
	GSTRate decimal.Decimal
}

// resolveItems loads each line's product, resolves the requested unit against
// the product's unit options and fills in the product GST rate where the line
// omitted one. Multi-unit entry is rejected when the flag is off.
func resolveItems(orgID uint, cfg finance.TenantConfig, items []ItemRequest) ([]resolvedItem, error) {
	if len(items) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "At least one line item is required")
	}

	resolved := make([]resolvedItem, 0, len(items))
	for i, item := range items {
		var product models.Product
		if err := database.DB.Preload("Units").Where("organization_id = ?", orgID).First(&product, item.ProductID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("items[%d]: product not found", i))
		}

		if !cfg.MultiUnit && item.Unit != "" && item.Unit != product.BaseUnit {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("items[%d]: alternate units are disabled for this organization", i))
		}

		options := make([]finance.UnitOption, 0, len(product.Units))
		for _, u := range product.Units {
			options = append(options, finance.UnitOption{Name: u.Name, Factor: u.Factor})
		}
		factor, err := finance.ResolveUnit(product.BaseUnit, options, item.Unit)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("items[%d]: %v", i, err))
		}

		rate := product.GSTRate
		if item.GSTRate != nil {
			rate = *item.GSTRate
		}

		resolved = append(resolved, resolvedItem{
			Req:     item,
			Product: product,
			Factor:  factor,
			GSTRate: rate,
		})
	}
	return resolved, nil
}

func lineInputs(resolved []resolvedItem) []finance.LineInput {
	lines := make([]finance.LineInput, 0, len(resolved))
	for _, r := range resolved {
		lines = append(lines, finance.LineInput{
			ProductID:        r.Product.ID,
			Quantity:         r.Req.Quantity,
			UnitPrice:        r.Req.Price(),
			DiscountPercent:  r.Req.DiscountPercent,
			GSTRate:          r.GSTRate,
			ConversionFactor: r.Factor,
		})
	}
	return lines
}

// statusFor derives the payment status after an edit. A draft stays draft
// only while the request keeps the flag set; clearing it finalizes the
// document into the payment lifecycle. Finalized documents never revert to
// draft, and overpaid is only reachable when the total drops below what was
// already collected.
func statusFor(current models.DocumentStatus, keepDraft bool, total, paid decimal.Decimal) models.DocumentStatus {
	if current == models.StatusDraft && keepDraft {
		return models.StatusDraft
	}
	switch {
	case paid.IsZero():
		return models.StatusUnpaid
	case paid.LessThan(total):
		return models.StatusPartial
	case paid.Equal(total):
		return models.StatusPaid
	default:
		return models.StatusOverpaid
	}
}
