package invoice

import (
	"fmt"

	"bizbook-backend/internal/audit"
	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/inventory"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseInvoiceRequest struct {
	SupplierID uint            `json:"supplier_id"`
	IssueDate  string          `json:"issue_date"` // "2025-12-09"
	DueDate    string          `json:"due_date"`
	Items      []ItemRequest   `json:"items"`
	Discount   decimal.Decimal `json:"discount"` // absolute, off the tax-inclusive total
	TaxRate    decimal.Decimal `json:"tax_rate"` // flat mode only
	Draft      bool            `json:"draft"`
	Notes      string          `json:"notes"`
}

type PurchaseInvoiceResponse struct {
	ID           uint                  `json:"id"`
	Number       string                `json:"number"`
	SupplierID   uint                  `json:"supplier_id"`
	SupplierName string                `json:"supplier_name"`
	IssueDate    string                `json:"issue_date"`
	DueDate      string                `json:"due_date"`
	Status       models.DocumentStatus `json:"status"`
	Items        []ItemResponse        `json:"items"`
	Totals       TotalsResponse        `json:"totals"`
	Notes        string                `json:"notes"`
}

func purchaseInvoiceResponse(inv models.PurchaseInvoice) PurchaseInvoiceResponse {
	items := make([]ItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, ItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			ProductName:      it.Product.Name,
			Quantity:         it.Quantity,
			Unit:             it.Unit,
			ConversionFactor: it.ConversionFactor,
			UnitPrice:        it.UnitCost,
			DiscountPercent:  it.DiscountPercent,
			GSTRate:          it.GSTRate,
			LineTotal:        it.LineTotal,
			TaxAmount:        it.TaxAmount,
		})
	}
	return PurchaseInvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		SupplierID:   inv.SupplierID,
		SupplierName: inv.Supplier.Name,
		IssueDate:    inv.IssueDate.Format("2006-01-02"),
		DueDate:      inv.DueDate.Format("2006-01-02"),
		Status:       inv.Status,
		Items:        items,
		Totals: TotalsResponse{
			Subtotal:   inv.Subtotal,
			Tax:        inv.Tax,
			CGST:       inv.CGST,
			SGST:       inv.SGST,
			IGST:       inv.IGST,
			VAT:        inv.VAT,
			Discount:   inv.Discount,
			Total:      inv.Total,
			AmountPaid: inv.AmountPaid,
			BalanceDue: inv.BalanceDue,
		},
		Notes: inv.Notes,
	}
}

// applyPurchaseTotals writes the rounded calculator output onto the invoice row.
func applyPurchaseTotals(inv *models.PurchaseInvoice, t finance.Totals) {
	inv.Subtotal = t.Subtotal
	inv.Tax = t.Tax
	inv.CGST = t.CGST
	inv.SGST = t.SGST
	inv.IGST = t.IGST
	inv.VAT = t.VAT
	inv.Discount = t.Discount
	inv.Total = t.Total
	inv.BalanceDue = t.BalanceDue
}

// POST /api/purchase-invoices
func CreatePurchaseInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body PurchaseInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		issueDate, err := parseDate(body.IssueDate, "issue_date")
		if err != nil {
			return err
		}
		dueDate := issueDate
		if body.DueDate != "" {
			if dueDate, err = parseDate(body.DueDate, "due_date"); err != nil {
				return err
			}
		}

		var supplier models.Supplier
		if err := database.DB.Where("organization_id = ?", orgID).First(&supplier, body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier not found")
		}

		org, err := loadOrg(orgID)
		if err != nil {
			return err
		}
		cfg := tenantConfig(org)

		resolved, err := resolveItems(orgID, cfg, body.Items)
		if err != nil {
			return err
		}

		doc := finance.DocumentInput{
			Lines:             lineInputs(resolved),
			DocumentDiscount:  body.Discount,
			TaxRate:           body.TaxRate,
			CustomerStateCode: supplier.StateCode,
		}
		totals, err := finance.ComputeTotals(cfg, doc)
		if err != nil {
			return err // ValidationErrors → 422 in the app error handler
		}
		rounded := totals.Rounded()

		inv := models.PurchaseInvoice{
			OrganizationID: orgID,
			SupplierID:     supplier.ID,
			IssueDate:      issueDate,
			DueDate:        dueDate,
			Status:         models.StatusUnpaid,
			AmountPaid:     decimal.Zero,
			Notes:          body.Notes,
		}
		if body.Draft {
			inv.Status = models.StatusDraft
		}
		applyPurchaseTotals(&inv, rounded)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number, err := NextNumberTx(tx, orgID, models.DocTypePurchaseInvoice)
			if err != nil {
				return err
			}
			inv.Number = number

			for i, r := range resolved {
				inv.Items = append(inv.Items, models.PurchaseInvoiceItem{
					ProductID:        r.Product.ID,
					Quantity:         r.Req.Quantity,
					Unit:             itemUnit(r),
					ConversionFactor: r.Factor,
					UnitCost:         r.Req.Price(),
					DiscountPercent:  r.Req.DiscountPercent,
					GSTRate:          r.GSTRate,
					LineTotal:        rounded.Lines[i].LineTotal,
					TaxAmount:        rounded.Lines[i].TaxAmount,
				})
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}

			// Received goods become FIFO lots in base units, costed at the
			// discounted line amount.
			for i, r := range resolved {
				baseQty := r.Req.Quantity.Mul(r.Factor)
				baseCost := totals.Lines[i].LineTotal.Div(baseQty)
				invID := inv.ID
				if _, err := inventory.AddLotTx(tx, orgID, r.Product.ID, &invID, baseQty, baseCost, issueDate); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create purchase invoice")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "purchase_invoice",
			EntityID:       inv.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("Purchase invoice created: %s (%s)", inv.Number, inv.Total),
			After:          inv,
		})

		inv.Supplier = supplier
		preloadPurchaseProducts(&inv)
		return c.Status(fiber.StatusCreated).JSON(purchaseInvoiceResponse(inv))
	}
}

func itemUnit(r resolvedItem) string {
	if r.Req.Unit == "" {
		return r.Product.BaseUnit
	}
	return r.Req.Unit
}

func preloadPurchaseProducts(inv *models.PurchaseInvoice) {
	for i := range inv.Items {
		if inv.Items[i].Product.ID == 0 {
			database.DB.First(&inv.Items[i].Product, "id = ?", inv.Items[i].ProductID)
		}
	}
}

// GET /api/purchase-invoices?supplier_id=2&status=unpaid&from=2025-01-01&to=2025-01-31
func ListPurchaseInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Supplier").Where("organization_id = ?", orgID)

		if sidStr := c.Query("supplier_id"); sidStr != "" {
			var sid uint
			if _, err := fmt.Sscan(sidStr, &sid); err == nil && sid > 0 {
				dbq = dbq.Where("supplier_id = ?", sid)
			}
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if from := c.Query("from"); from != "" {
			if t, err := parseDate(from, "from"); err == nil {
				dbq = dbq.Where("issue_date >= ?", t)
			}
		}
		if to := c.Query("to"); to != "" {
			if t, err := parseDate(to, "to"); err == nil {
				dbq = dbq.Where("issue_date <= ?", t)
			}
		}

		var invoices []models.PurchaseInvoice
		if err := dbq.Order("issue_date desc, id desc").Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list purchase invoices")
		}

		res := make([]PurchaseInvoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			res = append(res, purchaseInvoiceResponse(inv))
		}
		return c.JSON(res)
	}
}

// GET /api/purchase-invoices/:id
func GetPurchaseInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var inv models.PurchaseInvoice
		if err := database.DB.
			Preload("Supplier").
			Preload("Items").
			Preload("Items.Product").
			Where("organization_id = ?", orgID).
			First(&inv, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase invoice not found")
		}
		return c.JSON(purchaseInvoiceResponse(inv))
	}
}

// PUT /api/purchase-invoices/:id - replaces line items and recomputes totals.
func UpdatePurchaseInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var inv models.PurchaseInvoice
		if err := database.DB.
			Preload("Items").
			Where("organization_id = ?", orgID).
			First(&inv, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase invoice not found")
		}

		var body PurchaseInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		issueDate, err := parseDate(body.IssueDate, "issue_date")
		if err != nil {
			return err
		}
		dueDate := issueDate
		if body.DueDate != "" {
			if dueDate, err = parseDate(body.DueDate, "due_date"); err != nil {
				return err
			}
		}

		var supplier models.Supplier
		if err := database.DB.Where("organization_id = ?", orgID).First(&supplier, body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier not found")
		}

		org, err := loadOrg(orgID)
		if err != nil {
			return err
		}
		cfg := tenantConfig(org)

		resolved, err := resolveItems(orgID, cfg, body.Items)
		if err != nil {
			return err
		}

		doc := finance.DocumentInput{
			Lines:             lineInputs(resolved),
			DocumentDiscount:  body.Discount,
			TaxRate:           body.TaxRate,
			CustomerStateCode: supplier.StateCode,
			AmountPaid:        inv.AmountPaid,
		}
		totals, err := finance.ComputeTotals(cfg, doc)
		if err != nil {
			return err
		}
		rounded := totals.Rounded()

		before := inv

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// Re-stocking: the old lots must still be untouched.
			if err := inventory.RemoveLotsForInvoiceTx(tx, inv.ID); err != nil {
				return err
			}
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.PurchaseInvoiceItem{}).Error; err != nil {
				return err
			}

			inv.SupplierID = supplier.ID
			inv.IssueDate = issueDate
			inv.DueDate = dueDate
			inv.Notes = body.Notes
			applyPurchaseTotals(&inv, rounded)
			inv.Status = statusFor(inv.Status, body.Draft, inv.Total, inv.AmountPaid)

			inv.Items = nil
			for i, r := range resolved {
				inv.Items = append(inv.Items, models.PurchaseInvoiceItem{
					InvoiceID:        inv.ID,
					ProductID:        r.Product.ID,
					Quantity:         r.Req.Quantity,
					Unit:             itemUnit(r),
					ConversionFactor: r.Factor,
					UnitCost:         r.Req.Price(),
					DiscountPercent:  r.Req.DiscountPercent,
					GSTRate:          r.GSTRate,
					LineTotal:        rounded.Lines[i].LineTotal,
					TaxAmount:        rounded.Lines[i].TaxAmount,
				})
			}
			if err := tx.Save(&inv).Error; err != nil {
				return err
			}

			for i, r := range resolved {
				baseQty := r.Req.Quantity.Mul(r.Factor)
				baseCost := totals.Lines[i].LineTotal.Div(baseQty)
				invID := inv.ID
				if _, err := inventory.AddLotTx(tx, orgID, r.Product.ID, &invID, baseQty, baseCost, issueDate); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "purchase_invoice",
			EntityID:       inv.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("Purchase invoice updated: %s", inv.Number),
			Before:         before,
			After:          inv,
		})

		inv.Supplier = supplier
		preloadPurchaseProducts(&inv)
		return c.JSON(purchaseInvoiceResponse(inv))
	}
}

// DELETE /api/purchase-invoices/:id
func DeletePurchaseInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var inv models.PurchaseInvoice
		if err := database.DB.
			Preload("Items").
			Where("organization_id = ?", orgID).
			First(&inv, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase invoice not found")
		}

		var paymentCount int64
		database.DB.Model(&models.Payment{}).
			Where("document_type = ? AND document_id = ?", models.DocTypePurchaseInvoice, inv.ID).
			Count(&paymentCount)
		if paymentCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Invoice has payments and cannot be deleted")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := inventory.RemoveLotsForInvoiceTx(tx, inv.ID); err != nil {
				return err
			}
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.PurchaseInvoiceItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&inv).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "purchase_invoice",
			EntityID:       inv.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("Purchase invoice deleted: %s", inv.Number),
			Before:         inv,
		})

		return c.JSON(fiber.Map{"message": "Purchase invoice deleted"})
	}
}
