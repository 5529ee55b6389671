package invoice

import (
	"errors"
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

type SalesInvoiceRequest struct {
	CustomerID uint            `json:"customer_id"`
	IssueDate  string          `json:"issue_date"`
	DueDate    string          `json:"due_date"`
	Items      []ItemRequest   `json:"items"`
	Discount   decimal.Decimal `json:"discount"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Draft      bool            `json:"draft"`
	Notes      string          `json:"notes"`
}

type SalesInvoiceResponse struct {
	ID           uint                  `json:"id"`
	Number       string                `json:"number"`
	CustomerID   uint                  `json:"customer_id"`
	CustomerName string                `json:"customer_name"`
	IssueDate    string                `json:"issue_date"`
	DueDate      string                `json:"due_date"`
	Status       models.DocumentStatus `json:"status"`
	Items        []ItemResponse        `json:"items"`
	Totals       TotalsResponse        `json:"totals"`
	QRPayload    string                `json:"qr_payload,omitempty"`
	Notes        string                `json:"notes"`
}

func salesInvoiceResponse(inv models.SalesInvoice) SalesInvoiceResponse {
	items := make([]ItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, ItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			ProductName:      it.Product.Name,
			Quantity:         it.Quantity,
			Unit:             it.Unit,
			ConversionFactor: it.ConversionFactor,
			UnitPrice:        it.UnitPrice,
			DiscountPercent:  it.DiscountPercent,
			GSTRate:          it.GSTRate,
			LineTotal:        it.LineTotal,
			TaxAmount:        it.TaxAmount,
		})
	}
	return SalesInvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		CustomerName: inv.Customer.Name,
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
		QRPayload: inv.QRPayload,
		Notes:     inv.Notes,
	}
}

func applySalesTotals(inv *models.SalesInvoice, t finance.Totals) {
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

func stockErrorStatus(err error) error {
	var insufficient inventory.ErrInsufficientStock
	if errors.As(err, &insufficient) {
		return fiber.NewError(fiber.StatusConflict, insufficient.Error())
	}
	if fe, ok := err.(*fiber.Error); ok {
		return fe
	}
	return fiber.NewError(fiber.StatusInternalServerError, "Could not save document")
}

// POST /api/sales-invoices
func CreateSalesInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body SalesInvoiceRequest
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

		var customer models.Customer
		if err := database.DB.Where("organization_id = ?", orgID).First(&customer, body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Customer not found")
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
			CustomerStateCode: customer.StateCode,
		}
		totals, err := finance.ComputeTotals(cfg, doc)
		if err != nil {
			return err
		}
		rounded := totals.Rounded()

		inv := models.SalesInvoice{
			OrganizationID: orgID,
			CustomerID:     customer.ID,
			IssueDate:      issueDate,
			DueDate:        dueDate,
			Status:         models.StatusUnpaid,
			AmountPaid:     decimal.Zero,
			Notes:          body.Notes,
		}
		if body.Draft {
			inv.Status = models.StatusDraft
		}
		applySalesTotals(&inv, rounded)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number, err := NextNumberTx(tx, orgID, models.DocTypeSalesInvoice)
			if err != nil {
				return err
			}
			inv.Number = number

			for i, r := range resolved {
				inv.Items = append(inv.Items, models.SalesInvoiceItem{
					ProductID:        r.Product.ID,
					Quantity:         r.Req.Quantity,
					Unit:             itemUnit(r),
					ConversionFactor: r.Factor,
					UnitPrice:        r.Req.Price(),
					DiscountPercent:  r.Req.DiscountPercent,
					GSTRate:          r.GSTRate,
					LineTotal:        rounded.Lines[i].LineTotal,
					TaxAmount:        rounded.Lines[i].TaxAmount,
				})
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}

			// Draw down FIFO stock and pin each line's blended unit cost.
			for i := range inv.Items {
				item := &inv.Items[i]
				baseQty := item.Quantity.Mul(item.ConversionFactor)
				baseUnitCost, err := inventory.ConsumeFIFOTx(tx, orgID, item.ProductID, item.ID, baseQty)
				if err != nil {
					return err
				}
				item.FIFOUnitCost = baseUnitCost.Mul(item.ConversionFactor).Round(4)
				if err := tx.Save(item).Error; err != nil {
					return err
				}
			}

			if org.TaxMode == models.TaxModeSaudi {
				inv.QRPayload = finance.ZATCAQRPayload(org.Name, org.VATNumber, inv.CreatedAt, rounded.Subtotal, rounded.VAT)
				if err := tx.Model(&inv).Update("qr_payload", inv.QRPayload).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return stockErrorStatus(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "sales_invoice",
			EntityID:       inv.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("Sales invoice created: %s (%s)", inv.Number, inv.Total),
			After:          inv,
		})

		inv.Customer = customer
		preloadSalesProducts(&inv)
		return c.Status(fiber.StatusCreated).JSON(salesInvoiceResponse(inv))
	}
}

func preloadSalesProducts(inv *models.SalesInvoice) {
	for i := range inv.Items {
		if inv.Items[i].Product.ID == 0 {
			database.DB.First(&inv.Items[i].Product, "id = ?", inv.Items[i].ProductID)
		}
	}
}

// GET /api/sales-invoices?customer_id=2&status=paid&from=...&to=...
func ListSalesInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Customer").Where("organization_id = ?", orgID)

		if cidStr := c.Query("customer_id"); cidStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cidStr, &cid); err == nil && cid > 0 {
				dbq = dbq.Where("customer_id = ?", cid)
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

		var invoices []models.SalesInvoice
		if err := dbq.Order("issue_date desc, id desc").Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sales invoices")
		}

		res := make([]SalesInvoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			res = append(res, salesInvoiceResponse(inv))
		}
		return c.JSON(res)
	}
}

// GET /api/sales-invoices/:id
func GetSalesInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var inv models.SalesInvoice
		if err := database.DB.
			Preload("Customer").
			Preload("Items").
			Preload("Items.Product").
			Where("organization_id = ?", orgID).
			First(&inv, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sales invoice not found")
		}
		return c.JSON(salesInvoiceResponse(inv))
	}
}

// PUT /api/sales-invoices/:id - replaces line items, returns consumed stock
// to its lots and re-draws FIFO for the new lines.
func UpdateSalesInvoiceHandler() fiber.Handler {
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

		var inv models.SalesInvoice
		if err := database.DB.
			Preload("Items").
			Where("organization_id = ?", orgID).
			First(&inv, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sales invoice not found")
		}

		var body SalesInvoiceRequest
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

		var customer models.Customer
		if err := database.DB.Where("organization_id = ?", orgID).First(&customer, body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Customer not found")
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
			CustomerStateCode: customer.StateCode,
			AmountPaid:        inv.AmountPaid,
		}
		totals, err := finance.ComputeTotals(cfg, doc)
		if err != nil {
			return err
		}
		rounded := totals.Rounded()

		before := inv

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			oldItemIDs := make([]uint, 0, len(inv.Items))
			for _, it := range inv.Items {
				oldItemIDs = append(oldItemIDs, it.ID)
			}
			if err := inventory.ReleaseAllocationsTx(tx, oldItemIDs); err != nil {
				return err
			}
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.SalesInvoiceItem{}).Error; err != nil {
				return err
			}

			inv.CustomerID = customer.ID
			inv.IssueDate = issueDate
			inv.DueDate = dueDate
			inv.Notes = body.Notes
			applySalesTotals(&inv, rounded)
			inv.Status = statusFor(inv.Status, body.Draft, inv.Total, inv.AmountPaid)

			inv.Items = nil
			for i, r := range resolved {
				inv.Items = append(inv.Items, models.SalesInvoiceItem{
					InvoiceID:        inv.ID,
					ProductID:        r.Product.ID,
					Quantity:         r.Req.Quantity,
					Unit:             itemUnit(r),
					ConversionFactor: r.Factor,
					UnitPrice:        r.Req.Price(),
					DiscountPercent:  r.Req.DiscountPercent,
					GSTRate:          r.GSTRate,
					LineTotal:        rounded.Lines[i].LineTotal,
					TaxAmount:        rounded.Lines[i].TaxAmount,
				})
			}

			if org.TaxMode == models.TaxModeSaudi {
				// Payload stays pinned to the original creation timestamp so
				// a cosmetic edit does not change the QR.
				inv.QRPayload = finance.ZATCAQRPayload(org.Name, org.VATNumber, inv.CreatedAt, rounded.Subtotal, rounded.VAT)
			}

			if err := tx.Save(&inv).Error; err != nil {
				return err
			}

			for i := range inv.Items {
				item := &inv.Items[i]
				baseQty := item.Quantity.Mul(item.ConversionFactor)
				baseUnitCost, err := inventory.ConsumeFIFOTx(tx, orgID, item.ProductID, item.ID, baseQty)
				if err != nil {
					return err
				}
				item.FIFOUnitCost = baseUnitCost.Mul(item.ConversionFactor).Round(4)
				if err := tx.Save(item).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return stockErrorStatus(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "sales_invoice",
			EntityID:       inv.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("Sales invoice updated: %s", inv.Number),
			Before:         before,
			After:          inv,
		})

		inv.Customer = customer
		preloadSalesProducts(&inv)
		return c.JSON(salesInvoiceResponse(inv))
	}
}

// DELETE /api/sales-invoices/:id
func DeleteSalesInvoiceHandler() fiber.Handler {
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

		var inv models.SalesInvoice
		if err := database.DB.
			Preload("Items").
			Where("organization_id = ?", orgID).
			First(&inv, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sales invoice not found")
		}

		var paymentCount int64
		database.DB.Model(&models.Payment{}).
			Where("document_type = ? AND document_id = ?", models.DocTypeSalesInvoice, inv.ID).
			Count(&paymentCount)
		if paymentCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Invoice has payments and cannot be deleted")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			itemIDs := make([]uint, 0, len(inv.Items))
			for _, it := range inv.Items {
				itemIDs = append(itemIDs, it.ID)
			}
			if err := inventory.ReleaseAllocationsTx(tx, itemIDs); err != nil {
				return err
			}
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.SalesInvoiceItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&inv).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete sales invoice")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "sales_invoice",
			EntityID:       inv.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("Sales invoice deleted: %s", inv.Number),
			Before:         inv,
		})

		return c.JSON(fiber.Map{"message": "Sales invoice deleted"})
	}
}
