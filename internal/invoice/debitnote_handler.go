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

// Debit notes record goods returned to a supplier. An issued note draws the
// returned quantity out of stock and stands as a credit against the supplier
// balance; it never takes payments. Only drafts can be edited or deleted -
// once issued the stock is gone and the note is final.

type DebitNoteRequest struct {
	SupplierID        uint            `json:"supplier_id"`
	PurchaseInvoiceID *uint           `json:"purchase_invoice_id"`
	IssueDate         string          `json:"issue_date"`
	Items             []ItemRequest   `json:"items"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Draft             bool            `json:"draft"`
	Reason            string          `json:"reason"`
}

type DebitNoteResponse struct {
	ID                uint                  `json:"id"`
	Number            string                `json:"number"`
	SupplierID        uint                  `json:"supplier_id"`
	SupplierName      string                `json:"supplier_name"`
	PurchaseInvoiceID *uint                 `json:"purchase_invoice_id,omitempty"`
	IssueDate         string                `json:"issue_date"`
	Status            models.DocumentStatus `json:"status"`
	Items             []ItemResponse        `json:"items"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	Tax               decimal.Decimal       `json:"tax"`
	CGST              decimal.Decimal       `json:"cgst"`
	SGST              decimal.Decimal       `json:"sgst"`
	IGST              decimal.Decimal       `json:"igst"`
	VAT               decimal.Decimal       `json:"vat"`
	Total             decimal.Decimal       `json:"total"`
	Reason            string                `json:"reason"`
}

func debitNoteResponse(note models.DebitNote) DebitNoteResponse {
	items := make([]ItemResponse, 0, len(note.Items))
	for _, it := range note.Items {
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
	return DebitNoteResponse{
		ID:                note.ID,
		Number:            note.Number,
		SupplierID:        note.SupplierID,
		SupplierName:      note.Supplier.Name,
		PurchaseInvoiceID: note.PurchaseInvoiceID,
		IssueDate:         note.IssueDate.Format("2006-01-02"),
		Status:            note.Status,
		Items:             items,
		Subtotal:          note.Subtotal,
		Tax:               note.Tax,
		CGST:              note.CGST,
		SGST:              note.SGST,
		IGST:              note.IGST,
		VAT:               note.VAT,
		Total:             note.Total,
		Reason:            note.Reason,
	}
}

func applyDebitNoteTotals(note *models.DebitNote, t finance.Totals) {
	note.Subtotal = t.Subtotal
	note.Tax = t.Tax
	note.CGST = t.CGST
	note.SGST = t.SGST
	note.IGST = t.IGST
	note.VAT = t.VAT
	note.Total = t.Total
}

func debitNoteItems(resolved []resolvedItem, rounded finance.Totals) []models.DebitNoteItem {
	items := make([]models.DebitNoteItem, 0, len(resolved))
	for i, r := range resolved {
		items = append(items, models.DebitNoteItem{
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
	return items
}

// drawDownReturnedStock removes each returned line's base quantity from stock.
func drawDownReturnedStock(tx *gorm.DB, orgID uint, items []models.DebitNoteItem) error {
	for _, item := range items {
		baseQty := item.Quantity.Mul(item.ConversionFactor)
		if _, err := inventory.DrawDownTx(tx, orgID, item.ProductID, baseQty); err != nil {
			return err
		}
	}
	return nil
}

func checkDebitNotesEnabled(org models.Organization) error {
	if !org.DebitNotesEnabled {
		return fiber.NewError(fiber.StatusForbidden, "Debit notes are not enabled for this organization")
	}
	return nil
}

// POST /api/debit-notes
func CreateDebitNoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body DebitNoteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		issueDate, err := parseDate(body.IssueDate, "issue_date")
		if err != nil {
			return err
		}

		var supplier models.Supplier
		if err := database.DB.Where("organization_id = ?", orgID).First(&supplier, body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier not found")
		}

		if body.PurchaseInvoiceID != nil {
			var count int64
			database.DB.Model(&models.PurchaseInvoice{}).
				Where("id = ? AND organization_id = ? AND supplier_id = ?", *body.PurchaseInvoiceID, orgID, supplier.ID).
				Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Purchase invoice not found for this supplier")
			}
		}

		org, err := loadOrg(orgID)
		if err != nil {
			return err
		}
		if err := checkDebitNotesEnabled(org); err != nil {
			return err
		}
		cfg := tenantConfig(org)

		resolved, err := resolveItems(orgID, cfg, body.Items)
		if err != nil {
			return err
		}

		doc := finance.DocumentInput{
			Lines:             lineInputs(resolved),
			TaxRate:           body.TaxRate,
			CustomerStateCode: supplier.StateCode,
		}
		totals, err := finance.ComputeTotals(cfg, doc)
		if err != nil {
			return err
		}
		rounded := totals.Rounded()

		note := models.DebitNote{
			OrganizationID:    orgID,
			SupplierID:        supplier.ID,
			PurchaseInvoiceID: body.PurchaseInvoiceID,
			IssueDate:         issueDate,
			Status:            models.StatusIssued,
			Reason:            body.Reason,
			Items:             debitNoteItems(resolved, rounded),
		}
		if body.Draft {
			note.Status = models.StatusDraft
		}
		applyDebitNoteTotals(&note, rounded)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number, err := NextNumberTx(tx, orgID, models.DocTypeDebitNote)
			if err != nil {
				return err
			}
			note.Number = number

			if err := tx.Create(&note).Error; err != nil {
				return err
			}
			if note.Status == models.StatusIssued {
				return drawDownReturnedStock(tx, orgID, note.Items)
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
			EntityType:     "debit_note",
			EntityID:       note.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("Debit note created: %s (%s)", note.Number, note.Total),
			After:          note,
		})

		note.Supplier = supplier
		preloadDebitNoteProducts(&note)
		return c.Status(fiber.StatusCreated).JSON(debitNoteResponse(note))
	}
}

func preloadDebitNoteProducts(note *models.DebitNote) {
	for i := range note.Items {
		if note.Items[i].Product.ID == 0 {
			database.DB.First(&note.Items[i].Product, "id = ?", note.Items[i].ProductID)
		}
	}
}

// GET /api/debit-notes?supplier_id=3&status=issued&from=...&to=...
func ListDebitNotesHandler() fiber.Handler {
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

		var notes []models.DebitNote
		if err := dbq.Order("issue_date desc, id desc").Find(&notes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list debit notes")
		}

		res := make([]DebitNoteResponse, 0, len(notes))
		for _, note := range notes {
			res = append(res, debitNoteResponse(note))
		}
		return c.JSON(res)
	}
}

// GET /api/debit-notes/:id
func GetDebitNoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var note models.DebitNote
		if err := database.DB.
			Preload("Supplier").
			Preload("Items").
			Preload("Items.Product").
			Where("organization_id = ?", orgID).
			First(&note, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Debit note not found")
		}
		return c.JSON(debitNoteResponse(note))
	}
}

// PUT /api/debit-notes/:id - drafts only. Setting draft=false issues the note
// and draws the returned stock down.
func UpdateDebitNoteHandler() fiber.Handler {
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

		var note models.DebitNote
		if err := database.DB.
			Preload("Items").
			Where("organization_id = ?", orgID).
			First(&note, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Debit note not found")
		}
		if note.Status != models.StatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Issued debit notes cannot be edited")
		}

		var body DebitNoteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		issueDate, err := parseDate(body.IssueDate, "issue_date")
		if err != nil {
			return err
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
			TaxRate:           body.TaxRate,
			CustomerStateCode: supplier.StateCode,
		}
		totals, err := finance.ComputeTotals(cfg, doc)
		if err != nil {
			return err
		}
		rounded := totals.Rounded()

		before := note

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("note_id = ?", note.ID).Delete(&models.DebitNoteItem{}).Error; err != nil {
				return err
			}

			note.SupplierID = supplier.ID
			note.PurchaseInvoiceID = body.PurchaseInvoiceID
			note.IssueDate = issueDate
			note.Reason = body.Reason
			applyDebitNoteTotals(&note, rounded)

			note.Items = debitNoteItems(resolved, rounded)
			for i := range note.Items {
				note.Items[i].NoteID = note.ID
			}

			if !body.Draft {
				note.Status = models.StatusIssued
			}

			if err := tx.Save(&note).Error; err != nil {
				return err
			}
			if note.Status == models.StatusIssued {
				return drawDownReturnedStock(tx, orgID, note.Items)
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
			EntityType:     "debit_note",
			EntityID:       note.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("Debit note updated: %s", note.Number),
			Before:         before,
			After:          note,
		})

		note.Supplier = supplier
		preloadDebitNoteProducts(&note)
		return c.JSON(debitNoteResponse(note))
	}
}

// DELETE /api/debit-notes/:id - drafts only.
func DeleteDebitNoteHandler() fiber.Handler {
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

		var note models.DebitNote
		if err := database.DB.
			Where("organization_id = ?", orgID).
			First(&note, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Debit note not found")
		}
		if note.Status != models.StatusDraft {
			return fiber.NewError(fiber.StatusConflict, "Issued debit notes cannot be deleted")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("note_id = ?", note.ID).Delete(&models.DebitNoteItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&note).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete debit note")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "debit_note",
			EntityID:       note.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("Debit note deleted: %s", note.Number),
			Before:         note,
		})

		return c.JSON(fiber.Map{"message": "Debit note deleted"})
	}
}
