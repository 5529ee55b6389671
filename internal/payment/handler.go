package payment

import (
	"fmt"
	"strconv"
	"time"

	"bizbook-backend/internal/audit"
	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRequest struct {
	DocumentType models.DocumentType  `json:"document_type"`
	DocumentID   uint                 `json:"document_id"`
	Amount       decimal.Decimal      `json:"amount"`
	Method       models.PaymentMethod `json:"method"`
	Date         string               `json:"date"`
	Notes        string               `json:"notes"`
}

type PaymentResponse struct {
	ID           uint                 `json:"id"`
	Reference    string               `json:"reference"`
	DocumentType models.DocumentType  `json:"document_type"`
	DocumentID   uint                 `json:"document_id"`
	Amount       decimal.Decimal      `json:"amount"`
	Method       models.PaymentMethod `json:"method"`
	Date         string               `json:"date"`
	Notes        string               `json:"notes"`
}

func paymentResponse(p models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		Reference:    p.Reference,
		DocumentType: p.DocumentType,
		DocumentID:   p.DocumentID,
		Amount:       p.Amount,
		Method:       p.Method,
		Date:         p.Date.Format("2006-01-02"),
		Notes:        p.Notes,
	}
}

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userID, ok := c.Locals(auth.CtxUserIDKey).(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid session")
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}
	return user.ID, user.Name, nil
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}

func validMethod(m models.PaymentMethod) bool {
	switch m {
	case models.PaymentCash, models.PaymentBank, models.PaymentCard, models.PaymentOther:
		return true
	}
	return false
}

// docBalance is the slice of an invoice the payment flow needs, shared by the
// purchase and sales branches.
type docBalance struct {
	total      decimal.Decimal
	amountPaid decimal.Decimal
	status     models.DocumentStatus
	number     string
}

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// applyPayment locks the target document, rejects amounts above the open
// balance, and writes the new paid/balance/status columns. Debit notes never
// take payments.
func applyPayment(tx *gorm.DB, orgID uint, req PaymentRequest) (docBalance, error) {
	var bal docBalance

	switch req.DocumentType {
	case models.DocTypePurchaseInvoice:
		var inv models.PurchaseInvoice
		if err := tx.Clauses(lockForUpdate()).
			Where("organization_id = ?", orgID).
			First(&inv, req.DocumentID).Error; err != nil {
			return bal, fiber.NewError(fiber.StatusNotFound, "Purchase invoice not found")
		}
		bal = docBalance{total: inv.Total, amountPaid: inv.AmountPaid, status: inv.Status, number: inv.Number}
		if err := checkPayable(bal, req.Amount); err != nil {
			return bal, err
		}
		inv.AmountPaid = inv.AmountPaid.Add(req.Amount)
		inv.BalanceDue = inv.Total.Sub(inv.AmountPaid)
		inv.Status = paymentStatus(inv.Total, inv.AmountPaid)
		if err := tx.Save(&inv).Error; err != nil {
			return bal, err
		}
		bal.number = inv.Number
		return bal, nil

	case models.DocTypeSalesInvoice:
		var inv models.SalesInvoice
		if err := tx.Clauses(lockForUpdate()).
			Where("organization_id = ?", orgID).
			First(&inv, req.DocumentID).Error; err != nil {
			return bal, fiber.NewError(fiber.StatusNotFound, "Sales invoice not found")
		}
		bal = docBalance{total: inv.Total, amountPaid: inv.AmountPaid, status: inv.Status, number: inv.Number}
		if err := checkPayable(bal, req.Amount); err != nil {
			return bal, err
		}
		inv.AmountPaid = inv.AmountPaid.Add(req.Amount)
		inv.BalanceDue = inv.Total.Sub(inv.AmountPaid)
		inv.Status = paymentStatus(inv.Total, inv.AmountPaid)
		if err := tx.Save(&inv).Error; err != nil {
			return bal, err
		}
		bal.number = inv.Number
		return bal, nil

	default:
		return bal, fiber.NewError(fiber.StatusBadRequest, "Payments can only be recorded against purchase or sales invoices")
	}
}

func checkPayable(bal docBalance, amount decimal.Decimal) error {
	if bal.status == models.StatusDraft {
		return fiber.NewError(fiber.StatusConflict, "Draft documents cannot take payments")
	}
	open := bal.total.Sub(bal.amountPaid)
	if amount.GreaterThan(open) {
		return finance.ValidationErrors{
			"amount": fmt.Sprintf("amount %s exceeds the open balance %s", amount.StringFixed(2), open.StringFixed(2)),
		}
	}
	return nil
}

func paymentStatus(total, paid decimal.Decimal) models.DocumentStatus {
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

// POST /api/payments
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body PaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		verrs := finance.ValidationErrors{}
		if !body.Amount.IsPositive() {
			verrs["amount"] = "amount must be greater than zero"
		}
		if body.Method == "" {
			body.Method = models.PaymentCash
		} else if !validMethod(body.Method) {
			verrs["method"] = "method must be one of cash, bank, card, other"
		}
		if len(verrs) > 0 {
			return verrs
		}

		date := time.Now()
		if body.Date != "" {
			parsed, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be in YYYY-MM-DD format")
			}
			date = parsed
		}

		pay := models.Payment{
			OrganizationID: orgID,
			DocumentType:   body.DocumentType,
			DocumentID:     body.DocumentID,
			Reference:      uuid.NewString(),
			Amount:         body.Amount,
			Method:         body.Method,
			Date:           date,
			Notes:          body.Notes,
		}

		var number string
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			bal, err := applyPayment(tx, orgID, body)
			if err != nil {
				return err
			}
			number = bal.number
			return tx.Create(&pay).Error
		})
		if err != nil {
			if _, ok := err.(finance.ValidationErrors); ok {
				return err
			}
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record payment")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "payment",
			EntityID:       pay.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("Payment of %s recorded against %s", pay.Amount.StringFixed(2), number),
			After:          pay,
		})

		return c.Status(fiber.StatusCreated).JSON(paymentResponse(pay))
	}
}

// GET /api/payments?document_type=sales_invoice&document_id=5&from=...&to=...
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)

		if dt := c.Query("document_type"); dt != "" {
			dbq = dbq.Where("document_type = ?", dt)
		}
		if didStr := c.Query("document_id"); didStr != "" {
			if did, err := strconv.ParseUint(didStr, 10, 64); err == nil && did > 0 {
				dbq = dbq.Where("document_id = ?", did)
			}
		}
		if from := c.Query("from"); from != "" {
			if t, err := time.Parse("2006-01-02", from); err == nil {
				dbq = dbq.Where("date >= ?", t)
			}
		}
		if to := c.Query("to"); to != "" {
			if t, err := time.Parse("2006-01-02", to); err == nil {
				dbq = dbq.Where("date <= ?", t)
			}
		}

		var payments []models.Payment
		if err := dbq.Order("date desc, id desc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payments")
		}

		res := make([]PaymentResponse, 0, len(payments))
		for _, p := range payments {
			res = append(res, paymentResponse(p))
		}
		return c.JSON(res)
	}
}

// DELETE /api/payments/:id - reverses the payment and reopens the document
// balance.
func DeletePaymentHandler() fiber.Handler {
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

		var pay models.Payment
		if err := database.DB.Where("organization_id = ?", orgID).First(&pay, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Payment not found")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			switch pay.DocumentType {
			case models.DocTypePurchaseInvoice:
				var inv models.PurchaseInvoice
				if err := tx.Clauses(lockForUpdate()).
					Where("organization_id = ?", orgID).
					First(&inv, pay.DocumentID).Error; err != nil {
					return err
				}
				inv.AmountPaid = inv.AmountPaid.Sub(pay.Amount)
				inv.BalanceDue = inv.Total.Sub(inv.AmountPaid)
				inv.Status = paymentStatus(inv.Total, inv.AmountPaid)
				if err := tx.Save(&inv).Error; err != nil {
					return err
				}
			case models.DocTypeSalesInvoice:
				var inv models.SalesInvoice
				if err := tx.Clauses(lockForUpdate()).
					Where("organization_id = ?", orgID).
					First(&inv, pay.DocumentID).Error; err != nil {
					return err
				}
				inv.AmountPaid = inv.AmountPaid.Sub(pay.Amount)
				inv.BalanceDue = inv.Total.Sub(inv.AmountPaid)
				inv.Status = paymentStatus(inv.Total, inv.AmountPaid)
				if err := tx.Save(&inv).Error; err != nil {
					return err
				}
			}
			return tx.Delete(&pay).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete payment")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "payment",
			EntityID:       pay.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("Payment %s deleted", pay.Reference),
			Before:         pay,
		})

		return c.JSON(fiber.Map{"message": "Payment deleted"})
	}
}
