package partner

import (
	"fmt"
	"strings"

	"bizbook-backend/internal/audit"
	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SupplierRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
}

type SupplierResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
}

func supplierResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Address:   s.Address,
		GSTIN:     s.GSTIN,
		StateCode: s.StateCode,
	}
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ?", "%"+q+"%")
		}

		var suppliers []models.Supplier
		if err := dbq.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}

		res := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			res = append(res, supplierResponse(s))
		}
		return c.JSON(res)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var supplier models.Supplier
		if err := database.DB.Where("organization_id = ?", orgID).First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		return c.JSON(supplierResponse(supplier))
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		supplier := models.Supplier{
			OrganizationID: orgID,
			Name:           body.Name,
			Email:          strings.TrimSpace(body.Email),
			Phone:          strings.TrimSpace(body.Phone),
			Address:        strings.TrimSpace(body.Address),
			GSTIN:          strings.TrimSpace(body.GSTIN),
			StateCode:      strings.TrimSpace(body.StateCode),
		}
		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create supplier")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "supplier",
			EntityID:       supplier.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("Supplier created: %s", supplier.Name),
			After:          supplier,
		})

		return c.Status(fiber.StatusCreated).JSON(supplierResponse(supplier))
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
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

		var supplier models.Supplier
		if err := database.DB.Where("organization_id = ?", orgID).First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		before := supplier

		supplier.Name = body.Name
		supplier.Email = strings.TrimSpace(body.Email)
		supplier.Phone = strings.TrimSpace(body.Phone)
		supplier.Address = strings.TrimSpace(body.Address)
		supplier.GSTIN = strings.TrimSpace(body.GSTIN)
		supplier.StateCode = strings.TrimSpace(body.StateCode)

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update supplier")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "supplier",
			EntityID:       supplier.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("Supplier updated: %s", supplier.Name),
			Before:         before,
			After:          supplier,
		})

		return c.JSON(supplierResponse(supplier))
	}
}

// DELETE /api/suppliers/:id
func DeleteSupplierHandler() fiber.Handler {
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

		var supplier models.Supplier
		if err := database.DB.Where("organization_id = ?", orgID).First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		var invoiceCount int64
		database.DB.Model(&models.PurchaseInvoice{}).
			Where("supplier_id = ?", supplier.ID).
			Count(&invoiceCount)
		if invoiceCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Supplier has invoices and cannot be deleted")
		}

		if err := database.DB.Delete(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete supplier")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "supplier",
			EntityID:       supplier.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("Supplier deleted: %s", supplier.Name),
			Before:         supplier,
		})

		return c.JSON(fiber.Map{"message": "Supplier deleted"})
	}
}
