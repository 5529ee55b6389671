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

type CustomerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
	VATNumber string `json:"vat_number"`
}

type CustomerResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
	VATNumber string `json:"vat_number"`
}

func customerResponse(cu models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        cu.ID,
		Name:      cu.Name,
		Email:     cu.Email,
		Phone:     cu.Phone,
		Address:   cu.Address,
		GSTIN:     cu.GSTIN,
		StateCode: cu.StateCode,
		VATNumber: cu.VATNumber,
	}
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

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ?", "%"+q+"%")
		}

		var customers []models.Customer
		if err := dbq.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list customers")
		}

		res := make([]CustomerResponse, 0, len(customers))
		for _, cu := range customers {
			res = append(res, customerResponse(cu))
		}
		return c.JSON(res)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var customer models.Customer
		if err := database.DB.Where("organization_id = ?", orgID).First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}
		return c.JSON(customerResponse(customer))
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		customer := models.Customer{
			OrganizationID: orgID,
			Name:           body.Name,
			Email:          strings.TrimSpace(body.Email),
			Phone:          strings.TrimSpace(body.Phone),
			Address:        strings.TrimSpace(body.Address),
			GSTIN:          strings.TrimSpace(body.GSTIN),
			StateCode:      strings.TrimSpace(body.StateCode),
			VATNumber:      strings.TrimSpace(body.VATNumber),
		}
		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create customer")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "customer",
			EntityID:       customer.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("Customer created: %s", customer.Name),
			After:          customer,
		})

		return c.Status(fiber.StatusCreated).JSON(customerResponse(customer))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
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

		var customer models.Customer
		if err := database.DB.Where("organization_id = ?", orgID).First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		before := customer

		customer.Name = body.Name
		customer.Email = strings.TrimSpace(body.Email)
		customer.Phone = strings.TrimSpace(body.Phone)
		customer.Address = strings.TrimSpace(body.Address)
		customer.GSTIN = strings.TrimSpace(body.GSTIN)
		customer.StateCode = strings.TrimSpace(body.StateCode)
		customer.VATNumber = strings.TrimSpace(body.VATNumber)

		if err := database.DB.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update customer")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "customer",
			EntityID:       customer.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("Customer updated: %s", customer.Name),
			Before:         before,
			After:          customer,
		})

		return c.JSON(customerResponse(customer))
	}
}

// DELETE /api/customers/:id
func DeleteCustomerHandler() fiber.Handler {
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

		var customer models.Customer
		if err := database.DB.Where("organization_id = ?", orgID).First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		var invoiceCount int64
		database.DB.Model(&models.SalesInvoice{}).
			Where("customer_id = ?", customer.ID).
			Count(&invoiceCount)
		if invoiceCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Customer has invoices and cannot be deleted")
		}

		if err := database.DB.Delete(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete customer")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "customer",
			EntityID:       customer.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("Customer deleted: %s", customer.Name),
			Before:         customer,
		})

		return c.JSON(fiber.Map{"message": "Customer deleted"})
	}
}
