package admin

import (
	"fmt"
	"strconv"
	"strings"

	"bizbook-backend/internal/audit"
	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type OrganizationSettingsRequest struct {
	Name      string          `json:"name"`
	TaxMode   models.TaxMode  `json:"tax_mode"`
	StateCode string          `json:"state_code"`
	GSTIN     string          `json:"gstin"`
	VATNumber string          `json:"vat_number"`
	VATRate   decimal.Decimal `json:"vat_rate"`

	MultiUnitEnabled  *bool `json:"multi_unit_enabled"`
	DebitNotesEnabled *bool `json:"debit_notes_enabled"`
	ReportsEnabled    *bool `json:"reports_enabled"`
}

type OrganizationSettingsResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	TaxMode   models.TaxMode  `json:"tax_mode"`
	StateCode string          `json:"state_code"`
	GSTIN     string          `json:"gstin"`
	VATNumber string          `json:"vat_number"`
	VATRate   decimal.Decimal `json:"vat_rate"`

	MultiUnitEnabled  bool `json:"multi_unit_enabled"`
	DebitNotesEnabled bool `json:"debit_notes_enabled"`
	ReportsEnabled    bool `json:"reports_enabled"`
}

func settingsResponse(org models.Organization) OrganizationSettingsResponse {
	return OrganizationSettingsResponse{
		ID:                org.ID,
		Name:              org.Name,
		TaxMode:           org.TaxMode,
		StateCode:         org.StateCode,
		GSTIN:             org.GSTIN,
		VATNumber:         org.VATNumber,
		VATRate:           org.VATRate,
		MultiUnitEnabled:  org.MultiUnitEnabled,
		DebitNotesEnabled: org.DebitNotesEnabled,
		ReportsEnabled:    org.ReportsEnabled,
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

func validTaxMode(m models.TaxMode) bool {
	switch m {
	case models.TaxModeGST, models.TaxModeFlat, models.TaxModeSaudi:
		return true
	}
	return false
}

// GET /api/admin/settings
func GetSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		var org models.Organization
		if err := database.DB.First(&org, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Organization not found")
		}
		return c.JSON(settingsResponse(org))
	}
}

// PUT /api/admin/settings - owner only.
func UpdateSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var org models.Organization
		if err := database.DB.First(&org, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Organization not found")
		}

		var body OrganizationSettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		verrs := finance.ValidationErrors{}
		if strings.TrimSpace(body.Name) == "" {
			verrs["name"] = "name is required"
		}
		if !validTaxMode(body.TaxMode) {
			verrs["tax_mode"] = "tax_mode must be one of gst, flat, saudi"
		}
		if body.TaxMode == models.TaxModeGST && strings.TrimSpace(body.StateCode) == "" {
			verrs["state_code"] = "state_code is required in gst mode"
		}
		if body.VATRate.IsNegative() || body.VATRate.GreaterThan(decimal.NewFromInt(1)) {
			verrs["vat_rate"] = "vat_rate must be a fraction between 0 and 1"
		}
		if len(verrs) > 0 {
			return verrs
		}

		before := org

		org.Name = strings.TrimSpace(body.Name)
		org.TaxMode = body.TaxMode
		org.StateCode = strings.TrimSpace(body.StateCode)
		org.GSTIN = strings.TrimSpace(body.GSTIN)
		org.VATNumber = strings.TrimSpace(body.VATNumber)
		if !body.VATRate.IsZero() {
			org.VATRate = body.VATRate
		}
		if body.MultiUnitEnabled != nil {
			org.MultiUnitEnabled = *body.MultiUnitEnabled
		}
		if body.DebitNotesEnabled != nil {
			org.DebitNotesEnabled = *body.DebitNotesEnabled
		}
		if body.ReportsEnabled != nil {
			org.ReportsEnabled = *body.ReportsEnabled
		}

		if err := database.DB.Save(&org).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update settings")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "organization",
			EntityID:       org.ID,
			Action:         models.AuditActionUpdate,
			Description:    "Organization settings updated",
			Before:         before,
			After:          org,
		})

		return c.JSON(settingsResponse(org))
	}
}

type UserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type UserResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func userResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func validRole(r models.UserRole) bool {
	return r == models.RoleOwner || r == models.RoleStaff
}

// GET /api/admin/users - owner only.
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		var users []models.User
		if err := database.DB.Where("organization_id = ?", orgID).Order("id asc").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list users")
		}

		res := make([]UserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, userResponse(u))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/users - owner only.
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body UserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		verrs := finance.ValidationErrors{}
		if strings.TrimSpace(body.Name) == "" {
			verrs["name"] = "name is required"
		}
		if !strings.Contains(body.Email, "@") {
			verrs["email"] = "a valid email is required"
		}
		if len(body.Password) < 8 {
			verrs["password"] = "password must be at least 8 characters"
		}
		if body.Role == "" {
			body.Role = models.RoleStaff
		} else if !validRole(body.Role) {
			verrs["role"] = "role must be owner or staff"
		}
		if len(verrs) > 0 {
			return verrs
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			OrganizationID: orgID,
			Name:           strings.TrimSpace(body.Name),
			Email:          strings.ToLower(strings.TrimSpace(body.Email)),
			PasswordHash:   string(hash),
			Role:           body.Role,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "A user with this email already exists")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "user",
			EntityID:       user.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("User created: %s (%s)", user.Name, user.Role),
			After:          userResponse(user),
		})

		return c.Status(fiber.StatusCreated).JSON(userResponse(user))
	}
}

// PUT /api/admin/users/:id - owner only. Email is immutable; password is only
// changed when a new one is supplied.
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		actorID, actorName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
		}

		var user models.User
		if err := database.DB.Where("organization_id = ?", orgID).First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		var body UserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := userResponse(user)

		if strings.TrimSpace(body.Name) != "" {
			user.Name = strings.TrimSpace(body.Name)
		}
		if body.Role != "" {
			if !validRole(body.Role) {
				return finance.ValidationErrors{"role": "role must be owner or staff"}
			}
			if user.Role == models.RoleOwner && body.Role != models.RoleOwner {
				var owners int64
				database.DB.Model(&models.User{}).
					Where("organization_id = ? AND role = ?", orgID, models.RoleOwner).
					Count(&owners)
				if owners <= 1 {
					return fiber.NewError(fiber.StatusConflict, "Cannot demote the last owner")
				}
			}
			user.Role = body.Role
		}
		if body.Password != "" {
			if len(body.Password) < 8 {
				return finance.ValidationErrors{"password": "password must be at least 8 characters"}
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
			}
			user.PasswordHash = string(hash)
		}

		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         actorID,
			UserName:       actorName,
			EntityType:     "user",
			EntityID:       user.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("User updated: %s", user.Name),
			Before:         before,
			After:          userResponse(user),
		})

		return c.JSON(userResponse(user))
	}
}

// DELETE /api/admin/users/:id - owner only.
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		actorID, actorName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
		}
		if uint(id) == actorID {
			return fiber.NewError(fiber.StatusConflict, "You cannot delete your own account")
		}

		var user models.User
		if err := database.DB.Where("organization_id = ?", orgID).First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		if user.Role == models.RoleOwner {
			var owners int64
			database.DB.Model(&models.User{}).
				Where("organization_id = ? AND role = ?", orgID, models.RoleOwner).
				Count(&owners)
			if owners <= 1 {
				return fiber.NewError(fiber.StatusConflict, "Cannot delete the last owner")
			}
		}

		if err := database.DB.Delete(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete user")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         actorID,
			UserName:       actorName,
			EntityType:     "user",
			EntityID:       user.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("User deleted: %s", user.Name),
			Before:         userResponse(user),
		})

		return c.JSON(fiber.Map{"message": "User deleted"})
	}
}
