package auth

import (
	"strings"

	"bizbook-backend/internal/config"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterOrganizationRequest struct {
	OrganizationName string `json:"organization_name"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	TaxMode          string `json:"tax_mode"` // gst, flat, saudi (default flat)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register - creates an organization with its owner account.
func RegisterOrganizationHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterOrganizationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.OrganizationName = strings.TrimSpace(body.OrganizationName)
		body.Name = strings.TrimSpace(body.Name)

		if body.OrganizationName == "" || body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Organization name, name, email and password are required")
		}

		taxMode := models.TaxModeFlat
		switch models.TaxMode(body.TaxMode) {
		case models.TaxModeGST:
			taxMode = models.TaxModeGST
		case models.TaxModeSaudi:
			taxMode = models.TaxModeSaudi
		case models.TaxModeFlat, "":
		default:
			return fiber.NewError(fiber.StatusBadRequest, "tax_mode must be gst, flat or saudi")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("email = ?", body.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Email is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		var user models.User
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			org := models.Organization{
				Name:    body.OrganizationName,
				TaxMode: taxMode,
			}
			if err := tx.Create(&org).Error; err != nil {
				return err
			}
			user = models.User{
				OrganizationID: org.ID,
				Name:           body.Name,
				Email:          body.Email,
				PasswordHash:   string(hash),
				Role:           models.RoleOwner,
			}
			return tx.Create(&user).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create organization")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":              user.ID,
			"email":           user.Email,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":              user.ID,
				"name":            user.Name,
				"email":           user.Email,
				"role":            user.Role,
				"organization_id": user.OrganizationID,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDVal := c.Locals(CtxUserIDKey)
		userID, ok := userIDVal.(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not resolve user")
		}

		var user models.User
		if err := database.DB.Preload("Organization").First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		return c.JSON(fiber.Map{
			"id":              user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
			"organization": fiber.Map{
				"id":                  user.Organization.ID,
				"name":                user.Organization.Name,
				"tax_mode":            user.Organization.TaxMode,
				"state_code":          user.Organization.StateCode,
				"multi_unit_enabled":  user.Organization.MultiUnitEnabled,
				"debit_notes_enabled": user.Organization.DebitNotesEnabled,
				"reports_enabled":     user.Organization.ReportsEnabled,
			},
		})
	}
}
