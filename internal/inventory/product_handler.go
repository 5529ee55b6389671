package inventory

import (
	"fmt"
	"strings"

	"bizbook-backend/internal/audit"
	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductUnitRequest struct {
	Name   string          `json:"name"`
	Factor decimal.Decimal `json:"factor"`
}

type ProductRequest struct {
	Name          string               `json:"name"`
	SKU           string               `json:"sku"`
	HSNCode       string               `json:"hsn_code"`
	BaseUnit      string               `json:"base_unit"`
	PurchasePrice decimal.Decimal      `json:"purchase_price"`
	SalePrice     decimal.Decimal      `json:"sale_price"`
	GSTRate       decimal.Decimal      `json:"gst_rate"`
	Units         []ProductUnitRequest `json:"units"`
}

type ProductUnitResponse struct {
	ID     uint            `json:"id"`
	Name   string          `json:"name"`
	Factor decimal.Decimal `json:"factor"`
}

type ProductResponse struct {
	ID            uint                  `json:"id"`
	Name          string                `json:"name"`
	SKU           string                `json:"sku"`
	HSNCode       string                `json:"hsn_code"`
	BaseUnit      string                `json:"base_unit"`
	PurchasePrice decimal.Decimal       `json:"purchase_price"`
	SalePrice     decimal.Decimal       `json:"sale_price"`
	GSTRate       decimal.Decimal       `json:"gst_rate"`
	Units         []ProductUnitResponse `json:"units"`
	StockOnHand   decimal.Decimal       `json:"stock_on_hand"`
}

func productResponse(p models.Product, stockOnHand decimal.Decimal) ProductResponse {
	units := make([]ProductUnitResponse, 0, len(p.Units))
	for _, u := range p.Units {
		units = append(units, ProductUnitResponse{ID: u.ID, Name: u.Name, Factor: u.Factor})
	}
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		HSNCode:       p.HSNCode,
		BaseUnit:      p.BaseUnit,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		GSTRate:       p.GSTRate,
		Units:         units,
		StockOnHand:   stockOnHand,
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

func validateProductBody(body *ProductRequest) error {
	body.Name = strings.TrimSpace(body.Name)
	body.BaseUnit = strings.TrimSpace(body.BaseUnit)
	if body.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	}
	if body.BaseUnit == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Base unit is required")
	}
	if body.PurchasePrice.IsNegative() || body.SalePrice.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "Prices must not be negative")
	}
	if body.GSTRate.IsNegative() || body.GSTRate.GreaterThan(decimal.NewFromInt(100)) {
		return fiber.NewError(fiber.StatusBadRequest, "GST rate must be between 0 and 100")
	}
	for i := range body.Units {
		body.Units[i].Name = strings.TrimSpace(body.Units[i].Name)
		if body.Units[i].Name == "" || body.Units[i].Name == body.BaseUnit {
			return fiber.NewError(fiber.StatusBadRequest, "Alternate unit names must be set and differ from the base unit")
		}
		if !body.Units[i].Factor.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Unit conversion factors must be positive")
		}
	}
	return nil
}

func stockOnHand(orgID, productID uint) decimal.Decimal {
	var total decimal.NullDecimal
	database.DB.Model(&models.StockLot{}).
		Where("organization_id = ? AND product_id = ?", orgID, productID).
		Select("SUM(remaining_qty)").
		Scan(&total)
	if !total.Valid {
		return decimal.Zero
	}
	return total.Decimal
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Units").Where("organization_id = ?", orgID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ? OR sku ILIKE ?", "%"+q+"%", "%"+q+"%")
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, productResponse(p, stockOnHand(orgID, p.ID)))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.Preload("Units").Where("organization_id = ?", orgID).First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return c.JSON(productResponse(product, stockOnHand(orgID, product.ID)))
	}
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validateProductBody(&body); err != nil {
			return err
		}

		product := models.Product{
			OrganizationID: orgID,
			Name:           body.Name,
			SKU:            strings.TrimSpace(body.SKU),
			HSNCode:        strings.TrimSpace(body.HSNCode),
			BaseUnit:       body.BaseUnit,
			PurchasePrice:  body.PurchasePrice,
			SalePrice:      body.SalePrice,
			GSTRate:        body.GSTRate,
		}
		for _, u := range body.Units {
			product.Units = append(product.Units, models.ProductUnit{Name: u.Name, Factor: u.Factor})
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "product",
			EntityID:       product.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("Product created: %s", product.Name),
			After:          product,
		})

		return c.Status(fiber.StatusCreated).JSON(productResponse(product, decimal.Zero))
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
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

		var product models.Product
		if err := database.DB.Preload("Units").Where("organization_id = ?", orgID).First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validateProductBody(&body); err != nil {
			return err
		}

		before := product

		product.Name = body.Name
		product.SKU = strings.TrimSpace(body.SKU)
		product.HSNCode = strings.TrimSpace(body.HSNCode)
		product.BaseUnit = body.BaseUnit
		product.PurchasePrice = body.PurchasePrice
		product.SalePrice = body.SalePrice
		product.GSTRate = body.GSTRate

		// Replace alternate units wholesale, like line items on an edit.
		if err := database.DB.Where("product_id = ?", product.ID).Delete(&models.ProductUnit{}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product units")
		}
		product.Units = nil
		for _, u := range body.Units {
			product.Units = append(product.Units, models.ProductUnit{ProductID: product.ID, Name: u.Name, Factor: u.Factor})
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "product",
			EntityID:       product.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("Product updated: %s", product.Name),
			Before:         before,
			After:          product,
		})

		return c.JSON(productResponse(product, stockOnHand(orgID, product.ID)))
	}
}

// DELETE /api/products/:id
func DeleteProductHandler() fiber.Handler {
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

		var product models.Product
		if err := database.DB.Where("organization_id = ?", orgID).First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var lotCount int64
		database.DB.Model(&models.StockLot{}).
			Where("product_id = ?", product.ID).
			Count(&lotCount)
		if lotCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Product has stock history and cannot be deleted")
		}

		if err := database.DB.Select("Units").Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     "product",
			EntityID:       product.ID,
			Action:         models.AuditActionDelete,
			Description:    fmt.Sprintf("Product deleted: %s", product.Name),
			Before:         product,
		})

		return c.JSON(fiber.Map{"message": "Product deleted"})
	}
}

// GET /api/products/:id/unit-cost?unit=box
// Resolves the conversion factor and per-unit costs for a requested unit, the
// lookup the multi-unit entry forms use when the unit dropdown changes.
func ResolveUnitCostHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c)
		if err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.Preload("Units").Where("organization_id = ?", orgID).First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		options := make([]finance.UnitOption, 0, len(product.Units))
		for _, u := range product.Units {
			options = append(options, finance.UnitOption{Name: u.Name, Factor: u.Factor})
		}

		requested := c.Query("unit")
		factor, err := finance.ResolveUnit(product.BaseUnit, options, requested)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		unit := requested
		if unit == "" {
			unit = product.BaseUnit
		}

		return c.JSON(fiber.Map{
			"product_id":     product.ID,
			"unit":           unit,
			"factor":         factor,
			"purchase_price": finance.AltUnitCost(product.PurchasePrice, factor),
			"sale_price":     finance.AltUnitCost(product.SalePrice, factor),
		})
	}
}

type StockLotResponse struct {
	ID           string          `json:"id"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReceivedAt   string          `json:"received_at"`
}

// GET /api/stock-lots?product_id=3&open=true
func ListStockLotsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Product").Where("organization_id = ?", orgID)

		if pidStr := c.Query("product_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err == nil && pid > 0 {
				dbq = dbq.Where("product_id = ?", pid)
			}
		}
		if c.Query("open") == "true" {
			dbq = dbq.Where("remaining_qty > 0")
		}

		var lots []models.StockLot
		if err := dbq.Order("received_at asc").Find(&lots).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list stock lots")
		}

		res := make([]StockLotResponse, 0, len(lots))
		for _, lot := range lots {
			res = append(res, StockLotResponse{
				ID:           lot.ID,
				ProductID:    lot.ProductID,
				ProductName:  lot.Product.Name,
				Quantity:     lot.Quantity,
				RemainingQty: lot.RemainingQty,
				UnitCost:     lot.UnitCost,
				ReceivedAt:   lot.ReceivedAt.Format("2006-01-02"),
			})
		}
		return c.JSON(res)
	}
}
