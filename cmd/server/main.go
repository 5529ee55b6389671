package main

import (
	"log"
	"strings"

	"bizbook-backend/internal/admin"
	"bizbook-backend/internal/audit"
	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/config"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/inventory"
	"bizbook-backend/internal/invoice"
	"bizbook-backend/internal/models"
	"bizbook-backend/internal/partner"
	"bizbook-backend/internal/payment"
	"bizbook-backend/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Field-keyed validation failures come back as one aggregated
			// 422 so clients can annotate every bad field at once.
			if verrs, ok := err.(finance.ValidationErrors); ok {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"errors": verrs,
				})
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterOrganizationHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Customers
	protected.Get("/customers", partner.ListCustomersHandler())
	protected.Get("/customers/:id", partner.GetCustomerHandler())
	protected.Post("/customers", partner.CreateCustomerHandler())
	protected.Put("/customers/:id", partner.UpdateCustomerHandler())
	protected.Delete("/customers/:id", partner.DeleteCustomerHandler())

	// Suppliers
	protected.Get("/suppliers", partner.ListSuppliersHandler())
	protected.Get("/suppliers/:id", partner.GetSupplierHandler())
	protected.Post("/suppliers", partner.CreateSupplierHandler())
	protected.Put("/suppliers/:id", partner.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", partner.DeleteSupplierHandler())

	// Products & stock
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())
	protected.Post("/products", inventory.CreateProductHandler())
	protected.Put("/products/:id", inventory.UpdateProductHandler())
	protected.Delete("/products/:id", inventory.DeleteProductHandler())
	protected.Get("/products/:id/unit-cost", inventory.ResolveUnitCostHandler())
	protected.Get("/stock-lots", inventory.ListStockLotsHandler())

	// Purchase invoices
	protected.Post("/purchase-invoices", invoice.CreatePurchaseInvoiceHandler())
	protected.Get("/purchase-invoices", invoice.ListPurchaseInvoicesHandler())
	protected.Get("/purchase-invoices/:id", invoice.GetPurchaseInvoiceHandler())
	protected.Put("/purchase-invoices/:id", invoice.UpdatePurchaseInvoiceHandler())
	protected.Delete("/purchase-invoices/:id", invoice.DeletePurchaseInvoiceHandler())

	// Sales invoices
	protected.Post("/sales-invoices", invoice.CreateSalesInvoiceHandler())
	protected.Get("/sales-invoices", invoice.ListSalesInvoicesHandler())
	protected.Get("/sales-invoices/:id", invoice.GetSalesInvoiceHandler())
	protected.Put("/sales-invoices/:id", invoice.UpdateSalesInvoiceHandler())
	protected.Delete("/sales-invoices/:id", invoice.DeleteSalesInvoiceHandler())

	// Debit notes
	protected.Post("/debit-notes", invoice.CreateDebitNoteHandler())
	protected.Get("/debit-notes", invoice.ListDebitNotesHandler())
	protected.Get("/debit-notes/:id", invoice.GetDebitNoteHandler())
	protected.Put("/debit-notes/:id", invoice.UpdateDebitNoteHandler())
	protected.Delete("/debit-notes/:id", invoice.DeleteDebitNoteHandler())

	// Payments
	protected.Post("/payments", payment.CreatePaymentHandler())
	protected.Get("/payments", payment.ListPaymentsHandler())
	protected.Delete("/payments/:id", payment.DeletePaymentHandler())

	// Reports
	protected.Get("/reports/profit", report.ProfitReportHandler())
	protected.Get("/reports/profit/export", report.ProfitReportExportHandler())
	protected.Get("/reports/balances", report.BalanceSummaryHandler())
	protected.Get("/reports/balances/export", report.BalanceSummaryExportHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	// Owner-only administration
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleOwner))

	adminRoutes.Get("/settings", admin.GetSettingsHandler())
	adminRoutes.Put("/settings", admin.UpdateSettingsHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler())
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
