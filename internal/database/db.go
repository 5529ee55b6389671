package database

import (
	"log"

	"bizbook-backend/internal/config"
	"bizbook-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to the database: %v", err)
	}

	// Customer.state_code migration: earlier deployments stored customers
	// without a state code, which breaks the GST split. Backfill from the
	// organization before AutoMigrate adds constraints.
	if DB.Migrator().HasTable(&models.Customer{}) {
		if !DB.Migrator().HasColumn(&models.Customer{}, "state_code") {
			log.Println("Adding customers.state_code column...")
			if err := DB.Exec("ALTER TABLE customers ADD COLUMN state_code VARCHAR(5)").Error; err != nil {
				log.Printf("could not add state_code (may already exist): %v", err)
			}
			DB.Exec(`
				UPDATE customers SET state_code = organizations.state_code
				FROM organizations
				WHERE customers.organization_id = organizations.id
				AND customers.state_code IS NULL
			`)
			log.Println("customers.state_code backfilled from organizations")
		}
	}

	err = DB.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Customer{},
		&models.Supplier{},
		&models.Product{},
		&models.ProductUnit{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceItem{},
		&models.SalesInvoice{},
		&models.SalesInvoiceItem{},
		&models.DebitNote{},
		&models.DebitNoteItem{},
		&models.DocumentSequence{},
		&models.Payment{},
		&models.StockLot{},
		&models.CogsAllocation{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected. Migration complete.")
}
