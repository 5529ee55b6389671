package report

import (
	"fmt"
	"time"

	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type PartnerBalance struct {
	PartnerID   uint            `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	Balance     decimal.Decimal `json:"balance"`
}

type BalanceSummaryResponse struct {
	Receivables      decimal.Decimal  `json:"receivables"`
	Payables         decimal.Decimal  `json:"payables"`
	SupplierCredits  decimal.Decimal  `json:"supplier_credits"`
	StockValue       decimal.Decimal  `json:"stock_value"`
	CustomerBalances []PartnerBalance `json:"customer_balances"`
	SupplierBalances []PartnerBalance `json:"supplier_balances"`
}

type balanceRow struct {
	PartnerID   uint
	PartnerName string
	Balance     decimal.NullDecimal
}

// balanceSummary aggregates open balances for one organization.
//
// Receivables sum open sales balances, payables sum open purchase balances
// less issued debit notes. Stock is valued at remaining FIFO lot cost.
// Overpaid documents carry a negative balance and reduce the totals - they
// are credits, not zero.
func balanceSummary(orgID uint) (BalanceSummaryResponse, error) {
	res := BalanceSummaryResponse{
		CustomerBalances: []PartnerBalance{},
		SupplierBalances: []PartnerBalance{},
	}

	var customerRows []balanceRow
	err := database.DB.Model(&models.SalesInvoice{}).
		Select("customer_id AS partner_id, customers.name AS partner_name, SUM(balance_due) AS balance").
		Joins("JOIN customers ON customers.id = sales_invoices.customer_id").
		Where("sales_invoices.organization_id = ? AND sales_invoices.status <> ?", orgID, models.StatusDraft).
		Group("customer_id, customers.name").
		Having("SUM(balance_due) <> 0").
		Order("partner_name asc").
		Scan(&customerRows).Error
	if err != nil {
		return res, fiber.NewError(fiber.StatusInternalServerError, "Could not compute receivables")
	}
	for _, row := range customerRows {
		bal := row.Balance.Decimal
		res.Receivables = res.Receivables.Add(bal)
		res.CustomerBalances = append(res.CustomerBalances, PartnerBalance{
			PartnerID:   row.PartnerID,
			PartnerName: row.PartnerName,
			Balance:     bal.Round(2),
		})
	}

	var supplierRows []balanceRow
	err = database.DB.Model(&models.PurchaseInvoice{}).
		Select("supplier_id AS partner_id, suppliers.name AS partner_name, SUM(balance_due) AS balance").
		Joins("JOIN suppliers ON suppliers.id = purchase_invoices.supplier_id").
		Where("purchase_invoices.organization_id = ? AND purchase_invoices.status <> ?", orgID, models.StatusDraft).
		Group("supplier_id, suppliers.name").
		Having("SUM(balance_due) <> 0").
		Order("partner_name asc").
		Scan(&supplierRows).Error
	if err != nil {
		return res, fiber.NewError(fiber.StatusInternalServerError, "Could not compute payables")
	}
	for _, row := range supplierRows {
		bal := row.Balance.Decimal
		res.Payables = res.Payables.Add(bal)
		res.SupplierBalances = append(res.SupplierBalances, PartnerBalance{
			PartnerID:   row.PartnerID,
			PartnerName: row.PartnerName,
			Balance:     bal.Round(2),
		})
	}

	var credits decimal.NullDecimal
	err = database.DB.Model(&models.DebitNote{}).
		Select("SUM(total)").
		Where("organization_id = ? AND status = ?", orgID, models.StatusIssued).
		Scan(&credits).Error
	if err != nil {
		return res, fiber.NewError(fiber.StatusInternalServerError, "Could not compute supplier credits")
	}
	if credits.Valid {
		res.SupplierCredits = credits.Decimal
	}
	res.Payables = res.Payables.Sub(res.SupplierCredits)

	var stockValue decimal.NullDecimal
	err = database.DB.Model(&models.StockLot{}).
		Select("SUM(remaining_qty * unit_cost)").
		Where("organization_id = ?", orgID).
		Scan(&stockValue).Error
	if err != nil {
		return res, fiber.NewError(fiber.StatusInternalServerError, "Could not compute stock value")
	}
	if stockValue.Valid {
		res.StockValue = stockValue.Decimal
	}

	res.Receivables = res.Receivables.Round(2)
	res.Payables = res.Payables.Round(2)
	res.SupplierCredits = res.SupplierCredits.Round(2)
	res.StockValue = res.StockValue.Round(2)
	return res, nil
}

// GET /api/reports/balances
func BalanceSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		if err := checkReportsEnabled(orgID); err != nil {
			return err
		}

		res, err := balanceSummary(orgID)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// balanceWorkbook lays the summary out on one sheet: the four headline
// figures first, then the per-customer and per-supplier open balances.
func balanceWorkbook(res BalanceSummaryResponse) *excelize.File {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	f.SetCellValue(sheet, "A1", "Receivables")
	f.SetCellValue(sheet, "B1", res.Receivables.InexactFloat64())
	f.SetCellValue(sheet, "A2", "Payables")
	f.SetCellValue(sheet, "B2", res.Payables.InexactFloat64())
	f.SetCellValue(sheet, "A3", "Supplier Credits")
	f.SetCellValue(sheet, "B3", res.SupplierCredits.InexactFloat64())
	f.SetCellValue(sheet, "A4", "Stock Value")
	f.SetCellValue(sheet, "B4", res.StockValue.InexactFloat64())

	row := 6
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Customer")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Balance Due")
	for _, pb := range res.CustomerBalances {
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), pb.PartnerName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), pb.Balance.InexactFloat64())
	}

	row += 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Supplier")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Balance Due")
	for _, pb := range res.SupplierBalances {
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), pb.PartnerName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), pb.Balance.InexactFloat64())
	}

	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "B", "B", 14)
	return f
}

// GET /api/reports/balances/export - same figures, .xlsx download.
func BalanceSummaryExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		if err := checkReportsEnabled(orgID); err != nil {
			return err
		}

		res, err := balanceSummary(orgID)
		if err != nil {
			return err
		}

		f := balanceWorkbook(res)
		defer f.Close()

		filename := fmt.Sprintf("balance-summary-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

		_, err = f.WriteTo(c.Response().BodyWriter())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not write report file")
		}
		return nil
	}
}
