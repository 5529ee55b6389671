package report

import (
	"fmt"
	"strconv"
	"time"

	"bizbook-backend/internal/auth"
	"bizbook-backend/internal/database"
	"bizbook-backend/internal/finance"
	"bizbook-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ProfitRow struct {
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
	QuantitySold  decimal.Decimal `json:"quantity_sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	COGS          decimal.Decimal `json:"cogs"`
	Profit        decimal.Decimal `json:"profit"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
}

type ProfitReportResponse struct {
	Rows    []ProfitRow     `json:"rows"`
	Summary ProfitSummaryJS `json:"summary"`
}

type ProfitSummaryJS struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalCOGS     decimal.Decimal `json:"total_cogs"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
}

func checkReportsEnabled(orgID uint) error {
	var org models.Organization
	if err := database.DB.First(&org, orgID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Organization not found")
	}
	if !org.ReportsEnabled {
		return fiber.NewError(fiber.StatusForbidden, "Reports are not enabled for this organization")
	}
	return nil
}

// soldItems loads the sold lines for the profit report. Draft invoices are
// excluded - their stock was still consumed but they are not realized sales.
func soldItems(c *fiber.Ctx, orgID uint) ([]models.SalesInvoiceItem, error) {
	dbq := database.DB.
		Joins("JOIN sales_invoices ON sales_invoices.id = sales_invoice_items.invoice_id").
		Where("sales_invoices.organization_id = ? AND sales_invoices.status <> ?", orgID, models.StatusDraft).
		Preload("Product")

	if pidStr := c.Query("product_id"); pidStr != "" {
		if pid, err := strconv.ParseUint(pidStr, 10, 64); err == nil && pid > 0 {
			dbq = dbq.Where("sales_invoice_items.product_id = ?", pid)
		}
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			dbq = dbq.Where("sales_invoices.issue_date >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			dbq = dbq.Where("sales_invoices.issue_date <= ?", t)
		}
	}

	var items []models.SalesInvoiceItem
	if err := dbq.Order("sales_invoice_items.product_id asc").Find(&items).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load sold items")
	}
	return items, nil
}

// The conversion factor folds into the sale-unit price so revenue matches the
// persisted line totals; FIFOUnitCost is already stored per sale unit.
func profitInput(item models.SalesInvoiceItem) finance.ProfitInput {
	return finance.ProfitInput{
		Quantity:        item.Quantity,
		UnitPrice:       item.UnitPrice.Mul(item.ConversionFactor),
		DiscountPercent: item.DiscountPercent,
		FIFOUnitCost:    item.FIFOUnitCost,
	}
}

func buildProfitReport(items []models.SalesInvoiceItem) ProfitReportResponse {
	type acc struct {
		name  string
		qty   decimal.Decimal
		lines []finance.LineProfit
	}
	byProduct := make(map[uint]*acc)
	order := make([]uint, 0)

	allLines := make([]finance.LineProfit, 0, len(items))
	for _, item := range items {
		lp := finance.ProfitLine(profitInput(item))
		allLines = append(allLines, lp)

		a, ok := byProduct[item.ProductID]
		if !ok {
			a = &acc{name: item.Product.Name}
			byProduct[item.ProductID] = a
			order = append(order, item.ProductID)
		}
		a.qty = a.qty.Add(item.Quantity)
		a.lines = append(a.lines, lp)
	}

	rows := make([]ProfitRow, 0, len(order))
	for _, pid := range order {
		a := byProduct[pid]
		s := finance.AggregateProfit(a.lines)
		rows = append(rows, ProfitRow{
			ProductID:     pid,
			ProductName:   a.name,
			QuantitySold:  a.qty,
			Revenue:       s.TotalRevenue.Round(2),
			COGS:          s.TotalCOGS.Round(2),
			Profit:        s.TotalProfit.Round(2),
			ProfitPercent: s.ProfitPercent.Round(2),
		})
	}

	total := finance.AggregateProfit(allLines)
	return ProfitReportResponse{
		Rows: rows,
		Summary: ProfitSummaryJS{
			TotalRevenue:  total.TotalRevenue.Round(2),
			TotalCOGS:     total.TotalCOGS.Round(2),
			TotalProfit:   total.TotalProfit.Round(2),
			ProfitPercent: total.ProfitPercent.Round(2),
		},
	}
}

// GET /api/reports/profit?product_id=4&from=2025-01-01&to=2025-12-31
func ProfitReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		if err := checkReportsEnabled(orgID); err != nil {
			return err
		}

		items, err := soldItems(c, orgID)
		if err != nil {
			return err
		}
		return c.JSON(buildProfitReport(items))
	}
}

// GET /api/reports/profit/export - same filters, .xlsx download.
func ProfitReportExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := auth.OrgID(c)
		if err != nil {
			return err
		}
		if err := checkReportsEnabled(orgID); err != nil {
			return err
		}

		items, err := soldItems(c, orgID)
		if err != nil {
			return err
		}
		report := buildProfitReport(items)

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		headers := []string{"Product", "Quantity Sold", "Revenue", "COGS", "Profit", "Profit %"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for r, row := range report.Rows {
			values := []any{
				row.ProductName,
				row.QuantitySold.InexactFloat64(),
				row.Revenue.InexactFloat64(),
				row.COGS.InexactFloat64(),
				row.Profit.InexactFloat64(),
				row.ProfitPercent.InexactFloat64(),
			}
			for cIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(cIdx+1, r+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		summaryRow := len(report.Rows) + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "TOTAL")
		f.SetCellValue(sheet, fmt.Sprintf("C%d", summaryRow), report.Summary.TotalRevenue.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("D%d", summaryRow), report.Summary.TotalCOGS.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", summaryRow), report.Summary.TotalProfit.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", summaryRow), report.Summary.ProfitPercent.InexactFloat64())

		f.SetColWidth(sheet, "A", "A", 32)
		f.SetColWidth(sheet, "B", "F", 14)

		filename := fmt.Sprintf("profit-report-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

		_, err = f.WriteTo(c.Response().BodyWriter())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not write report file")
		}
		return nil
	}
}
