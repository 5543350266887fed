package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/application/dto"
	"github.com/jhoicas/almacen-ligero/internal/application/report"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
)

// ReportPDFGenerator genera la versión imprimible del reporte mensual.
type ReportPDFGenerator interface {
	GenerateMonthlyReport(appName string, monthly []report.MonthlyBucket, products []report.ProductRow) ([]byte, error)
}

// ReportHandler sirve el dashboard y los reportes derivados. Todo se calcula
// sobre un snapshot del estado en cada petición; nada se persiste.
type ReportHandler struct {
	state   *inventory.State
	pdfGen  ReportPDFGenerator
	appName string
}

// NewReportHandler construye el handler.
func NewReportHandler(state *inventory.State, pdfGen ReportPDFGenerator, appName string) *ReportHandler {
	return &ReportHandler{state: state, pdfGen: pdfGen, appName: appName}
}

// Dashboard godoc
// @Summary      Panel general: KPIs, distribución por categoría y stock bajo
// @Description  La distribución usa ingresos por ventas; sin ninguna venta
//               cae al valor del inventario actual para no quedar vacía.
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.DashboardResponse
// @Router       /api/dashboard [get]
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	items := h.state.Items()
	movements := h.state.Movements()

	summary := report.Dashboard(items)
	distribution, hasSales := report.CategoryDistribution(items, movements)

	return c.JSON(dto.DashboardResponse{
		TotalUnits:    summary.TotalUnits,
		TotalValue:    summary.TotalValue,
		LowStockCount: summary.LowStockCount,
		CategoryCount: summary.CategoryCount,
		HasSales:      hasSales,
		Distribution:  dto.CategorySlicesFromReport(distribution),
		LowStockItems: dto.ItemsFromEntities(report.LowStockItems(items)),
	})
}

// MonthlyReport godoc
// @Summary      Reporte de ganancias: tendencia mensual y tabla por producto
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.MonthlyReportResponse
// @Router       /api/reports/monthly [get]
func (h *ReportHandler) MonthlyReport(c *fiber.Ctx) error {
	items := h.state.Items()
	movements := h.state.Movements()

	monthly := report.MonthlyTrend(items, movements)
	products := report.ProductLedger(items, movements)

	totalEarnings := decimal.Zero
	totalUnits := int64(0)
	for _, b := range monthly {
		totalEarnings = totalEarnings.Add(b.Earnings)
		totalUnits += b.UnitsSold
	}
	totalInvested := decimal.Zero
	for _, r := range products {
		totalInvested = totalInvested.Add(r.Invested)
	}

	return c.JSON(dto.MonthlyReportResponse{
		TotalEarnings: totalEarnings,
		TotalInvested: totalInvested,
		TotalUnits:    totalUnits,
		Monthly:       dto.MonthlyBucketsFromReport(monthly),
		Products:      dto.ProductRowsFromReport(products),
	})
}

// MonthlyReportPDF godoc
// @Summary      Reporte de ganancias en PDF
// @Tags         reports
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/reports/monthly/pdf [get]
func (h *ReportHandler) MonthlyReportPDF(c *fiber.Ctx) error {
	items := h.state.Items()
	movements := h.state.Movements()

	data, err := h.pdfGen.GenerateMonthlyReport(
		h.appName,
		report.MonthlyTrend(items, movements),
		report.ProductLedger(items, movements),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="reporte-ganancias.pdf"`)
	return c.Send(data)
}
