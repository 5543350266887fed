// Package pdf genera la versión imprimible del Reporte de Ganancias: los KPI
// acumulados, la tendencia mensual y la tabla de rendimiento por producto
// (compra vs venta), en una página A4.
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/almacen-ligero/internal/application/report"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 14, Green: 116, Blue: 233}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 220, Green: 38, Blue: 38}
	colorGreen   = &props.Color{Red: 5, Green: 150, Blue: 105}
)

// Formato de dinero es-ES (separador de miles y coma decimal), como en la UI.
var esPrinter = message.NewPrinter(language.EuropeanSpanish)

func money(d decimal.Decimal) string {
	f, _ := d.Float64()
	return esPrinter.Sprintf("$%.2f", f)
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator genera el PDF del reporte mensual usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateMonthlyReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateMonthlyReport(
	appName string,
	monthly []report.MonthlyBucket,
	products []report.ProductRow,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de Ganancias", true).
		WithAuthor(appName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(appName, monthly, products))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	// Tendencia mensual
	m.AddRows(sectionTitle("Tendencia de Ingresos Mensuales"))
	m.AddRows(monthlyHeaderRow())
	for _, b := range monthly {
		m.AddRows(monthlyRow(b))
	}
	if len(monthly) == 0 {
		m.AddRows(emptyRow("Sin salidas registradas"))
	}

	// Tabla por producto
	m.AddRows(line.NewRow(3))
	m.AddRows(sectionTitle("Rendimiento por Producto (Compra vs Venta)"))
	m.AddRows(productHeaderRow())
	for _, r := range products {
		m.AddRows(productRow(r))
	}
	if len(products) == 0 {
		m.AddRows(emptyRow("No hay movimientos registrados aún"))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(appName string, monthly []report.MonthlyBucket, products []report.ProductRow) core.Row {
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

	return row.New(16).Add(
		col.New(6).Add(
			text.New(appName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Reporte de Ganancias", props.Text{Size: 9, Top: 8, Color: colorGray}),
		),
		col.New(6).Add(
			text.New("Ventas: "+money(totalEarnings), props.Text{Size: 9, Top: 1, Align: align.Right}),
			text.New("Inversión: "+money(totalInvested), props.Text{Size: 9, Top: 6, Align: align.Right}),
			text.New(fmt.Sprintf("Unidades vendidas: %d", totalUnits), props.Text{Size: 9, Top: 11, Align: align.Right}),
		),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(8).Add(
		col.New(12).Add(text.New(title, props.Text{Style: fontstyle.Bold, Size: 10, Top: 2})),
	)
}

func monthlyHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("Mes", 6, align.Left),
		headerCell("Unidades", 3, align.Center),
		headerCell("Ingresos", 3, align.Right),
	)
}

func monthlyRow(b report.MonthlyBucket) core.Row {
	return row.New(5).Add(
		col.New(6).Add(text.New(b.Label, props.Text{Size: 8})),
		col.New(3).Add(text.New(fmt.Sprintf("%d", b.UnitsSold), props.Text{Size: 8, Align: align.Center})),
		col.New(3).Add(text.New(money(b.Earnings), props.Text{Size: 8, Align: align.Right})),
	)
}

func productHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("Producto", 4, align.Left),
		headerCell("Comprado", 1, align.Center),
		headerCell("Inversión", 2, align.Right),
		headerCell("Vendido", 1, align.Center),
		headerCell("Ventas", 2, align.Right),
		headerCell("Balance", 2, align.Right),
	)
}

func productRow(r report.ProductRow) core.Row {
	balance := r.Balance()
	balanceColor := colorGreen
	if balance.IsNegative() {
		balanceColor = colorRed
	}
	return row.New(5).Add(
		col.New(4).Add(text.New(fmt.Sprintf("%s (%s)", r.Name, r.Category), props.Text{Size: 8})),
		col.New(1).Add(text.New(fmt.Sprintf("%d", r.BoughtQty), props.Text{Size: 8, Align: align.Center})),
		col.New(2).Add(text.New(money(r.Invested), props.Text{Size: 8, Align: align.Right})),
		col.New(1).Add(text.New(fmt.Sprintf("%d", r.SoldQty), props.Text{Size: 8, Align: align.Center})),
		col.New(2).Add(text.New(money(r.Revenue), props.Text{Size: 8, Align: align.Right})),
		col.New(2).Add(text.New(money(balance), props.Text{Size: 8, Align: align.Right, Style: fontstyle.Bold, Color: balanceColor})),
	)
}

func headerCell(label string, size int, al align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{Size: 8, Style: fontstyle.Bold, Color: colorGray, Align: al}))
}

func emptyRow(msg string) core.Row {
	return row.New(6).Add(
		col.New(12).Add(text.New(msg, props.Text{Size: 8, Color: colorGray, Align: align.Center, Top: 1})),
	)
}
