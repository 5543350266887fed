package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/application/report"
)

// DashboardResponse resumen ejecutivo del panel general.
type DashboardResponse struct {
	TotalUnits    int64              `json:"total_units"`
	TotalValue    decimal.Decimal    `json:"total_value"`
	LowStockCount int                `json:"low_stock_count"`
	CategoryCount int                `json:"category_count"`
	HasSales      bool               `json:"has_sales"`
	Distribution  []CategorySliceDTO `json:"distribution"`
	LowStockItems []ItemResponse     `json:"low_stock_items"`
}

// CategorySliceDTO porción de la distribución por categoría.
type CategorySliceDTO struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// MonthlyBucketDTO ventas acumuladas de un mes calendario.
type MonthlyBucketDTO struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	Earnings  decimal.Decimal `json:"earnings"`
	UnitsSold int64           `json:"units_sold"`
}

// ProductRowDTO fila de la tabla compra-vs-venta.
type ProductRowDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BoughtQty int64           `json:"bought_qty"`
	Invested  decimal.Decimal `json:"invested"`
	SoldQty   int64           `json:"sold_qty"`
	Revenue   decimal.Decimal `json:"revenue"`
	Balance   decimal.Decimal `json:"balance"`
}

// MonthlyReportResponse reporte de ganancias completo.
type MonthlyReportResponse struct {
	TotalEarnings decimal.Decimal    `json:"total_earnings"`
	TotalInvested decimal.Decimal    `json:"total_invested"`
	TotalUnits    int64              `json:"total_units"`
	Monthly       []MonthlyBucketDTO `json:"monthly"`
	Products      []ProductRowDTO    `json:"products"`
}

// CategorySlicesFromReport mapea la distribución del agregador.
func CategorySlicesFromReport(slices []report.CategorySlice) []CategorySliceDTO {
	out := make([]CategorySliceDTO, 0, len(slices))
	for _, s := range slices {
		out = append(out, CategorySliceDTO{Name: s.Name, Value: s.Value})
	}
	return out
}

// MonthlyBucketsFromReport mapea la tendencia mensual del agregador.
func MonthlyBucketsFromReport(buckets []report.MonthlyBucket) []MonthlyBucketDTO {
	out := make([]MonthlyBucketDTO, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, MonthlyBucketDTO{Key: b.Key, Label: b.Label, Earnings: b.Earnings, UnitsSold: b.UnitsSold})
	}
	return out
}

// ProductRowsFromReport mapea la tabla por producto del agregador.
func ProductRowsFromReport(rows []report.ProductRow) []ProductRowDTO {
	out := make([]ProductRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProductRowDTO{
			ID:        r.ID,
			Name:      r.Name,
			Category:  r.Category,
			BoughtQty: r.BoughtQty,
			Invested:  r.Invested,
			SoldQty:   r.SoldQty,
			Revenue:   r.Revenue,
			Balance:   r.Balance(),
		})
	}
	return out
}
