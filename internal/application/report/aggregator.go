// Package report contiene la familia de funciones de lectura que derivan
// dashboards y reportes desde el catálogo y el libro de movimientos. Todas
// son puras: no mutan nada, no persisten ningún agregado y con las mismas
// colecciones de entrada producen exactamente el mismo resultado.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
)

// Categorías centinela para movimientos cuyo item ya no existe en el catálogo.
const (
	CategoryFallback = "Otros"     // distribución por categoría
	CategoryDeleted  = "Eliminado" // tabla de rendimiento por producto
)

// Umbral de stock bajo del dashboard.
const LowStockThreshold = 5

// CategorySlice es una porción de la distribución por categoría.
type CategorySlice struct {
	Name  string
	Value decimal.Decimal
}

// MonthlyBucket acumula las ventas de un mes calendario.
type MonthlyBucket struct {
	Key       string // "2025-01", ordenable lexicográficamente
	Label     string // "enero de 2025"
	Earnings  decimal.Decimal
	UnitsSold int64
}

// ProductRow es una fila de la tabla compra-vs-venta por producto.
type ProductRow struct {
	ID       string
	Name     string
	Category string
	// Entradas
	BoughtQty int64
	Invested  decimal.Decimal
	// Salidas
	SoldQty int64
	Revenue decimal.Decimal
}

// Balance devuelve ventas menos inversión de la fila.
func (r ProductRow) Balance() decimal.Decimal {
	return r.Revenue.Sub(r.Invested)
}

// Summary son los KPI del panel general.
type Summary struct {
	TotalUnits    int64
	TotalValue    decimal.Decimal
	LowStockCount int
	CategoryCount int
}

var mesesES = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// CategoryDistribution agrupa las salidas por la categoría del item referido
// (CategoryFallback si el item fue borrado), sumando cantidad × (precio de
// venta registrado ?? precio actual del item ?? 0), orden descendente por
// total. Sin ninguna salida registrada cae al valor del inventario actual por
// categoría, para que los gráficos nunca salgan vacíos en un catálogo nuevo.
//
// El booleano indica si la distribución proviene de ventas reales.
func CategoryDistribution(items []*entity.Item, movements []*entity.Movement) ([]CategorySlice, bool) {
	byID := indexItems(items)

	totals := map[string]decimal.Decimal{}
	hasSales := false
	for _, m := range movements {
		if m.Type != entity.MovementTypeExit {
			continue
		}
		hasSales = true
		category := CategoryFallback
		item := byID[m.ItemID]
		if item != nil {
			category = item.Category
		}
		price := exitUnitPrice(m, item)
		revenue := decimal.NewFromInt(m.Quantity).Mul(price)
		totals[category] = totals[category].Add(revenue)
	}

	if !hasSales {
		for _, it := range items {
			value := decimal.NewFromInt(it.Quantity).Mul(it.Price)
			totals[it.Category] = totals[it.Category].Add(value)
		}
	}

	return sortSlices(totals), hasSales
}

// MonthlyTrend agrupa las salidas por año-mes del timestamp, acumulando
// ingresos y unidades vendidas, en orden cronológico ascendente.
func MonthlyTrend(items []*entity.Item, movements []*entity.Movement) []MonthlyBucket {
	byID := indexItems(items)

	buckets := map[string]*MonthlyBucket{}
	for _, m := range movements {
		if m.Type != entity.MovementTypeExit {
			continue
		}
		key := fmt.Sprintf("%04d-%02d", m.Timestamp.Year(), int(m.Timestamp.Month()))
		b := buckets[key]
		if b == nil {
			b = &MonthlyBucket{
				Key:      key,
				Label:    fmt.Sprintf("%s de %d", mesesES[m.Timestamp.Month()-1], m.Timestamp.Year()),
				Earnings: decimal.Zero,
			}
			buckets[key] = b
		}
		price := exitUnitPrice(m, byID[m.ItemID])
		b.Earnings = b.Earnings.Add(decimal.NewFromInt(m.Quantity).Mul(price))
		b.UnitsSold += m.Quantity
	}

	out := make([]MonthlyBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ProductLedger recorre el libro completo y produce la tabla de rendimiento
// por producto: comprado/invertido por entradas, vendido/ingresado por
// salidas. Los items borrados con movimientos previos aparecen bajo la
// categoría CategoryDeleted con el nombre snapshot del movimiento. Las filas
// sin actividad en ningún sentido se excluyen. Orden descendente por ingresos.
func ProductLedger(items []*entity.Item, movements []*entity.Movement) []ProductRow {
	byID := indexItems(items)

	rows := map[string]*ProductRow{}
	for _, it := range items {
		rows[it.ID] = &ProductRow{
			ID:       it.ID,
			Name:     it.Name,
			Category: it.Category,
			Invested: decimal.Zero,
			Revenue:  decimal.Zero,
		}
	}

	for _, m := range movements {
		row := rows[m.ItemID]
		if row == nil {
			row = &ProductRow{
				ID:       m.ItemID,
				Name:     m.ItemName,
				Category: CategoryDeleted,
				Invested: decimal.Zero,
				Revenue:  decimal.Zero,
			}
			rows[m.ItemID] = row
		}

		switch m.Type {
		case entity.MovementTypeEntry:
			row.BoughtQty += m.Quantity
			// Sin precio de compra registrado la inversión suma cero,
			// nunca se estima.
			if m.PurchasePrice != nil {
				row.Invested = row.Invested.Add(decimal.NewFromInt(m.Quantity).Mul(*m.PurchasePrice))
			}
		case entity.MovementTypeExit:
			row.SoldQty += m.Quantity
			price := exitUnitPrice(m, byID[m.ItemID])
			row.Revenue = row.Revenue.Add(decimal.NewFromInt(m.Quantity).Mul(price))
		}
	}

	out := make([]ProductRow, 0, len(rows))
	for _, r := range rows {
		if r.BoughtQty == 0 && r.SoldQty == 0 {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Dashboard calcula los KPI del panel general sobre el catálogo actual.
func Dashboard(items []*entity.Item) Summary {
	s := Summary{TotalValue: decimal.Zero}
	categories := map[string]struct{}{}
	for _, it := range items {
		s.TotalUnits += it.Quantity
		s.TotalValue = s.TotalValue.Add(decimal.NewFromInt(it.Quantity).Mul(it.Price))
		if it.Quantity < LowStockThreshold {
			s.LowStockCount++
		}
		categories[it.Category] = struct{}{}
	}
	s.CategoryCount = len(categories)
	return s
}

// LowStockItems devuelve los items por debajo del umbral, menor stock primero.
func LowStockItems(items []*entity.Item) []*entity.Item {
	var out []*entity.Item
	for _, it := range items {
		if it.Quantity < LowStockThreshold {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// exitUnitPrice resuelve el precio unitario de una salida: el precio de venta
// registrado en el movimiento, con fallback al precio actual del item, o cero
// si el item fue borrado y el movimiento no guardó precio.
func exitUnitPrice(m *entity.Movement, item *entity.Item) decimal.Decimal {
	if m.SalePrice != nil {
		return *m.SalePrice
	}
	if item != nil {
		return item.Price
	}
	return decimal.Zero
}

func indexItems(items []*entity.Item) map[string]*entity.Item {
	byID := make(map[string]*entity.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID
}

// sortSlices ordena la distribución descendente por valor; a igual valor,
// alfabético, para que el resultado sea determinista (mapas de Go no tienen
// orden de inserción).
func sortSlices(totals map[string]decimal.Decimal) []CategorySlice {
	out := make([]CategorySlice, 0, len(totals))
	for name, value := range totals {
		out = append(out, CategorySlice{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
