package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un producto del catálogo con su existencia actual.
// Quantity nunca es negativa: las salidas se recortan a cero en el procesador
// de movimientos. BatchNumber vacío significa "sin lote"; entradas con un
// lote nuevo para el mismo nombre generan una fila Item clonada.
type Item struct {
	ID          string
	Name        string
	Category    string
	Quantity    int64
	Price       decimal.Decimal // precio de venta unitario
	Description string
	ImageURL    string
	BatchNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time // se refresca en cada mutación
}

// Clone devuelve una copia superficial del item (los campos son valores).
func (i *Item) Clone() *Item {
	c := *i
	return &c
}
