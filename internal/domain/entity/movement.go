package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeEntry = "entry" // entrada (compra/reposición)
	MovementTypeExit  = "exit"  // salida (venta)
)

// Movement es un registro inmutable del libro de movimientos: una vez creado
// nunca se modifica ni se elimina. ItemName es un snapshot desnormalizado para
// que el historial siga siendo legible si el item se borra después; la
// referencia ItemID es débil y los agregadores deben tolerar que el item ya
// no exista.
type Movement struct {
	ID            string
	ItemID        string
	ItemName      string
	Type          string
	Quantity      int64 // cantidad solicitada, siempre > 0 (en piezas, nunca bolsas)
	Timestamp     time.Time
	BatchNumber   string
	SalePrice     *decimal.Decimal // unitario, solo en salidas
	PurchasePrice *decimal.Decimal // unitario, solo en entradas
}
