package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
//
// Para entradas a granel se indican bags=true, pieces_per_bag y opcionalmente
// bag_cost: quantity pasa a ser el número de bolsas y el servidor lo
// convierte a piezas antes de registrar.
type RegisterMovementRequest struct {
	ItemID        string           `json:"item_id" validate:"required"`
	Type          string           `json:"type" validate:"required,oneof=entry exit"`
	Quantity      int64            `json:"quantity" validate:"required,gt=0"`
	Bags          bool             `json:"bags"`
	PiecesPerBag  int64            `json:"pieces_per_bag" validate:"required_if=Bags true"`
	BagCost       *decimal.Decimal `json:"bag_cost,omitempty"`
	BatchNumber   string           `json:"batch_number,omitempty"`
	EntryDate     string           `json:"entry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

// MovementResponse representación de una anotación del libro.
type MovementResponse struct {
	ID            string           `json:"id"`
	ItemID        string           `json:"item_id"`
	ItemName      string           `json:"item_name"`
	Type          string           `json:"type"`
	Quantity      int64            `json:"quantity"`
	Timestamp     int64            `json:"timestamp"`
	BatchNumber   string           `json:"batch_number,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

// MovementReceiptResponse resultado de un movimiento aplicado y confirmado.
type MovementReceiptResponse struct {
	Item       ItemResponse     `json:"item"`
	Movement   MovementResponse `json:"movement"`
	ClonedItem bool             `json:"cloned_item"`
	Clamped    bool             `json:"clamped"`
}

// MovementFromEntity mapea la entidad a su representación HTTP.
func MovementFromEntity(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ItemID:        m.ItemID,
		ItemName:      m.ItemName,
		Type:          m.Type,
		Quantity:      m.Quantity,
		Timestamp:     m.Timestamp.UnixMilli(),
		BatchNumber:   m.BatchNumber,
		SalePrice:     m.SalePrice,
		PurchasePrice: m.PurchasePrice,
	}
}

// MovementsFromEntities mapea el libro completo.
func MovementsFromEntities(movements []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, MovementFromEntity(m))
	}
	return out
}
