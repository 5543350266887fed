package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
)

// ItemRequest body para crear o editar un item del catálogo.
type ItemRequest struct {
	Name        string          `json:"name" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"min=0"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	BatchNumber string          `json:"batch_number"`
}

// ItemResponse representación de un item en la API (timestamps en ms epoch,
// igual que el esquema de almacenamiento).
type ItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url,omitempty"`
	BatchNumber string          `json:"batch_number,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// ItemFromEntity mapea la entidad a su representación HTTP.
func ItemFromEntity(it *entity.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Category:    it.Category,
		Quantity:    it.Quantity,
		Price:       it.Price,
		Description: it.Description,
		ImageURL:    it.ImageURL,
		BatchNumber: it.BatchNumber,
		CreatedAt:   it.CreatedAt.UnixMilli(),
		UpdatedAt:   it.UpdatedAt.UnixMilli(),
	}
}

// ItemsFromEntities mapea el catálogo completo.
func ItemsFromEntities(items []*entity.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemFromEntity(it))
	}
	return out
}
