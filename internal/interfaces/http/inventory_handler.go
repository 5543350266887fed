package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ligero/internal/application/dto"
	"github.com/jhoicas/almacen-ligero/internal/application/ledger"
	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
)

// InventoryHandler maneja el registro de movimientos y el historial.
type InventoryHandler struct {
	uc       *ledger.RegisterMovementUseCase
	state    *inventory.State
	validate *validator.Validate
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *ledger.RegisterMovementUseCase, state *inventory.State) *InventoryHandler {
	return &InventoryHandler{uc: uc, state: state, validate: validator.New()}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de stock (entrada o salida)
// @Description  Las entradas admiten lote (clona una fila nueva si el lote no
//               coincide con el del item), fecha retroactiva y modo bolsas
//               (quantity = bolsas, pieces_per_bag piezas por bolsa).
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterMovementRequest  true  "item_id, type, quantity, ..."
// @Success      201   {object}  dto.MovementReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	input, err := movementInput(in)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	receipt, err := h.uc.Register(c.Context(), input)
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementReceiptResponse{
		Item:       dto.ItemFromEntity(receipt.Item),
		Movement:   dto.MovementFromEntity(receipt.Movement),
		ClonedItem: receipt.ClonedItem,
		Clamped:    receipt.Clamped,
	})
}

// ListMovements godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         inventory
// @Produce      json
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	return c.JSON(dto.MovementsFromEntities(h.state.Movements()))
}

// movementInput traduce el body HTTP a la petición del procesador. El lote,
// la fecha retroactiva y el precio de compra solo aplican a entradas; el
// precio de venta solo a salidas. Esto duplica el recorte que el procesador
// hace de todas formas: él es la autoridad.
func movementInput(in dto.RegisterMovementRequest) (ledger.MovementInput, error) {
	input := ledger.MovementInput{
		ItemID:   in.ItemID,
		Type:     in.Type,
		Quantity: in.Quantity,
	}
	if in.Type == entity.MovementTypeEntry {
		input.BatchNumber = in.BatchNumber
		input.PurchasePrice = in.PurchasePrice
		if in.Bags {
			input.Bags = &ledger.BagInput{PiecesPerBag: in.PiecesPerBag, BagCost: in.BagCost}
		}
		if in.EntryDate != "" {
			d, err := time.ParseInLocation("2006-01-02", in.EntryDate, time.Local)
			if err != nil {
				return ledger.MovementInput{}, err
			}
			input.EntryDate = &d
		}
	} else {
		input.SalePrice = in.SalePrice
	}
	return input, nil
}
