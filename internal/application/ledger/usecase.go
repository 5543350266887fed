// Package ledger implementa el núcleo del sistema: el procesador de
// movimientos de stock. Aplica una entrada o salida de forma atómica sobre el
// estado en memoria y el almacenamiento, resolviendo el item destino (regla
// de clonado por lote), recortando la cantidad a cero en salidas y anotando
// el movimiento en el libro.
//
// Toda escritura es en dos fases: primero se aplica al State (optimista),
// después se persiste con reintentos; si la persistencia falla de forma
// definitiva, la mutación en memoria se revierte y el fallo sube al caller.
// Nunca fire-and-forget.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/domain"
	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
	"github.com/jhoicas/almacen-ligero/internal/domain/repository"
	"github.com/jhoicas/almacen-ligero/pkg/logger"
)

// Las entradas con fecha explícita se anotan a una hora fija del día para que
// el bucket mensual no dependa de la hora a la que se capturó el formulario.
const backdatedHour = 12

// BagInput expresa una entrada como "N bolsas de K piezas a costo C por bolsa".
// El procesador la convierte a piezas antes de resolver el destino: el libro
// nunca registra bolsas.
type BagInput struct {
	PiecesPerBag int64
	BagCost      *decimal.Decimal // opcional; si está, el costo unitario es BagCost/PiecesPerBag
}

// MovementInput es la petición de un movimiento de stock.
type MovementInput struct {
	ItemID        string
	Type          string // entity.MovementTypeEntry | entity.MovementTypeExit
	Quantity      int64  // unidades, o bolsas si Bags != nil
	Bags          *BagInput
	BatchNumber   string           // solo entradas; distinto del lote actual dispara el clonado
	EntryDate     *time.Time       // solo entradas; fecha retroactiva del movimiento
	SalePrice     *decimal.Decimal // unitario, solo salidas
	PurchasePrice *decimal.Decimal // unitario, solo entradas (las bolsas lo sobreescriben)
}

// Receipt describe el resultado de un movimiento aplicado y confirmado.
type Receipt struct {
	Item       *entity.Item     // item destino ya actualizado
	Movement   *entity.Movement // anotación añadida al libro
	ClonedItem bool             // true si la entrada creó una fila nueva por lote
	Clamped    bool             // true si la salida se recortó a cero
}

// RegisterMovementUseCase es el procesador de movimientos. Posee el State y
// los puertos de persistencia; es el único componente que crea movimientos.
type RegisterMovementUseCase struct {
	state *inventory.State
	items repository.ItemRepository
	movs  repository.MovementRepository
	log   *logger.Logger

	// Reemplazables en tests.
	Now           func() time.Time
	NewID         func() string
	WriteAttempts int
	WriteBackoff  time.Duration
}

// NewRegisterMovementUseCase construye el procesador.
func NewRegisterMovementUseCase(
	state *inventory.State,
	items repository.ItemRepository,
	movs repository.MovementRepository,
	log *logger.Logger,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		state:         state,
		items:         items,
		movs:          movs,
		log:           log,
		Now:           time.Now,
		NewID:         func() string { return uuid.New().String() },
		WriteAttempts: defaultWriteAttempts,
		WriteBackoff:  defaultWriteBackoff,
	}
}

// Register aplica un movimiento de stock completo:
//
//  1. Valida y convierte bolsas a piezas.
//  2. Resuelve el item destino (fusión en lote existente o clonado).
//  3. Actualiza la cantidad (entrada suma; salida resta recortando a cero).
//  4. Anota el movimiento en el libro con la cantidad solicitada original.
//
// El orden de escritura es clon → update de item → insert de movimiento; un
// fallo definitivo en cualquier punto revierte lo aplicado en memoria desde
// ese punto y devuelve el error.
func (uc *RegisterMovementUseCase) Register(ctx context.Context, input MovementInput) (*Receipt, error) {
	qty, purchasePrice, err := uc.resolveQuantity(input)
	if err != nil {
		return nil, err
	}

	item := uc.state.ItemByID(input.ItemID)
	if item == nil {
		return nil, domain.ErrNotFound
	}

	target, cloned, err := uc.resolveTarget(ctx, item, input)
	if err != nil {
		return nil, err
	}

	now := uc.Now()
	updated := target.Clone()
	clamped := false
	if input.Type == entity.MovementTypeEntry {
		updated.Quantity = target.Quantity + qty
	} else {
		updated.Quantity = target.Quantity - qty
		if updated.Quantity < 0 {
			// Red de seguridad: la UI ya bloquea salidas mayores al stock,
			// pero el procesador es la autoridad final.
			updated.Quantity = 0
			clamped = true
		}
	}
	updated.UpdatedAt = now

	prev, ok := uc.state.ReplaceItem(updated)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := WithRetry(ctx, uc.WriteAttempts, uc.WriteBackoff, func(ctx context.Context) error {
		return uc.items.UpdateItem(ctx, updated)
	}); err != nil {
		uc.state.ReplaceItem(prev)
		uc.log.Error().Err(err).Str("item_id", updated.ID).Msg("persistir cantidad del item")
		return nil, err
	}

	movement := &entity.Movement{
		ID:          uc.NewID(),
		ItemID:      target.ID,
		ItemName:    target.Name,
		Type:        input.Type,
		Quantity:    qty,
		Timestamp:   uc.movementTimestamp(input, now),
		BatchNumber: batchUsed(input.BatchNumber, target.BatchNumber),
	}
	switch input.Type {
	case entity.MovementTypeEntry:
		movement.PurchasePrice = purchasePrice
	case entity.MovementTypeExit:
		movement.SalePrice = input.SalePrice
	}

	uc.state.PrependMovement(movement)
	if err := WithRetry(ctx, uc.WriteAttempts, uc.WriteBackoff, func(ctx context.Context) error {
		return uc.movs.CreateMovement(ctx, movement)
	}); err != nil {
		// Revertir también la cantidad: las dos colecciones no pueden quedar
		// inconsistentes en memoria (cantidad cambiada sin asiento).
		uc.state.DropMovement(movement.ID)
		uc.state.ReplaceItem(prev)
		uc.log.Error().Err(err).Str("movement_id", movement.ID).Msg("persistir movimiento")
		return nil, err
	}

	uc.log.Info().
		Str("item_id", target.ID).
		Str("type", input.Type).
		Int64("quantity", qty).
		Bool("cloned", cloned).
		Msg("movimiento registrado")

	return &Receipt{Item: updated, Movement: movement, ClonedItem: cloned, Clamped: clamped}, nil
}

// resolveQuantity valida la petición y convierte bolsas a piezas.
// Devuelve la cantidad en piezas y el costo unitario de compra efectivo.
func (uc *RegisterMovementUseCase) resolveQuantity(input MovementInput) (int64, *decimal.Decimal, error) {
	if input.Type != entity.MovementTypeEntry && input.Type != entity.MovementTypeExit {
		return 0, nil, domain.ErrInvalidInput
	}
	if input.Quantity <= 0 {
		return 0, nil, domain.ErrInvalidInput
	}

	qty := input.Quantity
	purchase := input.PurchasePrice

	if input.Bags != nil {
		if input.Type != entity.MovementTypeEntry {
			return 0, nil, domain.ErrInvalidInput
		}
		if input.Bags.PiecesPerBag <= 0 {
			return 0, nil, domain.ErrInvalidInput
		}
		qty = input.Quantity * input.Bags.PiecesPerBag
		if input.Bags.BagCost != nil && input.Bags.BagCost.GreaterThan(decimal.Zero) {
			perUnit := input.Bags.BagCost.Div(decimal.NewFromInt(input.Bags.PiecesPerBag))
			purchase = &perUnit
		}
	}
	return qty, purchase, nil
}

// resolveTarget decide sobre qué item cae el movimiento. Una entrada con un
// lote distinto al del item seleccionado se fusiona en el item existente con
// ese mismo nombre y lote, o clona una fila nueva (cantidad 0, lote nuevo,
// timestamps frescos). El clon se persiste antes de continuar.
func (uc *RegisterMovementUseCase) resolveTarget(ctx context.Context, item *entity.Item, input MovementInput) (*entity.Item, bool, error) {
	if input.Type != entity.MovementTypeEntry || input.BatchNumber == "" || input.BatchNumber == item.BatchNumber {
		return item, false, nil
	}

	if existing := uc.state.ItemByNameAndBatch(item.Name, input.BatchNumber); existing != nil {
		return existing, false, nil
	}

	now := uc.Now()
	clone := item.Clone()
	clone.ID = uc.NewID()
	clone.Quantity = 0
	clone.BatchNumber = input.BatchNumber
	clone.CreatedAt = now
	clone.UpdatedAt = now

	uc.state.PrependItem(clone)
	if err := WithRetry(ctx, uc.WriteAttempts, uc.WriteBackoff, func(ctx context.Context) error {
		return uc.items.CreateItem(ctx, clone)
	}); err != nil {
		uc.state.RemoveItem(clone.ID)
		uc.log.Error().Err(err).Str("item_id", clone.ID).Str("batch", input.BatchNumber).Msg("persistir clon de lote")
		return nil, false, err
	}
	return clone, true, nil
}

// movementTimestamp aplica la fecha retroactiva de una entrada a hora fija,
// o la hora actual en cualquier otro caso.
func (uc *RegisterMovementUseCase) movementTimestamp(input MovementInput, now time.Time) time.Time {
	if input.Type == entity.MovementTypeEntry && input.EntryDate != nil {
		d := *input.EntryDate
		return time.Date(d.Year(), d.Month(), d.Day(), backdatedHour, 0, 0, 0, time.Local)
	}
	return now
}

// batchUsed devuelve el lote realmente usado en la anotación: el de la
// petición, o el lote preexistente del item destino si no se indicó ninguno.
func batchUsed(requested, current string) string {
	if requested != "" {
		return requested
	}
	return current
}
