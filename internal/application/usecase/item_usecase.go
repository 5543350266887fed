package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/application/ledger"
	"github.com/jhoicas/almacen-ligero/internal/domain"
	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
	"github.com/jhoicas/almacen-ligero/internal/domain/repository"
	"github.com/jhoicas/almacen-ligero/pkg/logger"
)

// ItemUseCase gestiona el ciclo de vida explícito del catálogo: alta, edición
// en sitio y borrado. Las mutaciones implícitas (cantidad, clon por lote) son
// exclusivas del procesador de movimientos. Misma disciplina de escritura en
// dos fases: aplicar al State, persistir con reintentos, revertir si falla.
type ItemUseCase struct {
	state *inventory.State
	repo  repository.ItemRepository
	log   *logger.Logger

	// Reemplazables en tests.
	Now           func() time.Time
	NewID         func() string
	WriteAttempts int
	WriteBackoff  time.Duration
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(state *inventory.State, repo repository.ItemRepository, log *logger.Logger) *ItemUseCase {
	return &ItemUseCase{
		state:         state,
		repo:          repo,
		log:           log,
		Now:           time.Now,
		NewID:         func() string { return uuid.New().String() },
		WriteAttempts: 3,
		WriteBackoff:  200 * time.Millisecond,
	}
}

// ItemInput son los campos editables de un item.
type ItemInput struct {
	Name        string
	Category    string
	Quantity    int64
	Price       decimal.Decimal
	Description string
	ImageURL    string
	BatchNumber string
}

// List devuelve el catálogo actual, más reciente primero.
func (uc *ItemUseCase) List() []*entity.Item {
	return uc.state.Items()
}

// GetByID busca un item. Devuelve domain.ErrNotFound si no existe.
func (uc *ItemUseCase) GetByID(id string) (*entity.Item, error) {
	item := uc.state.ItemByID(id)
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// Create da de alta un item nuevo con ID y timestamps propios.
func (uc *ItemUseCase) Create(ctx context.Context, input ItemInput) (*entity.Item, error) {
	if input.Name == "" || input.Quantity < 0 || input.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	// El par nombre+lote debe ser único: la fusión de entradas por lote
	// depende de que haya a lo sumo una fila por combinación.
	if uc.state.ItemByNameAndBatch(input.Name, input.BatchNumber) != nil {
		return nil, domain.ErrDuplicate
	}
	now := uc.Now()
	item := &entity.Item{
		ID:          uc.NewID(),
		Name:        input.Name,
		Category:    input.Category,
		Quantity:    input.Quantity,
		Price:       input.Price,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		BatchNumber: input.BatchNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	uc.state.PrependItem(item)
	if err := ledger.WithRetry(ctx, uc.WriteAttempts, uc.WriteBackoff, func(ctx context.Context) error {
		return uc.repo.CreateItem(ctx, item)
	}); err != nil {
		uc.state.RemoveItem(item.ID)
		uc.log.Error().Err(err).Str("item_id", item.ID).Msg("persistir alta de item")
		return nil, err
	}
	return item, nil
}

// Update edita un item en sitio (mismo ID, updatedAt refrescado).
func (uc *ItemUseCase) Update(ctx context.Context, id string, input ItemInput) (*entity.Item, error) {
	if input.Name == "" || input.Quantity < 0 || input.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	current := uc.state.ItemByID(id)
	if current == nil {
		return nil, domain.ErrNotFound
	}

	updated := current.Clone()
	updated.Name = input.Name
	updated.Category = input.Category
	updated.Quantity = input.Quantity
	updated.Price = input.Price
	updated.Description = input.Description
	updated.ImageURL = input.ImageURL
	updated.BatchNumber = input.BatchNumber
	updated.UpdatedAt = uc.Now()

	prev, ok := uc.state.ReplaceItem(updated)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := ledger.WithRetry(ctx, uc.WriteAttempts, uc.WriteBackoff, func(ctx context.Context) error {
		return uc.repo.UpdateItem(ctx, updated)
	}); err != nil {
		uc.state.ReplaceItem(prev)
		uc.log.Error().Err(err).Str("item_id", id).Msg("persistir edición de item")
		return nil, err
	}
	return updated, nil
}

// Delete borra un item del catálogo. No toca el libro de movimientos: el
// historial conserva los asientos del item bajo su nombre snapshot.
func (uc *ItemUseCase) Delete(ctx context.Context, id string) error {
	removed := uc.state.RemoveItem(id)
	if removed == nil {
		return domain.ErrNotFound
	}
	if err := ledger.WithRetry(ctx, uc.WriteAttempts, uc.WriteBackoff, func(ctx context.Context) error {
		return uc.repo.DeleteItem(ctx, id)
	}); err != nil {
		uc.state.PrependItem(removed)
		uc.log.Error().Err(err).Str("item_id", id).Msg("persistir borrado de item")
		return err
	}
	return nil
}
