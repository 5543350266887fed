package repository

import (
	"context"

	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del libro de movimientos.
// Es append-only por contrato: no existe update ni delete para Movement.
type MovementRepository interface {
	// FetchMovements devuelve el libro completo, más reciente primero.
	FetchMovements(ctx context.Context) ([]*entity.Movement, error)
	CreateMovement(ctx context.Context, movement *entity.Movement) error
}
