package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
	"github.com/jhoicas/almacen-ligero/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del puerto MovementRepository sobre la tabla
// movements. Solo INSERT y SELECT: el libro es append-only por contrato.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador de persistencia para movimientos.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// FetchMovements devuelve el libro completo ordenado por timestamp descendente.
func (r *MovementRepo) FetchMovements(ctx context.Context) ([]*entity.Movement, error) {
	query := `
		SELECT id, item_id, item_name, type, quantity, timestamp, batch_number, sale_price, purchase_price
		FROM movements ORDER BY timestamp DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Movement
	for rows.Next() {
		var (
			m           entity.Movement
			tsMs        int64
			batch       *string
			sale, purch *decimal.Decimal
		)
		if err := rows.Scan(&m.ID, &m.ItemID, &m.ItemName, &m.Type, &m.Quantity,
			&tsMs, &batch, &sale, &purch); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Timestamp = time.UnixMilli(tsMs)
		if batch != nil {
			m.BatchNumber = *batch
		}
		m.SalePrice = sale
		m.PurchasePrice = purch
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CreateMovement persiste una anotación del libro.
func (r *MovementRepo) CreateMovement(ctx context.Context, movement *entity.Movement) error {
	query := `
		INSERT INTO movements (id, item_id, item_name, type, quantity, timestamp, batch_number, sale_price, purchase_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.ItemID, movement.ItemName, movement.Type,
		movement.Quantity, movement.Timestamp.UnixMilli(),
		nullable(movement.BatchNumber), movement.SalePrice, movement.PurchasePrice,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Reintento de un insert cuyo ack se perdió: el ID lo genera el
			// cliente, así que la violación de unicidad significa que el
			// movimiento ya quedó confirmado. Tratarlo como éxito hace el
			// replay idempotente.
			return nil
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}
