package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/domain"
	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
	"github.com/jhoicas/almacen-ligero/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación del puerto ItemRepository sobre la tabla items.
//
// Esquema: id, name, category, quantity, price, description, image_url,
// created_at, updated_at (BIGINT epoch ms), batch_number (NULL = sin lote).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de persistencia para items.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// FetchItems devuelve el catálogo completo, más reciente primero.
func (r *ItemRepo) FetchItems(ctx context.Context) ([]*entity.Item, error) {
	query := `
		SELECT id, name, category, quantity, price, description, image_url, created_at, updated_at, batch_number
		FROM items ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	defer rows.Close()

	var list []*entity.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// CreateItem persiste un item nuevo.
func (r *ItemRepo) CreateItem(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (id, name, category, quantity, price, description, image_url, created_at, updated_at, batch_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.Category, item.Quantity, item.Price,
		item.Description, nullable(item.ImageURL),
		item.CreatedAt.UnixMilli(), item.UpdatedAt.UnixMilli(),
		nullable(item.BatchNumber),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// ID generado por el cliente: el conflicto solo puede ser el
			// replay de un insert ya confirmado.
			return nil
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// UpdateItem reemplaza el registro completo, con clave en el ID.
func (r *ItemRepo) UpdateItem(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET name = $2, category = $3, quantity = $4, price = $5, description = $6,
			image_url = $7, updated_at = $8, batch_number = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.Category, item.Quantity, item.Price,
		item.Description, nullable(item.ImageURL), item.UpdatedAt.UnixMilli(),
		nullable(item.BatchNumber),
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteItem elimina un item por ID. No hay cascada: los movimientos quedan.
func (r *ItemRepo) DeleteItem(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// scanItem mapea una fila de items a la entidad (coerción ms epoch -> time).
func scanItem(row pgx.Row) (*entity.Item, error) {
	var (
		it                   entity.Item
		price                decimal.Decimal
		createdMs, updatedMs int64
		imageURL, batch      *string
	)
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Quantity, &price,
		&it.Description, &imageURL, &createdMs, &updatedMs, &batch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	it.Price = price
	it.CreatedAt = time.UnixMilli(createdMs)
	it.UpdatedAt = time.UnixMilli(updatedMs)
	if imageURL != nil {
		it.ImageURL = *imageURL
	}
	if batch != nil {
		it.BatchNumber = *batch
	}
	return &it, nil
}

// nullable convierte "" a NULL para columnas de texto opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
