package repository

import (
	"context"

	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
// Lo implementan el almacenamiento remoto (PostgreSQL) y el respaldo local
// (archivos JSON); el núcleo solo depende de esta interfaz.
type ItemRepository interface {
	FetchItems(ctx context.Context) ([]*entity.Item, error)
	CreateItem(ctx context.Context, item *entity.Item) error
	// UpdateItem reemplaza el registro completo, con clave en el ID.
	UpdateItem(ctx context.Context, item *entity.Item) error
	DeleteItem(ctx context.Context, id string) error
}
