// Package localstore implementa los puertos de persistencia sobre archivos
// JSON locales. Es el respaldo cuando la configuración de PostgreSQL no es
// válida o el servidor no responde en el arranque: misma semántica que el
// almacenamiento remoto (incluido el orden más-reciente-primero), sin red.
//
// Los registros en disco usan el mismo esquema snake_case del almacenamiento
// remoto, de modo que un items.json se puede importar a la tabla tal cual.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ligero/internal/domain"
	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
	"github.com/jhoicas/almacen-ligero/internal/domain/repository"
)

const (
	itemsFile     = "items.json"
	movementsFile = "movements.json"
)

var (
	_ repository.ItemRepository     = (*Store)(nil)
	_ repository.MovementRepository = (*Store)(nil)
)

// Store persiste las dos colecciones en archivos JSON dentro de un directorio.
// Cada mutación reescribe el archivo completo con write-temp-then-rename para
// que un corte a mitad de escritura nunca deje un archivo corrupto.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New construye el store y se asegura de que el directorio exista.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de datos: %w", err)
	}
	return &Store{dir: dir}, nil
}

// ── Registros en disco (esquema snake_case, timestamps en ms epoch) ──────────

type itemRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
	BatchNumber string          `json:"batch_number,omitempty"`
}

type movementRecord struct {
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

func toItemRecord(it *entity.Item) itemRecord {
	return itemRecord{
		ID:          it.ID,
		Name:        it.Name,
		Category:    it.Category,
		Quantity:    it.Quantity,
		Price:       it.Price,
		Description: it.Description,
		ImageURL:    it.ImageURL,
		CreatedAt:   it.CreatedAt.UnixMilli(),
		UpdatedAt:   it.UpdatedAt.UnixMilli(),
		BatchNumber: it.BatchNumber,
	}
}

func (r itemRecord) toEntity() *entity.Item {
	return &entity.Item{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Quantity:    r.Quantity,
		Price:       r.Price,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		CreatedAt:   time.UnixMilli(r.CreatedAt),
		UpdatedAt:   time.UnixMilli(r.UpdatedAt),
		BatchNumber: r.BatchNumber,
	}
}

// ── ItemRepository ───────────────────────────────────────────────────────────

// FetchItems devuelve el catálogo en el orden guardado (más reciente primero).
func (s *Store) FetchItems(_ context.Context) ([]*entity.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []itemRecord
	if err := s.read(itemsFile, &records); err != nil {
		return nil, err
	}
	items := make([]*entity.Item, 0, len(records))
	for _, r := range records {
		items = append(items, r.toEntity())
	}
	return items, nil
}

// CreateItem inserta al frente, igual que hace la UI con el catálogo.
func (s *Store) CreateItem(_ context.Context, item *entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []itemRecord
	if err := s.read(itemsFile, &records); err != nil {
		return err
	}
	records = append([]itemRecord{toItemRecord(item)}, records...)
	return s.write(itemsFile, records)
}

// UpdateItem reemplaza el registro completo con el mismo ID.
func (s *Store) UpdateItem(_ context.Context, item *entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []itemRecord
	if err := s.read(itemsFile, &records); err != nil {
		return err
	}
	for i, r := range records {
		if r.ID == item.ID {
			records[i] = toItemRecord(item)
			return s.write(itemsFile, records)
		}
	}
	return domain.ErrNotFound
}

// DeleteItem elimina el registro. Los movimientos del item no se tocan.
func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []itemRecord
	if err := s.read(itemsFile, &records); err != nil {
		return err
	}
	for i, r := range records {
		if r.ID == id {
			records = append(records[:i], records[i+1:]...)
			return s.write(itemsFile, records)
		}
	}
	return nil
}

// ── MovementRepository ───────────────────────────────────────────────────────

// FetchMovements devuelve el libro completo, más reciente primero.
func (s *Store) FetchMovements(_ context.Context) ([]*entity.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []movementRecord
	if err := s.read(movementsFile, &records); err != nil {
		return nil, err
	}
	movements := make([]*entity.Movement, 0, len(records))
	for _, r := range records {
		movements = append(movements, &entity.Movement{
			ID:            r.ID,
			ItemID:        r.ItemID,
			ItemName:      r.ItemName,
			Type:          r.Type,
			Quantity:      r.Quantity,
			Timestamp:     time.UnixMilli(r.Timestamp),
			BatchNumber:   r.BatchNumber,
			SalePrice:     r.SalePrice,
			PurchasePrice: r.PurchasePrice,
		})
	}
	return movements, nil
}

// CreateMovement antepone la anotación. Nunca hay update ni delete.
func (s *Store) CreateMovement(_ context.Context, movement *entity.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []movementRecord
	if err := s.read(movementsFile, &records); err != nil {
		return err
	}
	for _, r := range records {
		if r.ID == movement.ID {
			// Replay de un insert ya confirmado: idempotente.
			return nil
		}
	}
	records = append([]movementRecord{{
		ID:            movement.ID,
		ItemID:        movement.ItemID,
		ItemName:      movement.ItemName,
		Type:          movement.Type,
		Quantity:      movement.Quantity,
		Timestamp:     movement.Timestamp.UnixMilli(),
		BatchNumber:   movement.BatchNumber,
		SalePrice:     movement.SalePrice,
		PurchasePrice: movement.PurchasePrice,
	}}, records...)
	return s.write(movementsFile, records)
}

// ── Archivos ─────────────────────────────────────────────────────────────────

// read descarga un archivo JSON en out; archivo ausente equivale a colección vacía.
func (s *Store) read(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("leer %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decodificar %s: %w", name, err)
	}
	return nil
}

// write serializa y reemplaza el archivo de forma atómica (temp + rename).
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("codificar %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renombrar %s: %w", name, err)
	}
	return nil
}
