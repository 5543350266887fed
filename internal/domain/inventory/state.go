// Package inventory contiene el estado de aplicación del inventario: las dos
// colecciones que viven en memoria durante toda la sesión (catálogo de items
// y libro de movimientos). No hay estado global: el State se construye en el
// arranque con lo que devuelve el almacenamiento y se inyecta a los casos de
// uso que lo necesitan.
package inventory

import (
	"sync"

	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
)

// State agrupa el Item Store y el Movement Log en memoria.
//
// Las mutaciones son copy-on-write: nunca se modifica un *entity.Item ya
// publicado, se reemplaza el puntero completo. Así los snapshots que consumen
// los agregadores quedan estables aunque llegue una mutación después.
//
// El RWMutex existe porque Fiber atiende peticiones en paralelo aunque la
// sesión sea lógicamente de un solo usuario.
type State struct {
	mu        sync.RWMutex
	items     []*entity.Item     // orden de inserción: más reciente primero
	movements []*entity.Movement // más reciente primero, igual que el contrato de almacenamiento
}

// NewState construye el estado con las colecciones cargadas del almacenamiento.
func NewState(items []*entity.Item, movements []*entity.Movement) *State {
	s := &State{
		items:     make([]*entity.Item, len(items)),
		movements: make([]*entity.Movement, len(movements)),
	}
	copy(s.items, items)
	copy(s.movements, movements)
	return s
}

// Items devuelve un snapshot del catálogo (copia del slice, punteros compartidos).
func (s *State) Items() []*entity.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Movements devuelve un snapshot del libro de movimientos, más reciente primero.
func (s *State) Movements() []*entity.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Movement, len(s.movements))
	copy(out, s.movements)
	return out
}

// ItemByID busca un item por su ID. Devuelve nil si no existe.
func (s *State) ItemByID(id string) *entity.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// ItemByNameAndBatch busca un item con el mismo nombre Y el mismo lote.
// Es la consulta que decide si una entrada con lote nuevo se fusiona en una
// fila existente o clona una nueva.
func (s *State) ItemByNameAndBatch(name, batchNumber string) *entity.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.Name == name && it.BatchNumber == batchNumber {
			return it
		}
	}
	return nil
}

// PrependItem inserta un item al frente del catálogo (semántica de "unshift").
func (s *State) PrependItem(item *entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]*entity.Item{item}, s.items...)
}

// ReplaceItem sustituye el item con el mismo ID y devuelve el anterior para
// poder revertir la escritura optimista si la persistencia falla.
func (s *State) ReplaceItem(item *entity.Item) (prev *entity.Item, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == item.ID {
			s.items[i] = item
			return it, true
		}
	}
	return nil, false
}

// RemoveItem elimina el item por ID y devuelve el eliminado (nil si no estaba).
func (s *State) RemoveItem(id string) *entity.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return it
		}
	}
	return nil
}

// PrependMovement añade un movimiento al frente del libro.
func (s *State) PrependMovement(m *entity.Movement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append([]*entity.Movement{m}, s.movements...)
}

// DropMovement retira un movimiento por ID. Solo lo usa la reversión de una
// escritura optimista que nunca llegó a persistirse; el libro persistido
// sigue siendo append-only.
func (s *State) DropMovement(id string) *entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.movements {
		if m.ID == id {
			s.movements = append(s.movements[:i], s.movements[i+1:]...)
			return m
		}
	}
	return nil
}
