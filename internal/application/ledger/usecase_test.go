package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ligero/internal/application/ledger"
	"github.com/jhoicas/almacen-ligero/internal/domain"
	"github.com/jhoicas/almacen-ligero/internal/domain/entity"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
	"github.com/jhoicas/almacen-ligero/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de persistencia
//
// fakeStore implementa los dos puertos en memoria con inyección de fallos:
// failXxx > 0 hace fallar los próximos N intentos (transitorio), -1 falla
// siempre (definitivo).
// ──────────────────────────────────────────────────────────────────────────────

var errStoreDown = fmt.Errorf("store caído")

type fakeStore struct {
	items     map[string]*entity.Item
	movements []*entity.Movement

	failCreateItem     int
	failUpdateItem     int
	failCreateMovement int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]*entity.Item{}}
}

func shouldFail(counter *int) bool {
	if *counter == 0 {
		return false
	}
	if *counter > 0 {
		*counter--
	}
	return true
}

func (f *fakeStore) FetchItems(context.Context) ([]*entity.Item, error) { return nil, nil }

func (f *fakeStore) CreateItem(_ context.Context, item *entity.Item) error {
	if shouldFail(&f.failCreateItem) {
		return errStoreDown
	}
	f.items[item.ID] = item.Clone()
	return nil
}

func (f *fakeStore) UpdateItem(_ context.Context, item *entity.Item) error {
	if shouldFail(&f.failUpdateItem) {
		return errStoreDown
	}
	f.items[item.ID] = item.Clone()
	return nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func (f *fakeStore) FetchMovements(context.Context) ([]*entity.Movement, error) { return nil, nil }

func (f *fakeStore) CreateMovement(_ context.Context, m *entity.Movement) error {
	if shouldFail(&f.failCreateMovement) {
		return errStoreDown
	}
	f.movements = append(f.movements, m)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2025, 6, 15, 18, 30, 0, 0, time.Local)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testItem(id, name, batch string, qty int64) *entity.Item {
	return &entity.Item{
		ID:          id,
		Name:        name,
		Category:    "Dulcería",
		Quantity:    qty,
		Price:       dec("10"),
		BatchNumber: batch,
		CreatedAt:   fixedNow.Add(-24 * time.Hour),
		UpdatedAt:   fixedNow.Add(-24 * time.Hour),
	}
}

// newUC construye el procesador sobre el estado y el fake, con reloj fijo,
// IDs secuenciales y backoff cero para que los tests no duerman.
func newUC(state *inventory.State, store *fakeStore) *ledger.RegisterMovementUseCase {
	uc := ledger.NewRegisterMovementUseCase(state, store, store, logger.Nop())
	uc.WriteBackoff = 0
	uc.Now = func() time.Time { return fixedNow }
	seq := 0
	uc.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return uc
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas y salidas básicas
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_EntradaSumaStock(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	store := newFakeStore()
	uc := newUC(state, store)

	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:        "a",
		Type:          entity.MovementTypeEntry,
		Quantity:      5,
		PurchasePrice: decPtr("3.50"),
	})
	require.NoError(t, err)

	assert.EqualValues(t, 15, receipt.Item.Quantity, "la entrada debe sumar al stock")
	assert.Equal(t, fixedNow, receipt.Item.UpdatedAt, "updatedAt debe refrescarse")
	assert.False(t, receipt.ClonedItem)
	assert.False(t, receipt.Clamped)

	m := receipt.Movement
	assert.Equal(t, entity.MovementTypeEntry, m.Type)
	assert.EqualValues(t, 5, m.Quantity, "el libro registra la cantidad solicitada")
	assert.Equal(t, "a", m.ItemID)
	assert.Equal(t, "Paleta", m.ItemName)
	require.NotNil(t, m.PurchasePrice)
	assert.True(t, m.PurchasePrice.Equal(dec("3.50")))
	assert.Nil(t, m.SalePrice, "una entrada no lleva precio de venta")

	// Persistido y en memoria
	require.Len(t, store.movements, 1)
	assert.EqualValues(t, 15, store.items["a"].Quantity)
	require.Len(t, state.Movements(), 1)
}

func TestRegister_SalidaRestaStock(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	store := newFakeStore()
	uc := newUC(state, store)

	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:    "a",
		Type:      entity.MovementTypeExit,
		Quantity:  4,
		SalePrice: decPtr("12"),
	})
	require.NoError(t, err)

	assert.EqualValues(t, 6, receipt.Item.Quantity)
	assert.False(t, receipt.Clamped)
	require.NotNil(t, receipt.Movement.SalePrice)
	assert.True(t, receipt.Movement.SalePrice.Equal(dec("12")))
	assert.Nil(t, receipt.Movement.PurchasePrice)
}

func TestRegister_SalidaRecortaACero(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 5)}, nil)
	store := newFakeStore()
	uc := newUC(state, store)

	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeExit,
		Quantity: 100,
	})
	require.NoError(t, err, "una salida mayor al stock no es error")

	assert.EqualValues(t, 0, receipt.Item.Quantity, "la cantidad se recorta a cero, nunca negativa")
	assert.True(t, receipt.Clamped)
	assert.EqualValues(t, 100, receipt.Movement.Quantity, "el libro registra la cantidad solicitada completa")
}

func TestRegister_CantidadInvalida(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	store := newFakeStore()
	uc := newUC(state, store)

	for _, qty := range []int64{0, -3} {
		_, err := uc.Register(context.Background(), ledger.MovementInput{
			ItemID:   "a",
			Type:     entity.MovementTypeEntry,
			Quantity: qty,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	// Ninguna mutación, ni en memoria ni persistida
	assert.EqualValues(t, 10, state.ItemByID("a").Quantity)
	assert.Empty(t, state.Movements())
	assert.Empty(t, store.movements)
}

func TestRegister_TipoInvalido(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	uc := newUC(state, newFakeStore())

	_, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     "transfer",
		Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_ItemInexistente(t *testing.T) {
	state := inventory.NewState(nil, nil)
	uc := newUC(state, newFakeStore())

	_, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "no-existe",
		Type:     entity.MovementTypeEntry,
		Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clonado por lote
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_ClonPorLoteNuevo(t *testing.T) {
	original := testItem("a", "Paleta", "X", 10)
	state := inventory.NewState([]*entity.Item{original}, nil)
	store := newFakeStore()
	store.items["a"] = original.Clone()
	uc := newUC(state, store)

	// Entrada de 5 con lote nuevo "Y": debe clonar una fila
	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:      "a",
		Type:        entity.MovementTypeEntry,
		Quantity:    5,
		BatchNumber: "Y",
	})
	require.NoError(t, err)
	require.True(t, receipt.ClonedItem)

	cloneID := receipt.Item.ID
	assert.NotEqual(t, "a", cloneID, "el clon tiene ID propio")
	assert.Equal(t, "Paleta", receipt.Item.Name)
	assert.Equal(t, "Y", receipt.Item.BatchNumber)
	assert.EqualValues(t, 5, receipt.Item.Quantity)
	assert.Equal(t, fixedNow, receipt.Item.CreatedAt, "el clon lleva timestamps frescos")
	assert.Equal(t, "Y", receipt.Movement.BatchNumber)

	// El item original queda intacto
	assert.EqualValues(t, 10, state.ItemByID("a").Quantity)
	assert.Equal(t, "X", state.ItemByID("a").BatchNumber)
	assert.Len(t, state.Items(), 2)
	assert.NotNil(t, store.items[cloneID], "el clon se persistió antes del update de cantidad")

	// Segunda entrada de 3 al mismo lote "Y": se fusiona en el clon, no hay
	// tercera fila
	receipt2, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:      "a",
		Type:        entity.MovementTypeEntry,
		Quantity:    3,
		BatchNumber: "Y",
	})
	require.NoError(t, err)
	assert.False(t, receipt2.ClonedItem)
	assert.Equal(t, cloneID, receipt2.Item.ID, "debe redirigir al item del lote existente")
	assert.EqualValues(t, 8, receipt2.Item.Quantity)
	assert.Len(t, state.Items(), 2, "no debe aparecer una tercera fila")
}

func TestRegister_LoteIgualNoClona(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "X", 10)}, nil)
	uc := newUC(state, newFakeStore())

	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:      "a",
		Type:        entity.MovementTypeEntry,
		Quantity:    2,
		BatchNumber: "X",
	})
	require.NoError(t, err)
	assert.False(t, receipt.ClonedItem)
	assert.Equal(t, "a", receipt.Item.ID)
	assert.EqualValues(t, 12, receipt.Item.Quantity)
}

func TestRegister_LoteHeredadoEnSalida(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "X", 10)}, nil)
	uc := newUC(state, newFakeStore())

	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeExit,
		Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "X", receipt.Movement.BatchNumber,
		"sin lote en la petición, el asiento hereda el lote del item destino")
}

// ──────────────────────────────────────────────────────────────────────────────
// Conversión de bolsas
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_ConversionBolsas(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Gomitas", "", 0)}, nil)
	uc := newUC(state, newFakeStore())

	// 4 bolsas × 50 piezas a $100 por bolsa
	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeEntry,
		Quantity: 4,
		Bags:     &ledger.BagInput{PiecesPerBag: 50, BagCost: decPtr("100")},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 200, receipt.Movement.Quantity, "el libro registra piezas, nunca bolsas")
	assert.EqualValues(t, 200, receipt.Item.Quantity)
	require.NotNil(t, receipt.Movement.PurchasePrice)
	assert.True(t, receipt.Movement.PurchasePrice.Equal(dec("2")),
		"costo unitario = costo de bolsa / piezas por bolsa")
}

func TestRegister_BolsasSinPiezasEsInvalido(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Gomitas", "", 0)}, nil)
	uc := newUC(state, newFakeStore())

	_, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeEntry,
		Quantity: 4,
		Bags:     &ledger.BagInput{PiecesPerBag: 0},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_BolsasEnSalidaEsInvalido(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Gomitas", "", 50)}, nil)
	uc := newUC(state, newFakeStore())

	_, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeExit,
		Quantity: 1,
		Bags:     &ledger.BagInput{PiecesPerBag: 50},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_BolsasSinCostoNoInventaPrecio(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Gomitas", "", 0)}, nil)
	uc := newUC(state, newFakeStore())

	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeEntry,
		Quantity: 2,
		Bags:     &ledger.BagInput{PiecesPerBag: 10},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 20, receipt.Movement.Quantity)
	assert.Nil(t, receipt.Movement.PurchasePrice, "sin costo de bolsa no se estima precio de compra")
}

// ──────────────────────────────────────────────────────────────────────────────
// Timestamps
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_FechaRetroactiva(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 0)}, nil)
	uc := newUC(state, newFakeStore())

	entryDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:    "a",
		Type:      entity.MovementTypeEntry,
		Quantity:  1,
		EntryDate: &entryDate,
	})
	require.NoError(t, err)

	want := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	assert.Equal(t, want, receipt.Movement.Timestamp,
		"la entrada retroactiva se anota a las 12:00 del día indicado")
}

func TestRegister_SalidaIgnoraFechaRetroactiva(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	uc := newUC(state, newFakeStore())

	entryDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:    "a",
		Type:      entity.MovementTypeExit,
		Quantity:  1,
		EntryDate: &entryDate,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, receipt.Movement.Timestamp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escritura en dos fases: reintentos y reversión
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_ReintentaFalloTransitorio(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	store := newFakeStore()
	store.failUpdateItem = 1 // falla una vez, luego éxito
	uc := newUC(state, store)

	receipt, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeEntry,
		Quantity: 5,
	})
	require.NoError(t, err, "un fallo transitorio debe absorberse con reintento")
	assert.EqualValues(t, 15, receipt.Item.Quantity)
}

func TestRegister_RevierteSiFallaUpdate(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	store := newFakeStore()
	store.failUpdateItem = -1 // siempre falla
	uc := newUC(state, store)

	_, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeEntry,
		Quantity: 5,
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	assert.EqualValues(t, 10, state.ItemByID("a").Quantity, "la cantidad optimista debe revertirse")
	assert.Empty(t, state.Movements(), "no debe quedar asiento sin cantidad aplicada")
}

func TestRegister_RevierteSiFallaMovimiento(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 10)}, nil)
	store := newFakeStore()
	store.failCreateMovement = -1
	uc := newUC(state, store)

	_, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:   "a",
		Type:     entity.MovementTypeExit,
		Quantity: 3,
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	// Las dos colecciones vuelven a su estado previo: cantidad sin cambiar y
	// libro sin asiento (nunca cantidad cambiada sin asiento).
	assert.EqualValues(t, 10, state.ItemByID("a").Quantity)
	assert.Empty(t, state.Movements())
}

func TestRegister_RevierteSiFallaClon(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "X", 10)}, nil)
	store := newFakeStore()
	store.failCreateItem = -1
	uc := newUC(state, store)

	_, err := uc.Register(context.Background(), ledger.MovementInput{
		ItemID:      "a",
		Type:        entity.MovementTypeEntry,
		Quantity:    5,
		BatchNumber: "Y",
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	assert.Len(t, state.Items(), 1, "el clon no persistido debe retirarse del catálogo")
	assert.EqualValues(t, 10, state.ItemByID("a").Quantity)
	assert.Empty(t, state.Movements())
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedad: secuencia de movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_SecuenciaNuncaNegativa(t *testing.T) {
	state := inventory.NewState([]*entity.Item{testItem("a", "Paleta", "", 3)}, nil)
	uc := newUC(state, newFakeStore())

	steps := []struct {
		typ string
		qty int64
	}{
		{entity.MovementTypeEntry, 10}, // 13
		{entity.MovementTypeExit, 5},   // 8
		{entity.MovementTypeExit, 20},  // 0 (recorte)
		{entity.MovementTypeEntry, 7},  // 7
		{entity.MovementTypeExit, 2},   // 5
	}
	for _, s := range steps {
		_, err := uc.Register(context.Background(), ledger.MovementInput{
			ItemID:   "a",
			Type:     s.typ,
			Quantity: s.qty,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, state.ItemByID("a").Quantity, int64(0),
			"la cantidad nunca es negativa en ningún prefijo de la secuencia")
	}

	assert.EqualValues(t, 5, state.ItemByID("a").Quantity)
	assert.Len(t, state.Movements(), len(steps), "cada movimiento produce exactamente un asiento")
}
