package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ligero/internal/application/ledger"
	"github.com/jhoicas/almacen-ligero/internal/application/report"
	"github.com/jhoicas/almacen-ligero/internal/application/usecase"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
	"github.com/jhoicas/almacen-ligero/internal/infrastructure/localstore"
	apihttp "github.com/jhoicas/almacen-ligero/internal/interfaces/http"
	"github.com/jhoicas/almacen-ligero/pkg/logger"
)

type stubPDF struct{}

func (stubPDF) GenerateMonthlyReport(string, []report.MonthlyBucket, []report.ProductRow) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

// newApp levanta la API completa sobre un store de archivos temporal, igual
// que el arranque real pero sin red ni PostgreSQL.
func newApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)

	state := inventory.NewState(nil, nil)
	log := logger.Nop()

	itemUC := usecase.NewItemUseCase(state, store, log)
	itemUC.WriteBackoff = 0
	movementUC := ledger.NewRegisterMovementUseCase(state, store, store, log)
	movementUC.WriteBackoff = 0

	app := fiber.New()
	apihttp.Router(app, apihttp.RouterDeps{
		State:            state,
		ItemUC:           itemUC,
		RegisterMovement: movementUC,
		ReportPDF:        stubPDF{},
		AppName:          "Almacén Ligero",
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*nethttp.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp, decoded
}

func createItem(t *testing.T, app *fiber.App, name string, qty int64, price string) string {
	t.Helper()
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/items/", map[string]any{
		"name":     name,
		"category": "Dulcería",
		"quantity": qty,
		"price":    price,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestAPI_FlujoCompletoDeMovimientos(t *testing.T) {
	app := newApp(t)
	id := createItem(t, app, "Paleta", 10, "3")

	// Entrada de 5
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id":  id,
		"type":     "entry",
		"quantity": 5,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	itemBody := body["item"].(map[string]any)
	assert.EqualValues(t, 15, itemBody["quantity"])
	assert.Equal(t, false, body["clamped"])

	// Salida de 100: recorta a cero, responde 201
	resp, body = doJSON(t, app, fiber.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id":    id,
		"type":       "exit",
		"quantity":   100,
		"sale_price": "4",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	itemBody = body["item"].(map[string]any)
	assert.EqualValues(t, 0, itemBody["quantity"])
	assert.Equal(t, true, body["clamped"])
	movementBody := body["movement"].(map[string]any)
	assert.EqualValues(t, 100, movementBody["quantity"], "el asiento conserva la cantidad solicitada")

	// Historial: más reciente primero
	req := httptest.NewRequest(fiber.MethodGet, "/api/inventory/movements", nil)
	listResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	var movements []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&movements))
	require.Len(t, movements, 2)
	assert.Equal(t, "exit", movements[0]["type"])
	assert.Equal(t, "entry", movements[1]["type"])
}

func TestAPI_MovimientoInvalidoDevuelve400(t *testing.T) {
	app := newApp(t)
	id := createItem(t, app, "Paleta", 10, "3")

	for _, body := range []map[string]any{
		{"item_id": id, "type": "entry", "quantity": 0},
		{"item_id": id, "type": "transfer", "quantity": 1},
		{"type": "entry", "quantity": 1},
	} {
		resp, decoded := doJSON(t, app, fiber.MethodPost, "/api/inventory/movements", body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, decoded["code"])
	}
}

func TestAPI_MovimientoSobreItemInexistenteDevuelve404(t *testing.T) {
	app := newApp(t)

	resp, decoded := doJSON(t, app, fiber.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id":  "no-existe",
		"type":     "entry",
		"quantity": 1,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decoded["code"])
}

func TestAPI_CRUDDeItems(t *testing.T) {
	app := newApp(t)
	id := createItem(t, app, "Paleta", 10, "3")

	// GET por ID
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/items/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Paleta", body["name"])

	// PUT
	resp, body = doJSON(t, app, fiber.MethodPut, "/api/items/"+id, map[string]any{
		"name":     "Paleta grande",
		"category": "Dulcería",
		"quantity": 8,
		"price":    "5",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Paleta grande", body["name"])
	assert.EqualValues(t, 8, body["quantity"])

	// DELETE y GET posterior
	resp, body = doJSON(t, app, fiber.MethodDelete, "/api/items/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "producto eliminado", body["message"])
	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/items/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAPI_DashboardYReporteMensual(t *testing.T) {
	app := newApp(t)
	id := createItem(t, app, "Paleta", 10, "3")

	_, _ = doJSON(t, app, fiber.MethodPost, "/api/inventory/movements", map[string]any{
		"item_id":    id,
		"type":       "exit",
		"quantity":   2,
		"sale_price": "4",
	})

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 8, body["total_units"])
	assert.Equal(t, true, body["has_sales"])
	assert.NotEmpty(t, body["distribution"])

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/reports/monthly", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["monthly"])
	assert.NotNil(t, body["products"])
}

func TestAPI_ReportePDFDescargable(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/reports/monthly/pdf", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
}
