package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ligero/internal/application/ledger"
	"github.com/jhoicas/almacen-ligero/internal/application/usecase"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	State            *inventory.State
	ItemUC           *usecase.ItemUseCase
	RegisterMovement *ledger.RegisterMovementUseCase
	ReportPDF        ReportPDFGenerator
	AppName          string
}

// Router registra las rutas de la API. Sesión única de usuario: no hay
// autenticación ni middleware de sesión.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Catálogo
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC)
	items.Get("/", itemHandler.List)
	items.Post("/", itemHandler.Create)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", itemHandler.Update)
	items.Delete("/:id", itemHandler.Delete)

	// Movimientos de stock
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.State)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)

	// Dashboard y reportes
	reportHandler := NewReportHandler(deps.State, deps.ReportPDF, deps.AppName)
	api.Get("/dashboard", reportHandler.Dashboard)
	api.Get("/reports/monthly", reportHandler.MonthlyReport)
	api.Get("/reports/monthly/pdf", reportHandler.MonthlyReportPDF)
}
