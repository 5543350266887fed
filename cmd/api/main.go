package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/almacen-ligero/internal/application/ledger"
	"github.com/jhoicas/almacen-ligero/internal/application/usecase"
	"github.com/jhoicas/almacen-ligero/internal/domain/inventory"
	"github.com/jhoicas/almacen-ligero/internal/domain/repository"
	"github.com/jhoicas/almacen-ligero/internal/infrastructure/localstore"
	"github.com/jhoicas/almacen-ligero/internal/infrastructure/pdf"
	"github.com/jhoicas/almacen-ligero/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/almacen-ligero/internal/interfaces/http"
	"github.com/jhoicas/almacen-ligero/pkg/config"
	"github.com/jhoicas/almacen-ligero/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Selección de almacenamiento por validez de configuración: con base de
	// datos remota configurada y alcanzable se usa PostgreSQL; en cualquier
	// otro caso, el respaldo local en archivos JSON. El resto de la
	// aplicación solo conoce los puertos.
	var (
		itemRepo repository.ItemRepository
		movRepo  repository.MovementRepository
	)
	if cfg.DB.Configured() {
		pool, err := postgres.NewPool(ctx, cfg.DB.ConnectionString())
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL no disponible; usando respaldo local")
		} else {
			defer pool.Close()
			itemRepo = postgres.NewItemRepository(pool)
			movRepo = postgres.NewMovementRepository(pool)
			log.Info().Msg("almacenamiento remoto PostgreSQL activo")
		}
	}
	if itemRepo == nil {
		store, err := localstore.New(cfg.Store.DataDir)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar respaldo local")
		}
		itemRepo = store
		movRepo = store
		log.Info().Str("dir", cfg.Store.DataDir).Msg("respaldo local en archivos activo")
	}

	// Carga única al arranque: las dos colecciones viven en memoria durante
	// toda la sesión.
	items, err := itemRepo.FetchItems(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	movements, err := movRepo.FetchMovements(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar libro de movimientos")
	}
	state := inventory.NewState(items, movements)
	log.Info().Int("items", len(items)).Int("movements", len(movements)).Msg("estado cargado")

	itemUC := usecase.NewItemUseCase(state, itemRepo, log)
	registerMovementUC := ledger.NewRegisterMovementUseCase(state, itemRepo, movRepo, log)
	pdfGenerator := pdf.NewMarotoReportGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén Ligero API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		State:            state,
		ItemUC:           itemUC,
		RegisterMovement: registerMovementUC,
		ReportPDF:        pdfGenerator,
		AppName:          cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
