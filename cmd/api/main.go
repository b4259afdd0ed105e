package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/application/ledger"
	"github.com/inverosa/stock-ledger/internal/application/reports"
	"github.com/inverosa/stock-ledger/internal/application/rotation"
	"github.com/inverosa/stock-ledger/internal/domain"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
	"github.com/inverosa/stock-ledger/internal/infrastructure/memory"
	"github.com/inverosa/stock-ledger/internal/infrastructure/postgres"
	"github.com/inverosa/stock-ledger/internal/infrastructure/sqlite"
	httpRouter "github.com/inverosa/stock-ledger/internal/interfaces/http"
	"github.com/inverosa/stock-ledger/pkg/config"
	"github.com/inverosa/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		ledgerRepo   repository.LedgerRepository
		snapshotRepo repository.SnapshotRepository
		catalogRepo  repository.CatalogRepository
		txRunner     ledger.TxRunner
	)

	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Store.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("esquema del ledger")
		}
		ledgerRepo = postgres.NewLedgerRepository(pool)
		snapshotRepo = postgres.NewSnapshotRepository(pool)
		catalogRepo = postgres.NewCatalogRepository(pool)
		txRunner = postgres.NewTxRunner(pool)

	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("abrir SQLite")
		}
		defer store.Close()
		ledgerRepo = sqlite.NewLedgerRepository(store.DB())
		snapshotRepo = sqlite.NewSnapshotRepository(store.DB())
		catalogRepo = sqlite.NewCatalogRepository(store.DB())
		txRunner = sqlite.NewTxRunner(store.DB())

	default:
		store := memory.NewStore()
		ledgerRepo = store
		snapshotRepo = store
		catalogRepo = store
		txRunner = memory.NewTxRunner(store)
	}

	clock := domain.SystemClock{}
	projector := ledger.NewProjector(snapshotRepo, ledgerRepo)
	movementSvc := ledger.NewService(txRunner, ledgerRepo, projector, catalogRepo, clock)

	rotationEngine := rotation.NewEngine(ledgerRepo, projector, catalogRepo, clock, rotation.Config{
		FastMovingThreshold: decimal.NewFromFloat(cfg.Rotation.FastMovingThreshold),
		AgeBreakpoints:      [3]int{cfg.Rotation.AgeBreak1, cfg.Rotation.AgeBreak2, cfg.Rotation.AgeBreak3},
		DefaultWindowDays:   cfg.Rotation.WindowDays,
	})
	reportsFacade := reports.NewFacade(catalogRepo, projector, ledgerRepo, reports.Config{
		LowStockThreshold: decimal.NewFromFloat(cfg.Alerts.LowStockThreshold),
		CriticalThreshold: decimal.NewFromFloat(cfg.Alerts.CriticalThreshold),
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MovementSvc:    movementSvc,
		RotationEngine: rotationEngine,
		ReportsFacade:  reportsFacade,
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
