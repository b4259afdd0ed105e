package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inverosa/stock-ledger/internal/application/ledger"
	"github.com/inverosa/stock-ledger/internal/application/reports"
	"github.com/inverosa/stock-ledger/internal/application/rotation"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovementSvc    *ledger.Service
	RotationEngine *rotation.Engine
	ReportsFacade  *reports.Facade
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Ledger de movimientos
	movements := api.Group("/movements")
	movementHandler := NewMovementHandler(deps.MovementSvc)
	movements.Post("/", movementHandler.Record)
	movements.Get("/", movementHandler.List)
	movements.Get("/stats", movementHandler.Stats)

	// Consultas por producto
	products := api.Group("/products")
	products.Get("/:id/kardex", movementHandler.Kardex)
	products.Get("/:id/balance", movementHandler.Balance)
	products.Post("/:id/verify", movementHandler.Verify)
	products.Post("/:id/reconcile", movementHandler.Reconcile)

	// Reportes
	reportsGroup := api.Group("/reports")
	reportHandler := NewReportHandler(deps.RotationEngine, deps.ReportsFacade)
	reportsGroup.Get("/rotation", reportHandler.Rotation)
	reportsGroup.Get("/stock-by-category", reportHandler.StockByCategory)
	reportsGroup.Get("/stock-by-country", reportHandler.StockByCountry)
	reportsGroup.Get("/movements-timeline", reportHandler.MovementsTimeline)
	reportsGroup.Get("/movements-summary", reportHandler.MovementsSummary)
	reportsGroup.Get("/low-stock", reportHandler.LowStock)
}
