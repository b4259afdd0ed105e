package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/inverosa/stock-ledger/internal/application/dto"
	"github.com/inverosa/stock-ledger/internal/application/reports"
	"github.com/inverosa/stock-ledger/internal/application/rotation"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

// ReportHandler maneja los reportes de rotación y stock.
type ReportHandler struct {
	engine *rotation.Engine
	facade *reports.Facade
}

// NewReportHandler construye el handler.
func NewReportHandler(engine *rotation.Engine, facade *reports.Facade) *ReportHandler {
	return &ReportHandler{engine: engine, facade: facade}
}

// Rotation reporte completo de rotación para la ventana pedida
// (window_days; por defecto la configurada).
func (h *ReportHandler) Rotation(c *fiber.Ctx) error {
	windowDays := c.QueryInt("window_days")
	if windowDays < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "window_days inválido"})
	}
	report, err := h.engine.Compute(c.Context(), windowDays, rotation.Filter{
		CategoryID: c.Query("category_id"),
		CountryIDs: splitIDs(c.Query("country_ids")),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(report)
}

// StockByCategory stock actual agrupado por categoría.
func (h *ReportHandler) StockByCategory(c *fiber.Ctx) error {
	out, err := h.facade.StockByCategory(c.Context(), repository.ProductFilters{
		CategoryID: c.Query("category_id"),
		CountryIDs: splitIDs(c.Query("country_ids")),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(out), "categories": out})
}

// StockByCountry stock actual agrupado por país.
func (h *ReportHandler) StockByCountry(c *fiber.Ctx) error {
	out, err := h.facade.StockByCountry(c.Context(), splitIDs(c.Query("country_ids")))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(out), "countries": out})
}

// MovementsTimeline actividad agregada por período (group_by: day, week, month).
func (h *ReportHandler) MovementsTimeline(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido"})
	}
	to, err := parseTimeQuery(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido"})
	}
	buckets, err := h.facade.MovementsTimeline(c.Context(), c.Query("group_by"), from, to)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"total": len(buckets), "timeline": buckets})
}

// MovementsSummary totales por tipo y diferencia neta en un rango.
func (h *ReportHandler) MovementsSummary(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido"})
	}
	to, err := parseTimeQuery(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido"})
	}
	summary, err := h.facade.MovementsSummary(c.Context(), from, to, c.Query("category_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(summary)
}

// LowStock productos con stock en o por debajo del umbral.
func (h *ReportHandler) LowStock(c *fiber.Ctx) error {
	threshold := decimal.Zero
	if raw := c.Query("threshold"); raw != "" {
		var err error
		if threshold, err = decimal.NewFromString(raw); err != nil || threshold.IsNegative() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "threshold inválido"})
		}
	}
	alerts, err := h.facade.LowStockAlerts(c.Context(), threshold, splitIDs(c.Query("country_ids")))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(alerts), "alerts": alerts})
}

// splitIDs parte una lista separada por comas, ignorando entradas vacías.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
