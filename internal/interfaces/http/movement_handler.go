package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/inverosa/stock-ledger/internal/application/dto"
	"github.com/inverosa/stock-ledger/internal/application/ledger"
	"github.com/inverosa/stock-ledger/internal/domain/repository"
)

// MovementHandler maneja las peticiones HTTP del ledger de movimientos.
type MovementHandler struct {
	svc *ledger.Service
}

// NewMovementHandler construye el handler.
func NewMovementHandler(svc *ledger.Service) *MovementHandler {
	return &MovementHandler{svc: svc}
}

// Record registra un movimiento de stock y devuelve el movimiento anotado
// con el nuevo saldo.
func (h *MovementHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ProductID == "" || in.Kind == "" || in.Responsible == "" || in.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "product_id, kind, responsible y reason son obligatorios",
		})
	}

	m, balance, err := h.svc.Record(c.Context(), ledger.RecordInput{
		ProductID:   in.ProductID,
		Kind:        in.Kind,
		Amount:      in.Quantity,
		Responsible: in.Responsible,
		Reason:      in.Reason,
		Notes:       in.Notes,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordMovementResponse{
		Movement:   dto.NewMovementDTO(m),
		NewBalance: balance,
	})
}

// List devuelve movimientos filtrados, más recientes primero.
func (h *MovementHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	page.DefaultPage()

	filters := repository.MovementFilters{
		ProductID:   c.Query("product_id"),
		Kind:        c.Query("kind"),
		Responsible: c.Query("responsible"),
	}
	var err error
	if filters.From, err = parseTimeQuery(c.Query("from")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido"})
	}
	if filters.To, err = parseTimeQuery(c.Query("to")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido"})
	}

	movements, err := h.svc.List(c.Context(), filters, page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.MovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.NewMovementDTO(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// Stats estadísticas globales de movimientos.
func (h *MovementHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.Context())
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(stats)
}

// Kardex historial completo de un producto con su saldo actual.
func (h *MovementHandler) Kardex(c *fiber.Ctx) error {
	kardex, err := h.svc.Kardex(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(kardex)
}

// Balance stock actual cacheado del producto.
func (h *MovementHandler) Balance(c *fiber.Ctx) error {
	balance, err := h.svc.Balance(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": c.Params("id"), "current_stock": balance})
}

// Verify compara el snapshot contra el replay completo sin modificar nada.
func (h *MovementHandler) Verify(c *fiber.Ctx) error {
	if err := h.svc.Verify(c.Context(), c.Params("id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": c.Params("id"), "status": "ok"})
}

// Reconcile reconstruye la proyección del producto desde el ledger y
// desbloquea las escrituras si estaban detenidas por divergencia.
func (h *MovementHandler) Reconcile(c *fiber.Ctx) error {
	snap, err := h.svc.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id":    snap.ProductID,
		"current_stock": snap.CurrentStock,
		"last_sequence": snap.LastSequence,
		"updated_at":    snap.UpdatedAt,
	})
}

// parseTimeQuery acepta RFC3339 o fecha simple YYYY-MM-DD (interpretada UTC).
func parseTimeQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
