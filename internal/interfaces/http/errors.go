package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/inverosa/stock-ledger/internal/application/dto"
	"github.com/inverosa/stock-ledger/internal/domain"
)

// writeDomainError traduce errores de dominio a respuestas HTTP. Cualquier
// error no clasificado es un 500 genérico.
func writeDomainError(c *fiber.Ctx, err error) error {
	var invalidQty *domain.InvalidQuantityError
	var insufficient *domain.InsufficientStockError
	var diverged *domain.ProjectionDivergenceError

	switch {
	case errors.As(err, &invalidQty), errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.As(err, &diverged):
		// Las escrituras del producto quedan bloqueadas hasta reconciliar.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PROJECTION_DIVERGED", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
