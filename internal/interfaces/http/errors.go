package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// errInvalidBody el cuerpo no es JSON válido para el DTO esperado.
var errInvalidBody = errors.New("cuerpo inválido")

// respondError traduce errores de dominio a status HTTP + dto.ErrorResponse.
func respondError(c *fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "INTERNAL", "error interno"
	var ise *domain.InsufficientStockError
	switch {
	case errors.Is(err, errInvalidBody):
		status, code, msg = fiber.StatusBadRequest, "INVALID_BODY", err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrDuplicate):
		status, code, msg = fiber.StatusConflict, "DUPLICATE", err.Error()
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		status, code, msg = fiber.StatusConflict, "EMAIL_EXISTS", err.Error()
	case errors.As(err, &ise):
		status, code, msg = fiber.StatusConflict, "INSUFFICIENT_STOCK", ise.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code, msg = fiber.StatusConflict, "INSUFFICIENT_STOCK", err.Error()
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, code, msg = fiber.StatusServiceUnavailable, "CONCURRENCY_CONFLICT", "conflicto de concurrencia, intente de nuevo"
	case errors.Is(err, domain.ErrProjectionDrift):
		status, code, msg = fiber.StatusInternalServerError, "PROJECTION_DRIFT", err.Error()
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas"
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = fiber.StatusForbidden, "FORBIDDEN", "acceso denegado"
	}
	if status >= fiber.StatusInternalServerError {
		// el detalle queda en el log de la petición
		c.Locals(localError, err)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: msg})
}
