package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists  = errors.New("el email ya está registrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintentos agotados")
	ErrProjectionDrift     = errors.New("el inventario no coincide con los movimientos")
)

// ValidationError describe un campo rechazado junto con el valor recibido.
// errors.Is(err, ErrInvalidInput) es verdadero para cualquier ValidationError.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s inválido (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError indica que aplicar Delta dejaría el stock del par bodega/producto en negativo.
type InsufficientStockError struct {
	WarehouseID string
	ProductID   string
	Current     int64
	Delta       int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en bodega %s para producto %s: actual %d, cambio %d",
		e.WarehouseID, e.ProductID, e.Current, e.Delta)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
