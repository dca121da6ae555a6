package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrPreconditionFailed    = errors.New("falta un paso previo")
	ErrInsufficientInventory = errors.New("inventario insuficiente")
)

// InsufficientInventoryError detalla una asignación, venta o devolución que supera lo disponible.
type InsufficientInventoryError struct {
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("inventario insuficiente: se solicitaron %d pero solo hay %d disponibles",
		e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// PreconditionError indica qué paso previo falta (crear tirada, asignar al distribuidor...).
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }

// NotFoundf devuelve ErrNotFound con contexto.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidInputf devuelve ErrInvalidInput con contexto.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Preconditionf construye un PreconditionError con mensaje orientativo.
func Preconditionf(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// IsClientError indica si el error se debe a la entrada del llamador (no a la infraestructura).
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrConflict)
}
