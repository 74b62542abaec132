package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Errores base. Los stores y servicios devuelven estos (o los envuelven con %w)
// para que los handlers decidan el status HTTP con errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("concurrency conflict")
	ErrInvalidState = errors.New("invalid state")
)

// ValidationError describe qué campo falló y con qué valor, para que el caller pueda corregir.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation error: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid arma un *ValidationError.
func Invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NotFound envuelve ErrNotFound con el tipo de entidad e id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Conflict envuelve ErrConflict con el id afectado.
func Conflict(kind, id string) error {
	return fmt.Errorf("%s %q modified concurrently, retry: %w", kind, id, ErrConflict)
}

// HTTPStatus traduce un error de dominio a status HTTP.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage evita filtrar errores internos (driver, red) al cliente.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
