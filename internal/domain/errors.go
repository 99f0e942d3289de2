package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrValidation    = errors.New("documento inválido")
	ErrStateConflict = errors.New("operación no permitida en el estado actual")
	ErrCertification = errors.New("falla de certificación")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
)

// ValidationError agrupa todos los problemas detectados en una solicitud.
// errors.Is(err, ErrValidation) es verdadero.
type ValidationError struct {
	Problems []string
}

// NewValidationError construye el error con la lista de problemas.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// CertificationError transporta el mensaje del certificador (PAC) tal cual.
// errors.Is(err, ErrCertification) es verdadero.
type CertificationError struct {
	Reason string
	Err    error
}

func (e *CertificationError) Error() string {
	return ErrCertification.Error() + ": " + e.Reason
}

func (e *CertificationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCertification, e.Err}
	}
	return []error{ErrCertification}
}
