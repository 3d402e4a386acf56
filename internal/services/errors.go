// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/javajoker/highdeium-backend/internal/utils"
)

// Failure kinds surfaced by the services. Handlers map them to HTTP status
// codes with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrPaymentProvider     = errors.New("payment provider error")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
)

// ValidationError carries field-level details for a rejected input.
type ValidationError struct {
	Fields []utils.ValidationError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError names the missing resource so the boundary can report it.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " " + ErrNotFound.Error() }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// validationFailed converts validator output into a ValidationError.
func validationFailed(err error) error {
	fields := utils.GetValidationErrors(err)
	if len(fields) == 0 {
		fields = []utils.ValidationError{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}
	return &ValidationError{Fields: fields}
}

func invalidField(field, tag, message string) error {
	return &ValidationError{Fields: []utils.ValidationError{{Field: field, Tag: tag, Message: message}}}
}

func forbidden(action string) error {
	return fmt.Errorf("%s: %w", action, ErrForbidden)
}
