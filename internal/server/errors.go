package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/smartapplicant/internal/generation"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/session"
	"github.com/jonathan/smartapplicant/internal/wizard"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrApplicationNotFound is returned for an unknown or foreign archive entry.
var ErrApplicationNotFound = errors.New("application not found")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr  *ErrValidation
		fieldErrs      validator.ValidationErrors
		unsupportedErr *ingestion.UnsupportedFileTypeError
		tooLargeErr    *ingestion.FileTooLargeError
		maxBytesErr    *http.MaxBytesError
		generationErr  *generation.GenerationError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &fieldErrs),
		errors.Is(err, wizard.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.As(err, &unsupportedErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &tooLargeErr), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrNotFound), errors.Is(err, ErrApplicationNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrInvalidTransition), errors.Is(err, wizard.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrNoResume), errors.Is(err, wizard.ErrNoJobDescription),
		errors.Is(err, wizard.ErrNoLetter), errors.Is(err, wizard.ErrNoEmail),
		errors.Is(err, ingestion.ErrContentExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &generationErr), errors.Is(err, ingestion.ErrHTTPRequestFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage returns the text shown to the client for err. Generation
// failures carry a fixed user-facing message; internal errors are hidden.
func ErrorMessage(err error) string {
	var generationErr *generation.GenerationError
	if errors.As(err, &generationErr) {
		return generationErr.Message
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
