// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// notFound lists domain errors reported as 404.
var notFound = []error{ErrNotFound}

// RegisterNotFound marks domain sentinels that should surface as 404.
func RegisterNotFound(errs ...error) {
	notFound = append(notFound, errs...)
}

func init() {
	RegisterNotFound(shared.ErrPeriodNotFound, shared.ErrJournalNotFound)
}

// StatusFor maps an error to its HTTP status and problem title.
func StatusFor(err error) (int, string) {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound, "Not Found"
		}
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	}
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusBadRequest, "Validation Failed"
	case shared.KindState:
		return http.StatusConflict, "Conflict"
	case shared.KindConfiguration:
		return http.StatusUnprocessableEntity, "Configuration Required"
	}
	return http.StatusInternalServerError, "Internal Error"
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Details of internal errors are never echoed to the client.
func RespondError(w http.ResponseWriter, err error) {
	status, title := StatusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = ""
	}
	Problem(w, status, title, detail)
}
