package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/navicore/specsvc/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the domain error taxonomy to an HTTP status code, per
// spec.md §7: not-found is 404, state and validation problems are 400,
// conflicts are 409, anything else is an opaque 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSpecNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrInvalidStateForOperation),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrVersionMismatch),
		errors.Is(err, domain.ErrDuplicateSpecName),
		errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("unhandled request error", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
