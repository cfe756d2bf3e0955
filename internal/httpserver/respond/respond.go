// Package respond writes the JSON bodies shared by the handlers and the
// middleware, so every rejection uses the same {"error": "..."} shape.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/logger"
)

// Access errors raised by the HTTP layer itself.
var (
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyRequests = errors.New("too many requests")
)

type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

// StatusFor maps the domain error taxonomy and the access errors onto
// HTTP status codes. Anything unrecognized is a server error.
func StatusFor(err error) int {
	switch {
	case domain.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateRecord):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error renders err as {"error": "..."}. Server errors are logged and
// replaced by a generic message; forbidden requests never learn why.
func Error(w http.ResponseWriter, log logger.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Error("request failed", logger.Error(err))
		msg = http.StatusText(status)
	case http.StatusNotFound:
		msg = "no such resource"
	case http.StatusForbidden:
		msg = ErrForbidden.Error()
	}
	JSON(w, log, status, errorBody{Error: msg})
}
