package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/schoolbus/backend/internal/domain"
)

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON writes v as a JSON body with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError maps a service error onto the right HTTP status and body.
// The notFoundMsg names what was being looked up (e.g. "trip not found") —
// the handler is the layer that knows that.
func respondError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "not_found", Message: notFoundMsg},
		})
	case errors.Is(err, domain.ErrValidation):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)},
		})
	case errors.Is(err, domain.ErrConflict):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{Code: "conflicting_schedule", Message: unwrapMessage(err)},
		})
	default:
		slog.Error("internal error", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "internal_error", Message: "internal server error"},
		})
	}
}

// respondBadRequest rejects a request before it reaches the service layer
// (e.g. missing or malformed body, bad UUID in the path).
func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error: ErrorDetail{Code: "validation_error", Message: message},
	})
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Create: repo.TripRepo.Create: validation error:
// session must be morning or afternoon" → "session must be morning or afternoon".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	// Drop "layer.Type.Method: " style prefixes — segments without spaces.
	for {
		i := strings.Index(msg, ": ")
		if i < 0 || strings.Contains(msg[:i], " ") {
			break
		}
		msg = msg[i+2:]
	}

	for _, sentinel := range []string{"validation error: ", "conflicting schedule: "} {
		if rest, ok := strings.CutPrefix(msg, sentinel); ok {
			return rest
		}
	}
	return msg
}
