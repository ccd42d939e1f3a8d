package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bobpool/internal/adapter/http/dto"
	"github.com/iho/bobpool/internal/domain"
)

// Error codes of ErrorResponse.Error.
const (
	codeValidation  = "validation_error"
	codeNotFound    = "not_found"
	codeConflict    = "conflict"
	codeUnavailable = "store_unavailable"
	codeInternal    = "internal_error"
	codeBadRequest  = "bad_request"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:     code,
		Message:   message,
		Retryable: retryable,
	})
}

// writeDomainError maps err to a status code and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code, retryable := mapDomainError(err)
	writeError(w, status, code, err.Error(), retryable)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) (int, string, bool) {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest, codeValidation, false
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrRestaurantNotFound):
		return http.StatusNotFound, codeNotFound, false
	case errors.Is(err, domain.ErrOperationInFlight),
		errors.Is(err, domain.ErrEditInProgress),
		errors.Is(err, domain.ErrNotEditing):
		return http.StatusConflict, codeConflict, true
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, codeUnavailable, true
	default:
		return http.StatusInternalServerError, codeInternal, false
	}
}

// restaurantID reads the {id} path parameter.
func restaurantID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid restaurant id %q", raw)
	}
	return id, nil
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
