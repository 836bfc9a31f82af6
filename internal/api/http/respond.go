package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/logger"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain error kinds onto HTTP statuses. Untyped errors are
// internal failures and never leak their message.
func writeError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindStateConflict, domain.KindCapacityExhausted:
		status = http.StatusConflict
	case domain.KindEligibility:
		status = http.StatusUnprocessableEntity
	case domain.KindConcurrencyConflict:
		// Transient: the claim path gave up after retries. Retry later.
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorBody{Error: de.Error(), Kind: string(de.Kind)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
