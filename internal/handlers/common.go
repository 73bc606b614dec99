package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/doculens/doculens-api/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the shared error taxonomy onto HTTP statuses.
// DanglingReference deliberately collapses into 404; Expired and Inactive
// stay distinguishable (410) so the client can show a targeted message.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrDanglingReference):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrExpired):
		http.Error(w, "Expired", http.StatusGone)
	case errors.Is(err, apperr.ErrInactive):
		http.Error(w, "No longer active", http.StatusGone)
	default:
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
