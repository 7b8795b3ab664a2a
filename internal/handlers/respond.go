// Package handlers contains HTTP request handlers for the console API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crisp-platform/console-server/internal/docstore"
	"github.com/crisp-platform/console-server/internal/restapi"
	"github.com/crisp-platform/console-server/internal/session"
)

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy onto HTTP statuses,
// surfacing backend detail text where the contract allows it.
func respondServiceError(w http.ResponseWriter, err error) {
	var validation *restapi.ValidationError
	var network *restapi.NetworkError

	switch {
	case errors.Is(err, restapi.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, session.ErrForbiddenRole), errors.Is(err, restapi.ErrForbidden):
		respondError(w, http.StatusForbidden, "You are not permitted to enter this site")
	case errors.Is(err, restapi.ErrNotFound), errors.Is(err, docstore.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Detail)
	case errors.As(err, &network):
		respondError(w, http.StatusBadGateway, "No response received from server. Please try again.")
	default:
		respondError(w, http.StatusInternalServerError, "Internal error")
	}
}
