package api

import (
	"encoding/json"
	"net/http"
)

// Success writes a JSON response with the given status code.
func Success(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Error writes a JSON error body with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	Success(w, status, ErrorResponse{Error: message})
}
