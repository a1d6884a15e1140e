package handlers

import (
	"encoding/json"
	"net/http"

	"resona-backend/internal/models"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code models.ErrorCode, message string) {
	if message == "" {
		message = models.ErrorText(code)
	}
	writeJSON(w, status, models.APIErrorResponse{Error: message, Code: string(code)})
}
