package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/api"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
)

var logRH = logger_i.NewLogger("handlers")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{Error: message})
}
