package api

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the JSON envelope for every endpoint.
type APIResponse struct {
	Message string      `json:"message"`
	Status  string      `json:"status"` // "success" or "error"
	Data    interface{} `json:"data,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(response)
}

func errorResponse(w http.ResponseWriter, message string, statusCode int) {
	respondWithJSON(w, statusCode, APIResponse{
		Message: message,
		Status:  "error",
	})
}

func successResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	respondWithJSON(w, statusCode, APIResponse{
		Message: message,
		Status:  "success",
		Data:    data,
	})
}
