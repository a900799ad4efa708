package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the flat error payload returned by every endpoint.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, label, message string) {
	JSON(w, status, ErrorBody{Error: label, Message: message})
}
