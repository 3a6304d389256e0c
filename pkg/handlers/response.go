package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes bounds request bodies. Questions and candidate SQL are
// short; anything near this size is malformed or hostile.
const maxBodyBytes = 1 << 20

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a size-limited JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
