// Package errors defines the HTTP error envelope shared by middleware
// and handlers.
package errors

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes for the HTTP surface.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeOutOfBounds      = "OUT_OF_BOUNDS"
	CodeValidation       = "VALIDATION_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_ERROR"
)

// HTTPErrorResponse is the JSON envelope for every error response.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// HTTPErrorDetail carries the error code, message, and correlation ID.
type HTTPErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError renders the envelope with the given status code.
func WriteError(w http.ResponseWriter, statusCode int, code, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPErrorDetail{Code: code, Message: message, RequestID: requestID},
	})
}
