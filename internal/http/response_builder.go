// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses so every
// handler writes the same envelope and headers.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"glreport/internal/middleware/trace"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	if b.body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "path", r.URL.Path)
	}
}

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse creates a standard error response. The request id is filled
// in when written.
func ErrorResponse(statusCode int, message string) *ErrorResult {
	return &ErrorResult{status: statusCode, message: message}
}

// ErrorResult writes an ErrorBody with a status code.
type ErrorResult struct {
	status  int
	message string
}

func (e *ErrorResult) Write(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Status(e.status).
		Body(ErrorBody{Error: e.message, RequestID: trace.GetRequestID(r.Context())}).
		Write(w, r)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ErrorResult {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ErrorResult {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ServiceUnavailableError creates a 503 Service Unavailable error response.
func ServiceUnavailableError(message string) *ErrorResult {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

// TooManyRequestsError creates a 429 Too Many Requests error response.
func TooManyRequestsError() *ErrorResult {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, retry later")
}
