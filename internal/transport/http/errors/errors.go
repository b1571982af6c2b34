package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// APIError is the JSON error envelope every handler responds with.
type APIError struct {
	Status        int    `json:"-"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int    `json:"retry_after_sec,omitempty"`
}

func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func (e *APIError) Error() string {
	return e.Message
}

func Write(w http.ResponseWriter, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(struct {
		Error *APIError `json:"error"`
	}{Error: apiErr})
}

// WriteRateLimited adds a Retry-After header alongside the envelope.
func WriteRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	apiErr := New(http.StatusTooManyRequests, "TOO_FAST", "too many decisions, slow down")
	apiErr.RetryAfterSec = seconds
	Write(w, apiErr)
}

func Validation(message string) *APIError {
	return New(http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func Unauthorized() *APIError {
	return New(http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
}

func Forbidden(message string) *APIError {
	return New(http.StatusForbidden, "FORBIDDEN", message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, "CONFLICT", message)
}

func Internal() *APIError {
	return New(http.StatusInternalServerError, "INTERNAL", "internal server error")
}

func Upstream() *APIError {
	return New(http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "radius provider unavailable, retry later")
}
