package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the price API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("price api: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("price api: %s", e.Status)
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     status,
		Message:    errorMessage(body),
	}
}

// errorMessage pulls the human readable message out of either error body
// shape the API uses: {"error": "..."} or {"status": {"error_message": "..."}}.
func errorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Status struct {
			ErrorMessage string `json:"error_message"`
		} `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(payload.Status.ErrorMessage)
}

// Retryable decides which failures WithRetrier repeats: rate limits, server
// errors and transport failures. Cancellation and decode errors are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrDecode) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
