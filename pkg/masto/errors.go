package masto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPError represents a non-2xx response from a Mastodon instance.
type HTTPError struct {
	StatusCode  int    `json:"status_code"                 yaml:"status_code"`
	Message     string `json:"error"                       yaml:"error"`
	Description string `json:"error_description,omitempty" yaml:"error_description,omitempty"`
	Method      string `json:"method,omitempty"            yaml:"method,omitempty"`
	URL         string `json:"url,omitempty"               yaml:"url,omitempty"`
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	if e.Description != "" {
		msg = msg + ": " + e.Description
	}

	if e.Method != "" && e.URL != "" {
		return fmt.Sprintf("%s %s: %s (status: %d)", e.Method, e.URL, msg, e.StatusCode)
	}

	return fmt.Sprintf("%s (status: %d)", msg, e.StatusCode)
}

// TimeoutError is returned when a media attachment is still processing after
// the configured wait budget.
type TimeoutError struct {
	Path     string
	Timeout  time.Duration
	Attempts int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("media processing at %s did not finish within %s (%d attempts)", e.Path, e.Timeout, e.Attempts)
}

// Static errors for err113 compliance.
var (
	ErrCanceled              = errors.New("action canceled")
	ErrUnsupportedActionType = errors.New("unsupported action type")
	ErrUnsupportedQuery      = errors.New("unsupported query parameters")
	ErrConfigRequired        = errors.New("config is required")
	ErrInstanceURLRequired   = errors.New("instance URL is required")
	ErrEmptyResponse         = errors.New("empty response body")
	ErrMediaFileRequired     = errors.New("media file is required")
	ErrIDRequired            = errors.New("resource ID is required")
)

// ParseHTTPError builds an HTTPError from a Mastodon error body.
// Non-JSON bodies fall back to the status text.
func ParseHTTPError(statusCode int, body []byte) *HTTPError {
	httpErr := &HTTPError{StatusCode: statusCode}

	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}

	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		httpErr.Message = payload.Error
		httpErr.Description = payload.ErrorDescription
	}

	if httpErr.Message == "" {
		httpErr.Message = http.StatusText(statusCode)
	}

	return httpErr
}

// IsHTTPStatus reports whether err is an HTTPError with the given status code.
func IsHTTPStatus(err error, statusCode int) bool {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == statusCode
	}

	return false
}

// IsNotFound checks if the error is a 404 HTTP error.
func IsNotFound(err error) bool {
	return IsHTTPStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is a 401 HTTP error.
func IsUnauthorized(err error) bool {
	return IsHTTPStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a 403 HTTP error.
func IsForbidden(err error) bool {
	return IsHTTPStatus(err, http.StatusForbidden)
}

// IsRateLimited checks if the error is a 429 HTTP error.
func IsRateLimited(err error) bool {
	return IsHTTPStatus(err, http.StatusTooManyRequests)
}

// IsTimeout checks if the error is a media processing timeout.
func IsTimeout(err error) bool {
	timeoutErr := &TimeoutError{}

	return errors.As(err, &timeoutErr)
}

// IsCanceled checks if the caller abandoned the action.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
