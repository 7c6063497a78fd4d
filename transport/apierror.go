package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/petmily/petmily-go/internal/errors"
)

const maxErrorBody = 1 << 20

// ErrorEnvelope is the backend's generic error body. Any endpoint may
// respond with it.
type ErrorEnvelope struct {
	Timestamp        string            `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// APIError annotates a failed call with a locale-appropriate message from
// the fixed status mapping, so call sites never switch on status codes.
// Status is StatusNetwork when no HTTP response was obtained.
type APIError struct {
	Status   int
	Message  string
	Envelope *ErrorEnvelope
	cause    error
}

func (e *APIError) Error() string {
	if e.Status == StatusNetwork {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Unwrap lets callers match sentinel conditions with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case StatusNetwork:
		if e.cause != nil {
			return e.cause
		}
		return apperrors.ErrUnreachable
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	}
	return e.cause
}

// FieldErrors returns the backend's field-level validation messages, if any.
func (e *APIError) FieldErrors() map[string]string {
	if e.Envelope == nil {
		return nil
	}
	return e.Envelope.ValidationErrors
}

// ErrorFromResponse converts a non-2xx response into an *APIError. It
// returns nil for successful responses. The body is consumed.
func ErrorFromResponse(locale string, resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: MessageFor(locale, resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(body) > 0 {
		var envelope ErrorEnvelope
		if json.Unmarshal(body, &envelope) == nil && envelope.Status != 0 {
			apiErr.Envelope = &envelope
		}
	}
	return apiErr
}

// WrapNetworkError converts a transport-level failure (no response) into an
// *APIError carrying the network-unreachable message.
func WrapNetworkError(locale string, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Status:  StatusNetwork,
		Message: MessageFor(locale, StatusNetwork),
		cause:   err,
	}
}
