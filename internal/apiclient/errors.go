package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoIdentity is returned when a successful response carries no user id
var ErrNoIdentity = errors.New("response carries no user identity")

// Error is a non-success response from the backend
type Error struct {
	Operation  string
	StatusCode int
	// Detail is the backend's structured error detail, empty when absent.
	Detail string
	Body   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed (status %d): %s", e.Operation, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Operation, e.StatusCode, e.Body)
}

func newError(operation string, statusCode int, body []byte) *Error {
	return &Error{
		Operation:  operation,
		StatusCode: statusCode,
		Detail:     parseDetail(body),
		Body:       strings.TrimSpace(string(body)),
	}
}

// parseDetail extracts {"detail": {"message": "..."}} or {"detail": "..."}
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var structured struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Detail, &structured); err == nil && structured.Message != "" {
		return structured.Message
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	return ""
}

// UserMessage returns the text shown to a visitor for err: the backend's
// detail when it sent one, fallback for everything else.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// IsUnauthorized reports whether the backend rejected the credentials
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
