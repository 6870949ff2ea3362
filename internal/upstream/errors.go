package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the core attendance API.
const (
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
)

var ErrUnreachable = errors.New("core API unreachable")

// APIError is the decoded core API error envelope
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("core API error [%d] %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("core API error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsInvalidToken reports whether err is the specific 401 that the refresh flow
// may recover from. Other 401 causes (wrong credentials) must not trigger it.
func IsInvalidToken(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized && apiErr.Code == CodeInvalidToken
}
