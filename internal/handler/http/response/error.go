package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-console-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-console-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-console-go/internal/upstream"
)

// codeMessages translates core API error codes into user-facing wording;
// unknown codes fall back to the upstream message.
var codeMessages = map[string]string{
	upstream.CodeInvalidToken:       "Your session has expired, please sign in again",
	upstream.CodeInvalidCredentials: "Invalid email or password",
	upstream.CodeForbidden:          "You do not have access to this resource",
	upstream.CodeNotFound:           "Resource not found",
	upstream.CodeValidation:         "The submitted data was rejected",
	upstream.CodeConflict:           "The resource was modified by someone else",
}

// HandleError maps domain and upstream errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Core API errors pass through with translated wording
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if translated, ok := codeMessages[apiErr.Code]; ok {
			message = translated
		}
		writeJSON(w, apiErr.StatusCode, Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    apiErr.Code,
				Message: message,
			},
		})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, auth.ErrSessionNotFound):
		Unauthorized(w, "No active dashboard session")
	case errors.Is(err, auth.ErrSessionInvalidated):
		Unauthorized(w, "Session invalidated, please sign in again")
	case errors.Is(err, auth.ErrUpstreamUnavailable), errors.Is(err, upstream.ErrUnreachable):
		BadGateway(w, "The attendance service is currently unreachable")

	// Directory domain errors
	case errors.Is(err, directory.ErrUnknownResource):
		NotFound(w, "Unknown resource kind")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
