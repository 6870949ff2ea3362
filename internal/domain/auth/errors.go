package auth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSessionNotFound     = errors.New("dashboard session not found")
	ErrSessionInvalidated  = errors.New("dashboard session invalidated")
	ErrUpstreamUnavailable = errors.New("core API unavailable")
)
