package auth

import (
	"context"

	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

type AuthService interface {
	// Login forwards credentials to the core API and opens a dashboard
	// session holding the returned token pair
	Login(ctx context.Context, req LoginRequest) (*session.Session, error)

	// Logout revokes upstream best-effort and destroys the session
	Logout(ctx context.Context, sess *session.Session)
}
