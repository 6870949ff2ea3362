package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmlabs-hris/attendance-console-go/internal/config"
	"github.com/cmlabs-hris/attendance-console-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
	"github.com/cmlabs-hris/attendance-console-go/internal/upstream"
)

type AuthServiceImpl struct {
	upstreamCfg config.UpstreamConfig
	sessions    *session.Manager
}

func NewAuthService(upstreamCfg config.UpstreamConfig, sessions *session.Manager) auth.AuthService {
	return &AuthServiceImpl{
		upstreamCfg: upstreamCfg,
		sessions:    sessions,
	}
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (*session.Session, error) {
	sess := a.sessions.Create(req.Email)

	sid := sess.ID
	sess.Client = upstream.NewClient(
		a.upstreamCfg.BaseURL,
		a.upstreamCfg.Timeout,
		sess.Credentials,
		func() { a.sessions.Invalidate(sid) },
	)

	if _, err := sess.Client.Login(ctx, req.Email, req.Password); err != nil {
		a.sessions.Destroy(sid)

		if errors.Is(err, upstream.ErrUnreachable) {
			return nil, auth.ErrUpstreamUnavailable
		}
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	slog.Info("Dashboard session opened", "session_id", sid, "email", req.Email)
	return sess, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, sess *session.Session) {
	sess.Client.Logout(ctx)
	a.sessions.Destroy(sess.ID)
	slog.Info("Dashboard session closed", "session_id", sess.ID)
}
