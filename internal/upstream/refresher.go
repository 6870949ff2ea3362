package upstream

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// RefreshFunc exchanges a refresh token for a new pair against the core API.
// The returned pair may carry an empty RefreshToken when the core chose not
// to rotate it.
type RefreshFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

// Refresher owns the in-flight refresh state for one credential store.
// However many concurrent API calls discover an expired access token, at most
// one refresh request is outstanding; every caller observes the same outcome.
type Refresher struct {
	store         Store
	call          RefreshFunc
	onInvalidated func()
	group         singleflight.Group
}

// NewRefresher builds a refresher bound to store. onInvalidated fires once
// per failed refresh, after credentials have been cleared; nil is allowed.
func NewRefresher(store Store, call RefreshFunc, onInvalidated func()) *Refresher {
	return &Refresher{
		store:         store,
		call:          call,
		onInvalidated: onInvalidated,
	}
}

// Refresh joins the shared in-flight refresh and returns the new access token,
// or "" when the refresh failed and the session was invalidated. Transport
// errors, non-2xx responses and malformed bodies are all treated as failure;
// the refresh endpoint itself is never retried.
//
// The exchange runs detached from the initiating caller's context: every
// waiter shares one outcome, so a canceled initiator (browser disconnect)
// must not abort the refresh for waiters whose contexts are still live. The
// HTTP client timeout bounds the detached call.
func (r *Refresher) Refresh(ctx context.Context) string {
	token, _, _ := r.group.Do("refresh", func() (interface{}, error) {
		return r.refresh(context.WithoutCancel(ctx)), nil
	})
	return token.(string)
}

func (r *Refresher) refresh(ctx context.Context) string {
	pair, err := r.store.Load()
	if err != nil || pair.RefreshToken == "" {
		// nothing to exchange, skip the network call entirely
		r.invalidate()
		return ""
	}

	fresh, err := r.call(ctx, pair.RefreshToken)
	if err != nil || fresh.AccessToken == "" {
		slog.Warn("Token refresh failed", "error", err)
		r.invalidate()
		return ""
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = pair.RefreshToken
	}
	if err := r.store.Save(fresh); err != nil {
		slog.Error("Failed to persist refreshed credentials", "error", err)
		r.invalidate()
		return ""
	}
	return fresh.AccessToken
}

func (r *Refresher) invalidate() {
	if err := r.store.Clear(); err != nil {
		slog.Error("Failed to clear credentials", "error", err)
	}
	if r.onInvalidated != nil {
		r.onInvalidated()
	}
}
