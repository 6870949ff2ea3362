package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cmlabs-hris/attendance-console-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

// LoginPath is the dashboard sign-in surface; requests already aimed at it
// never get redirected there again.
const LoginPath = "/login"

type sessionCtxKey struct{}

// FromContext returns the session attached by SessionRequired.
func FromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*session.Session)
	return sess
}

// SessionRequired resolves the dashboard session cookie. A missing or
// invalidated session triggers the forced-logout response: a redirect to the
// login surface carrying the current location as return_to. Requests already
// aimed at the login surface answer 401 instead, leaving the published logout
// signal to in-page state so no redirect loop forms.
func SessionRequired(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.FromRequest(r)
			if err == nil && !sess.Invalidated() {
				ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			cause := auth.ErrSessionNotFound
			if err == nil {
				// the session was forcibly invalidated; drop it now that
				// the browser is being told
				cause = auth.ErrSessionInvalidated
				sessions.Destroy(sess.ID)
			}

			http.SetCookie(w, sessions.ClearCookie())

			if isLoginSurface(r.URL.Path) {
				response.HandleError(w, cause)
				return
			}

			returnTo := url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, LoginPath+"?return_to="+returnTo, http.StatusFound)
		}
		return http.HandlerFunc(hfn)
	}
}

func isLoginSurface(path string) bool {
	return path == LoginPath || strings.HasPrefix(path, "/api/v1/auth/")
}
