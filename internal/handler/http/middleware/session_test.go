package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
	"github.com/cmlabs-hris/attendance-console-go/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManagerWithSession(t *testing.T, hub *sse.Hub) (*session.Manager, *session.Session, *http.Cookie) {
	sessions := session.NewManager("middleware-test-secret", time.Hour, hub)
	sess := sessions.Create("admin@example.com")
	require.NoError(t, sess.Credentials.Save(upstream.TokenPair{AccessToken: "access", RefreshToken: "refresh"}))

	cookie, err := sessions.CookieFor(sess)
	require.NoError(t, err)
	return sessions, sess, cookie
}

func okHandler(t *testing.T, want *session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := FromContext(r.Context())
		require.NotNil(t, got)
		assert.Equal(t, want.ID, got.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionRequired_PassesValidSession(t *testing.T) {
	sessions, sess, cookie := newManagerWithSession(t, sse.NewHub())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/map/markers", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	SessionRequired(sessions)(okHandler(t, sess)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionRequired_MissingCookieRedirectsWithReturnTo(t *testing.T) {
	sessions, _, _ := newManagerWithSession(t, sse.NewHub())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/map/markers?date_from=2026-08-01", nil)
	rec := httptest.NewRecorder()

	SessionRequired(sessions)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, LoginPath, location.Path)
	assert.Equal(t, "/api/v1/map/markers?date_from=2026-08-01", location.Query().Get("return_to"))
}

func TestSessionRequired_ForcedLogoutClearsCredentialsAndSignals(t *testing.T) {
	hub := sse.NewHub()
	sessions, sess, cookie := newManagerWithSession(t, hub)

	events, cleanup := hub.Subscribe(sess.ID)
	defer cleanup()

	// upstream refresh failure path ends here
	sessions.Invalidate(sess.ID)

	pair, err := sess.Credentials.Load()
	require.NoError(t, err)
	assert.True(t, pair.Empty())

	select {
	case ev := <-events:
		assert.Equal(t, sse.EventLoggedOut, ev.Event)
	default:
		t.Fatal("expected a logged_out event")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resources/employees", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	SessionRequired(sessions)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), LoginPath+"?return_to=")

	// the invalidated session is gone for good
	_, err = sessions.Get(sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, session.CookieName, cleared[0].Name)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestSessionRequired_LoginSurfaceGets401NotRedirect(t *testing.T) {
	sessions, sess, cookie := newManagerWithSession(t, sse.NewHub())
	sessions.Invalidate(sess.ID)

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		SessionRequired(sessions)(http.NotFoundHandler()).ServeHTTP(rec, req)
		return rec
	}

	// the first hit still finds the invalidated session and says so
	rec := do("/api/v1/auth/session")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))

	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Contains(t, body.Error.Message, "invalidated")

	// that hit destroyed the session; later hits report no session at all
	for _, path := range []string{LoginPath, "/api/v1/auth/logout"} {
		rec := do(path)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Empty(t, rec.Header().Get("Location"), path)

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Error, path)
		assert.Equal(t, "No active dashboard session", body.Error.Message, path)
	}
}

func TestSessionRequired_TamperedCookieRejected(t *testing.T) {
	sessions, _, cookie := newManagerWithSession(t, sse.NewHub())

	forged := *cookie
	forged.Value = cookie.Value + "x"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/map/markers", nil)
	req.AddCookie(&forged)
	rec := httptest.NewRecorder()

	SessionRequired(sessions)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
}
