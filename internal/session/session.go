package session

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-console-go/internal/upstream"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const CookieName = "console_session"

var ErrNotFound = errors.New("dashboard session not found")

// Session is one authenticated dashboard browser session. It owns the
// upstream credential pair and the client bound to it.
type Session struct {
	ID          string
	Email       string
	CreatedAt   time.Time
	Credentials *upstream.MemoryStore
	Client      *upstream.Client

	mu          sync.Mutex
	invalidated bool
}

// Invalidate marks the session unrecoverable. Idempotent.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = true
}

func (s *Session) Invalidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// Manager is the in-memory session registry plus the signed session cookie.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	tokenAuth  *jwtauth.JWTAuth
	expiration time.Duration
	hub        *sse.Hub
}

func NewManager(secret string, expiration time.Duration, hub *sse.Hub) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		tokenAuth:  jwtauth.New("HS256", []byte(secret), nil, jwt.WithAcceptableSkew(30*time.Second)),
		expiration: expiration,
		hub:        hub,
	}
}

func (m *Manager) Create(email string) *Session {
	sess := &Session{
		ID:          uuid.NewString(),
		Email:       email,
		CreatedAt:   time.Now().UTC(),
		Credentials: upstream.NewMemoryStore(),
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Invalidate performs the console half of a forced logout: credentials are
// cleared, the session is marked dead, and the logout signal is published so
// an open dashboard tab can react without a redirect loop.
func (m *Manager) Invalidate(id string) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return
	}

	_ = sess.Credentials.Clear()
	sess.Invalidate()
	m.hub.Publish(id, sse.Event{Event: sse.EventLoggedOut})
}

func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// CookieFor mints the signed session cookie for a fresh session.
func (m *Manager) CookieFor(sess *Session) (*http.Cookie, error) {
	expiresAt := time.Now().Add(m.expiration)
	_, token, err := m.tokenAuth.Encode(map[string]interface{}{
		"sid":  sess.ID,
		"type": "session",
		"exp":  expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest resolves the session referenced by the request's cookie.
func (m *Manager) FromRequest(r *http.Request) (*Session, error) {
	token, err := jwtauth.VerifyRequest(m.tokenAuth, r, tokenFromSessionCookie)
	if err != nil || token == nil {
		return nil, ErrNotFound
	}

	claims, err := token.AsMap(r.Context())
	if err != nil {
		return nil, ErrNotFound
	}
	if kind, ok := claims["type"].(string); !ok || kind != "session" {
		return nil, ErrNotFound
	}
	sid, ok := claims["sid"].(string)
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(sid)
}

// jwtauth's TokenFromCookie is pinned to a cookie named "jwt"
func tokenFromSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
