package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-console-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-console-go/internal/domain/event"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Session(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	authService auth.AuthService
	mapService  event.MapViewService
	sessions    *session.Manager
}

func NewAuthHandler(authService auth.AuthService, mapService event.MapViewService, sessions *session.Manager) AuthHandler {
	return &AuthHandlerImpl{
		authService: authService,
		mapService:  mapService,
		sessions:    sessions,
	}
}

// Login implements AuthHandler.
func (h *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		slog.Error("Login decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := loginReq.Validate(); err != nil {
		slog.Error("Login validate error", "error", err)
		response.HandleError(w, err)
		return
	}

	sess, err := h.authService.Login(r.Context(), loginReq)
	if err != nil {
		slog.Error("Login service error", "error", err)
		response.HandleError(w, err)
		return
	}

	cookie, err := h.sessions.CookieFor(sess)
	if err != nil {
		slog.Error("Login cookie error", "error", err)
		response.InternalServerError(w, "Failed to open session")
		return
	}
	http.SetCookie(w, cookie)

	response.SuccessWithMessage(w, "Signed in", auth.SessionResponse{
		SessionID: sess.ID,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt,
	})
}

// Logout implements AuthHandler.
func (h *AuthHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	h.mapService.Release(sess.ID)
	h.authService.Logout(r.Context(), sess)

	http.SetCookie(w, h.sessions.ClearCookie())
	response.SuccessWithMessage(w, "Signed out", nil)
}

// Session implements AuthHandler.
func (h *AuthHandlerImpl) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	response.Success(w, auth.SessionResponse{
		SessionID: sess.ID,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt,
	})
}
