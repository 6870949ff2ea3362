package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-console-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
	"github.com/go-chi/chi/v5"
)

type DirectoryHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type DirectoryHandlerImpl struct {
	service directory.DirectoryService
}

func NewDirectoryHandler(service directory.DirectoryService) DirectoryHandler {
	return &DirectoryHandlerImpl{service: service}
}

func listParams(r *http.Request) directory.ListParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return directory.ListParams{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
	}
}

func writeList[T any](w http.ResponseWriter, result directory.ListResult[T], err error) {
	if err != nil {
		slog.Error("Directory list error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Items, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// List implements DirectoryHandler.
func (h *DirectoryHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())
	ctx := r.Context()
	p := listParams(r)

	switch chi.URLParam(r, "kind") {
	case "employees":
		result, err := h.service.ListEmployees(ctx, sess, p)
		writeList(w, result, err)
	case "departments":
		result, err := h.service.ListDepartments(ctx, sess, p)
		writeList(w, result, err)
	case "regions":
		result, err := h.service.ListRegions(ctx, sess, p)
		writeList(w, result, err)
	case "devices":
		result, err := h.service.ListDevices(ctx, sess, p)
		writeList(w, result, err)
	case "qr-points":
		result, err := h.service.ListQRPoints(ctx, sess, p)
		writeList(w, result, err)
	case "schedules":
		result, err := h.service.ListSchedules(ctx, sess, p)
		writeList(w, result, err)
	case "leaves":
		result, err := h.service.ListLeaves(ctx, sess, p)
		writeList(w, result, err)
	case "notifications":
		result, err := h.service.ListNotifications(ctx, sess, p)
		writeList(w, result, err)
	case "audit-logs":
		result, err := h.service.ListAuditLogs(ctx, sess, p)
		writeList(w, result, err)
	default:
		response.HandleError(w, directory.ErrUnknownResource)
	}
}

// Get implements DirectoryHandler.
func (h *DirectoryHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	data, err := h.service.Get(r.Context(), sess, chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("Directory get error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, data)
}

// Create implements DirectoryHandler.
func (h *DirectoryHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())
	kind := chi.URLParam(r, "kind")

	if kind == "qr-points" {
		h.createQRPoint(w, r, sess)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	data, err := h.service.Create(r.Context(), sess, kind, body)
	if err != nil {
		slog.Error("Directory create error", "error", err, "kind", kind)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Resource created", data)
}

func (h *DirectoryHandlerImpl) createQRPoint(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req directory.QRPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	point, err := h.service.CreateQRPoint(r.Context(), sess, req)
	if err != nil {
		slog.Error("QR point create error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Check-in point created", point)
}

// Update implements DirectoryHandler.
func (h *DirectoryHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())
	kind := chi.URLParam(r, "kind")
	id := chi.URLParam(r, "id")

	if kind == "qr-points" {
		var req directory.QRPointRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
		point, err := h.service.UpdateQRPoint(r.Context(), sess, id, req)
		if err != nil {
			slog.Error("QR point update error", "error", err)
			response.HandleError(w, err)
			return
		}
		response.SuccessWithMessage(w, "Check-in point updated", point)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	data, err := h.service.Update(r.Context(), sess, kind, id, body)
	if err != nil {
		slog.Error("Directory update error", "error", err, "kind", kind)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Resource updated", data)
}

// Delete implements DirectoryHandler.
func (h *DirectoryHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	err := h.service.Delete(r.Context(), sess, chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("Directory delete error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Resource deleted", nil)
}
