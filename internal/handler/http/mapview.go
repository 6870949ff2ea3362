package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-console-go/internal/domain/event"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/sse"
)

type MapHandler interface {
	Markers(w http.ResponseWriter, r *http.Request)
	SetViewport(w http.ResponseWriter, r *http.Request)
	ZoomTo(w http.ResponseWriter, r *http.Request)
	ResetState(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type MapHandlerImpl struct {
	mapService event.MapViewService
	hub        *sse.Hub
}

func NewMapHandler(mapService event.MapViewService, hub *sse.Hub) MapHandler {
	return &MapHandlerImpl{
		mapService: mapService,
		hub:        hub,
	}
}

// Markers implements MapHandler.
func (h *MapHandlerImpl) Markers(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	filter := event.ListFilter{
		DateFrom:     r.URL.Query().Get("date_from"),
		DateTo:       r.URL.Query().Get("date_to"),
		DepartmentID: r.URL.Query().Get("department_id"),
		Type:         r.URL.Query().Get("type"),
	}
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	markers, err := h.mapService.Markers(r.Context(), sess, filter, r.URL.Query().Get("focused"))
	if err != nil {
		slog.Error("Markers service error", "error", err, "session_id", sess.ID)
		response.HandleError(w, err)
		return
	}

	response.Success(w, markers)
}

// SetViewport implements MapHandler.
func (h *MapHandlerImpl) SetViewport(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	var req event.ViewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	version := h.mapService.SetViewport(sess, req.Viewport)
	response.Success(w, map[string]uint64{"viewport_version": version})
}

// ZoomTo implements MapHandler.
func (h *MapHandlerImpl) ZoomTo(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	var req event.ZoomToRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	viewport, version := h.mapService.ZoomTo(sess, req.Lat, req.Lon)
	response.Success(w, map[string]interface{}{
		"viewport":         viewport,
		"viewport_version": version,
	})
}

// ResetState implements MapHandler.
func (h *MapHandlerImpl) ResetState(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	h.mapService.Release(sess.ID)
	response.SuccessWithMessage(w, "Map view state reset", nil)
}

// Stream implements MapHandler.
func (h *MapHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	sess := middleware.FromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(sess.ID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"session_id\":%q}\n\n", sess.ID)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
