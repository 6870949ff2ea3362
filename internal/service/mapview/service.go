package mapview

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/cmlabs-hris/attendance-console-go/internal/domain/event"
	"github.com/cmlabs-hris/attendance-console-go/internal/geocluster"
	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

const eventsPath = "/api/admin/attendance/events"

// Marker colors, fixed per event type
const (
	colorIn      = "#16a34a"
	colorOut     = "#dc2626"
	colorCluster = "#f59e0b"
)

// viewState is the per-session map state: the auto-fit one-shot flag, the
// current viewport and its gesture version counter.
type viewState struct {
	mu        sync.Mutex
	viewport  geocluster.Viewport
	version   uint64
	fitted    bool
	lastTotal int
}

type MapViewServiceImpl struct {
	opts      geocluster.Options
	pageLimit int
	hub       *sse.Hub

	mu     sync.Mutex
	states map[string]*viewState
}

func NewMapViewService(opts geocluster.Options, pageLimit int, hub *sse.Hub) event.MapViewService {
	return &MapViewServiceImpl{
		opts:      opts,
		pageLimit: pageLimit,
		hub:       hub,
		states:    make(map[string]*viewState),
	}
}

func (s *MapViewServiceImpl) state(sessionID string) *viewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[sessionID]
	if !ok {
		st = &viewState{}
		s.states[sessionID] = st
	}
	return st
}

// Release implements event.MapViewService.
func (s *MapViewServiceImpl) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

// SetViewport implements event.MapViewService.
func (s *MapViewServiceImpl) SetViewport(sess *session.Session, vp geocluster.Viewport) uint64 {
	st := s.state(sess.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.viewport = vp
	st.version++
	return st.version
}

// ZoomTo implements event.MapViewService.
func (s *MapViewServiceImpl) ZoomTo(sess *session.Session, lat, lon float64) (geocluster.Viewport, uint64) {
	st := s.state(sess.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.viewport = geocluster.ZoomIn(st.viewport, lat, lon, s.opts)
	st.version++
	return st.viewport, st.version
}

// Markers implements event.MapViewService.
func (s *MapViewServiceImpl) Markers(ctx context.Context, sess *session.Session, filter event.ListFilter, focusedID string) (event.MarkersResponse, error) {
	events, err := s.fetchEvents(ctx, sess, filter)
	if err != nil {
		return event.MarkersResponse{}, err
	}

	located := make([]event.MapEvent, 0, len(events))
	for _, e := range events {
		if e.HasCoordinates() {
			located = append(located, e)
		}
	}

	st := s.state(sess.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(located) != st.lastTotal {
		s.hub.Publish(sess.ID, sse.Event{Event: sse.EventMapRefresh, Data: map[string]int{"total_events": len(located)}})
		st.lastTotal = len(located)
	}

	if len(located) == 0 {
		// empty set re-arms the auto-fit for the next non-empty one
		st.fitted = false
		return event.MarkersResponse{
			Markers:         []event.Marker{},
			Viewport:        st.viewport,
			ViewportVersion: st.version,
		}, nil
	}

	byID := make(map[string]event.MapEvent, len(located))
	points := make([]geocluster.Point, 0, len(located))
	for _, e := range located {
		byID[e.ID] = e
		points = append(points, geocluster.Point{ID: e.ID, Lat: *e.Lat, Lon: *e.Lon})
	}

	var fit *geocluster.FitResult
	if !st.fitted {
		if f, ok := geocluster.Fit(points, s.opts); ok {
			st.viewport = f.Viewport()
			st.fitted = true
			fit = &f
		}
	}

	clusters := geocluster.Clusters(points, st.viewport, s.opts)
	markers := make([]event.Marker, 0, len(clusters))
	for _, c := range clusters {
		markers = append(markers, s.marker(c, byID, focusedID))
	}

	return event.MarkersResponse{
		Markers:         markers,
		Viewport:        st.viewport,
		ViewportVersion: st.version,
		Fit:             fit,
		TotalEvents:     len(located),
	}, nil
}

func (s *MapViewServiceImpl) marker(c geocluster.Cluster, byID map[string]event.MapEvent, focusedID string) event.Marker {
	if c.Count >= 2 {
		return event.Marker{
			Lat:      c.Lat,
			Lon:      c.Lon,
			Count:    c.Count,
			Color:    colorCluster,
			RadiusM:  c.RadiusM,
			EventIDs: c.PointIDs,
		}
	}

	e := byID[c.PointIDs[0]]
	m := event.Marker{
		Lat:      c.Lat,
		Lon:      c.Lon,
		Count:    1,
		Color:    colorIn,
		Focused:  e.ID == focusedID,
		EventIDs: c.PointIDs,
		Event:    &e,
	}
	if e.Type == event.TypeOut {
		m.Color = colorOut
	}
	if e.AccuracyM != nil {
		m.RadiusM = *e.AccuracyM
	}
	return m
}

func (s *MapViewServiceImpl) fetchEvents(ctx context.Context, sess *session.Session, filter event.ListFilter) ([]event.MapEvent, error) {
	var all []event.MapEvent

	for offset := 0; ; offset += s.pageLimit {
		query := url.Values{}
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(s.pageLimit))
		if filter.DateFrom != "" {
			query.Set("date_from", filter.DateFrom)
		}
		if filter.DateTo != "" {
			query.Set("date_to", filter.DateTo)
		}
		if filter.DepartmentID != "" {
			query.Set("department_id", filter.DepartmentID)
		}
		if filter.Type != "" {
			query.Set("type", filter.Type)
		}

		var page struct {
			Data []event.MapEvent `json:"data"`
		}
		if err := sess.Client.Get(ctx, eventsPath, query, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch attendance events: %w", err)
		}

		all = append(all, page.Data...)
		if len(page.Data) < s.pageLimit {
			break
		}
	}

	slog.Debug("Fetched attendance events", "session_id", sess.ID, "count", len(all))
	return all, nil
}
