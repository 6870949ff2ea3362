package event

import (
	"context"

	"github.com/cmlabs-hris/attendance-console-go/internal/geocluster"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

type MapViewService interface {
	// Markers fetches the session's events and recomputes the marker set
	// for its current viewport
	Markers(ctx context.Context, sess *session.Session, filter ListFilter, focusedID string) (MarkersResponse, error)

	// SetViewport records the end of one pan/zoom gesture and returns the
	// new viewport version
	SetViewport(sess *session.Session, vp geocluster.Viewport) uint64

	// ZoomTo handles an aggregate-marker click: zoom in around the
	// cluster centroid instead of expanding it inline
	ZoomTo(sess *session.Session, lat, lon float64) (geocluster.Viewport, uint64)

	// Release drops the session's view state; the next Markers call
	// behaves like a fresh mount and auto-fits again
	Release(sessionID string)
}
