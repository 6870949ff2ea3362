package event

import (
	"github.com/cmlabs-hris/attendance-console-go/internal/geocluster"
	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/validator"
)

// ListFilter narrows the event fetch against the core API
type ListFilter struct {
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
	DepartmentID string `json:"department_id"`
	Type         string `json:"type"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.DateFrom != "" {
		if _, ok := validator.IsValidDate(f.DateFrom); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date_from",
				Message: "date_from must be YYYY-MM-DD",
			})
		}
	}
	if f.DateTo != "" {
		if _, ok := validator.IsValidDate(f.DateTo); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date_to",
				Message: "date_to must be YYYY-MM-DD",
			})
		}
	}
	if f.Type != "" && !validator.IsInSlice(f.Type, []string{TypeIn, TypeOut}) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be IN or OUT",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ViewportRequest reports the end of one discrete pan/zoom gesture
type ViewportRequest struct {
	geocluster.Viewport
}

func (r *ViewportRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Viewport.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "viewport",
			Message: "viewport bounds must be finite with positive area",
		})
	} else {
		if !validator.IsValidLatitude(r.MinLat) || !validator.IsValidLatitude(r.MaxLat) {
			errs = append(errs, validator.ValidationError{
				Field:   "viewport",
				Message: "latitude must be between -90 and 90",
			})
		}
		if !validator.IsValidLongitude(r.MinLon) || !validator.IsValidLongitude(r.MaxLon) {
			errs = append(errs, validator.ValidationError{
				Field:   "viewport",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ZoomToRequest is an aggregate-marker click
type ZoomToRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (r *ZoomToRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidLatitude(r.Lat) {
		errs = append(errs, validator.ValidationError{
			Field:   "lat",
			Message: "lat must be between -90 and 90",
		})
	}
	if !validator.IsValidLongitude(r.Lon) {
		errs = append(errs, validator.ValidationError{
			Field:   "lon",
			Message: "lon must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Marker is one rendered map marker, plain or aggregate
type Marker struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Count    int      `json:"count"`
	Color    string   `json:"color"`
	Focused  bool     `json:"focused"`
	RadiusM  float64  `json:"radius_m,omitempty"`
	EventIDs []string `json:"event_ids"`

	// set only for plain markers
	Event *MapEvent `json:"event,omitempty"`
}

// MarkersResponse is the state of the map view after a recompute
type MarkersResponse struct {
	Markers         []Marker              `json:"markers"`
	Viewport        geocluster.Viewport   `json:"viewport"`
	ViewportVersion uint64                `json:"viewport_version"`
	Fit             *geocluster.FitResult `json:"fit,omitempty"`
	TotalEvents     int                   `json:"total_events"`
}
