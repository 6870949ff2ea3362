package event

import "time"

// Event type as reported by the core API
const (
	TypeIn  = "IN"
	TypeOut = "OUT"
)

// Location status of a check event
const (
	LocationVerified   = "verified"
	LocationUnverified = "unverified"
	LocationNone       = "no_location"
)

// MapEvent is one check-in/out as rendered on the live map. Produced by the
// core API and immutable on the console side.
type MapEvent struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employee_id"`
	EmployeeName   string    `json:"employee_name"`
	DepartmentName string    `json:"department_name"`
	Lat            *float64  `json:"lat"`
	Lon            *float64  `json:"lon"`
	AccuracyM      *float64  `json:"accuracy_m"`
	Type           string    `json:"type"`
	LocationStatus string    `json:"location_status"`
	TsUTC          time.Time `json:"ts_utc"`
}

// HasCoordinates reports whether the event can be placed on the map at all.
// Events without coordinates never reach the clustering stage.
func (e MapEvent) HasCoordinates() bool {
	return e.Lat != nil && e.Lon != nil
}
