package directory

import (
	"time"

	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/validator"
)

// ListParams are the common pagination/search knobs forwarded upstream
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 200 {
		p.Limit = 25
	}
}

// ListResult carries one upstream page plus its pagination meta
type ListResult[T any] struct {
	Items      []T
	Page       int
	Limit      int
	TotalItems int64
	TotalPages int
}

type Employee struct {
	ID             string  `json:"id"`
	Code           string  `json:"code"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	DepartmentID   string  `json:"department_id"`
	DepartmentName string  `json:"department_name"`
	RegionID       *string `json:"region_id"`
	Status         string  `json:"status"`
}

type Department struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RegionID      string `json:"region_id"`
	ManagerID     string `json:"manager_id"`
	EmployeeCount int    `json:"employee_count"`
}

type Region struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
}

type Device struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Serial     string     `json:"serial"`
	RegionID   string     `json:"region_id"`
	Online     bool       `json:"online"`
	LastSeenAt *time.Time `json:"last_seen_at"`
}

// QRPoint is a QR-code check-in location
type QRPoint struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	RadiusM  *float64 `json:"radius_m"`
	RegionID string   `json:"region_id"`
	Active   bool     `json:"active"`
}

type Schedule struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WeekPlan   string `json:"week_plan"`
	NightShift bool   `json:"night_shift"`
}

type Leave struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	Status     string `json:"status"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	CreatedAt time.Time `json:"created_at"`
}

// QRPointRequest covers create and update of a check-in point, the one
// resource the console validates itself because of the coordinate fields.
type QRPointRequest struct {
	Label    string   `json:"label"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	RadiusM  *float64 `json:"radius_m"`
	RegionID string   `json:"region_id"`
	Active   bool     `json:"active"`
}

func (r *QRPointRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Label) {
		errs = append(errs, validator.ValidationError{
			Field:   "label",
			Message: "label is required",
		})
	}
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
	if r.RadiusM != nil && *r.RadiusM <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_m",
			Message: "radius_m must be positive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
