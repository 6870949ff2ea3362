package directory

import (
	"context"
	"encoding/json"

	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

// DirectoryService proxies the admin CRUD resources of the core API. The
// console adds no business logic here beyond validation of coordinate
// payloads; everything else is forwarded as-is.
type DirectoryService interface {
	ListEmployees(ctx context.Context, sess *session.Session, p ListParams) (ListResult[Employee], error)
	ListDepartments(ctx context.Context, sess *session.Session, p ListParams) (ListResult[Department], error)
	ListRegions(ctx context.Context, sess *session.Session, p ListParams) (ListResult[Region], error)
	ListDevices(ctx context.Context, sess *session.Session, p ListParams) (ListResult[Device], error)
	ListQRPoints(ctx context.Context, sess *session.Session, p ListParams) (ListResult[QRPoint], error)
	ListSchedules(ctx context.Context, sess *session.Session, p ListParams) (ListResult[Schedule], error)
	ListLeaves(ctx context.Context, sess *session.Session, p ListParams) (ListResult[Leave], error)
	ListNotifications(ctx context.Context, sess *session.Session, p ListParams) (ListResult[Notification], error)
	ListAuditLogs(ctx context.Context, sess *session.Session, p ListParams) (ListResult[AuditLog], error)

	CreateQRPoint(ctx context.Context, sess *session.Session, req QRPointRequest) (QRPoint, error)
	UpdateQRPoint(ctx context.Context, sess *session.Session, id string, req QRPointRequest) (QRPoint, error)

	Get(ctx context.Context, sess *session.Session, kind, id string) (json.RawMessage, error)
	Create(ctx context.Context, sess *session.Session, kind string, body json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, sess *session.Session, kind, id string, body json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, sess *session.Session, kind, id string) error
}
