package directory

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/cmlabs-hris/attendance-console-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
)

// kind → core API collection path
var resourcePaths = map[string]string{
	"employees":     "/api/admin/employees",
	"departments":   "/api/admin/departments",
	"regions":       "/api/admin/regions",
	"devices":       "/api/admin/devices",
	"qr-points":     "/api/admin/qr-points",
	"schedules":     "/api/admin/schedules",
	"leaves":        "/api/admin/leaves",
	"notifications": "/api/admin/notifications",
	"audit-logs":    "/api/admin/audit-logs",
}

// audit logs are append-only upstream
var readOnlyResources = map[string]bool{
	"audit-logs": true,
}

type pageEnvelope[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

type itemEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type DirectoryServiceImpl struct{}

func NewDirectoryService() directory.DirectoryService {
	return &DirectoryServiceImpl{}
}

func list[T any](ctx context.Context, sess *session.Session, path string, p directory.ListParams) (directory.ListResult[T], error) {
	p.Normalize()

	query := url.Values{}
	query.Set("offset", strconv.Itoa((p.Page-1)*p.Limit))
	query.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		query.Set("search", p.Search)
	}

	var page pageEnvelope[T]
	if err := sess.Client.Get(ctx, path, query, &page); err != nil {
		return directory.ListResult[T]{}, err
	}

	result := directory.ListResult[T]{
		Items:      page.Data,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalItems: page.Meta.TotalItems,
		TotalPages: page.Meta.TotalPages,
	}
	if result.Items == nil {
		result.Items = []T{}
	}
	return result, nil
}

// ListEmployees implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListEmployees(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.Employee], error) {
	return list[directory.Employee](ctx, sess, resourcePaths["employees"], p)
}

// ListDepartments implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListDepartments(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.Department], error) {
	return list[directory.Department](ctx, sess, resourcePaths["departments"], p)
}

// ListRegions implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListRegions(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.Region], error) {
	return list[directory.Region](ctx, sess, resourcePaths["regions"], p)
}

// ListDevices implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListDevices(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.Device], error) {
	return list[directory.Device](ctx, sess, resourcePaths["devices"], p)
}

// ListQRPoints implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListQRPoints(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.QRPoint], error) {
	return list[directory.QRPoint](ctx, sess, resourcePaths["qr-points"], p)
}

// ListSchedules implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListSchedules(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.Schedule], error) {
	return list[directory.Schedule](ctx, sess, resourcePaths["schedules"], p)
}

// ListLeaves implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListLeaves(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.Leave], error) {
	return list[directory.Leave](ctx, sess, resourcePaths["leaves"], p)
}

// ListNotifications implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListNotifications(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.Notification], error) {
	return list[directory.Notification](ctx, sess, resourcePaths["notifications"], p)
}

// ListAuditLogs implements directory.DirectoryService.
func (s *DirectoryServiceImpl) ListAuditLogs(ctx context.Context, sess *session.Session, p directory.ListParams) (directory.ListResult[directory.AuditLog], error) {
	return list[directory.AuditLog](ctx, sess, resourcePaths["audit-logs"], p)
}

// CreateQRPoint implements directory.DirectoryService.
func (s *DirectoryServiceImpl) CreateQRPoint(ctx context.Context, sess *session.Session, req directory.QRPointRequest) (directory.QRPoint, error) {
	if err := req.Validate(); err != nil {
		return directory.QRPoint{}, err
	}

	var out struct {
		Data directory.QRPoint `json:"data"`
	}
	if err := sess.Client.Post(ctx, resourcePaths["qr-points"], req, &out); err != nil {
		return directory.QRPoint{}, err
	}
	return out.Data, nil
}

// UpdateQRPoint implements directory.DirectoryService.
func (s *DirectoryServiceImpl) UpdateQRPoint(ctx context.Context, sess *session.Session, id string, req directory.QRPointRequest) (directory.QRPoint, error) {
	if err := req.Validate(); err != nil {
		return directory.QRPoint{}, err
	}

	var out struct {
		Data directory.QRPoint `json:"data"`
	}
	if err := sess.Client.Put(ctx, resourcePaths["qr-points"]+"/"+id, req, &out); err != nil {
		return directory.QRPoint{}, err
	}
	return out.Data, nil
}

// Get implements directory.DirectoryService.
func (s *DirectoryServiceImpl) Get(ctx context.Context, sess *session.Session, kind, id string) (json.RawMessage, error) {
	path, ok := resourcePaths[kind]
	if !ok {
		return nil, directory.ErrUnknownResource
	}

	var out itemEnvelope
	if err := sess.Client.Get(ctx, path+"/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Create implements directory.DirectoryService.
func (s *DirectoryServiceImpl) Create(ctx context.Context, sess *session.Session, kind string, body json.RawMessage) (json.RawMessage, error) {
	path, ok := resourcePaths[kind]
	if !ok || readOnlyResources[kind] {
		return nil, directory.ErrUnknownResource
	}

	var out itemEnvelope
	if err := sess.Client.Post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Update implements directory.DirectoryService.
func (s *DirectoryServiceImpl) Update(ctx context.Context, sess *session.Session, kind, id string, body json.RawMessage) (json.RawMessage, error) {
	path, ok := resourcePaths[kind]
	if !ok || readOnlyResources[kind] {
		return nil, directory.ErrUnknownResource
	}

	var out itemEnvelope
	if err := sess.Client.Put(ctx, path+"/"+id, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Delete implements directory.DirectoryService.
func (s *DirectoryServiceImpl) Delete(ctx context.Context, sess *session.Session, kind, id string) error {
	path, ok := resourcePaths[kind]
	if !ok || readOnlyResources[kind] {
		return directory.ErrUnknownResource
	}
	return sess.Client.Delete(ctx, path+"/"+id)
}
