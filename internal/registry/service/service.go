// Package service is the registry entry point: it resolves the caller,
// runs the shelter operation and announces committed changes.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	auditmodels "shelterhub/internal/audit/models"
	authmodels "shelterhub/internal/auth/models"
	"shelterhub/internal/broadcast"
	photomodels "shelterhub/internal/photo/models"
	"shelterhub/internal/shelter/models"
	shelterservice "shelterhub/internal/shelter/service"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/requestcontext"
)

const tracerName = "shelterhub/registry"

type Guard interface {
	Resolve(ctx context.Context, credential string) (*authmodels.Principal, error)
}

type Shelters interface {
	Create(ctx context.Context, p *authmodels.Principal, draft *models.Draft) (*models.Shelter, error)
	Get(ctx context.Context, id int64) (*models.Shelter, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Shelter, error)
	Update(ctx context.Context, p *authmodels.Principal, id int64, patch *models.Patch) (*models.Shelter, error)
	Delete(ctx context.Context, p *authmodels.Principal, id int64) error
	BulkUpdate(ctx context.Context, p *authmodels.Principal, ids []int64, patch models.BulkPatch) ([]*models.Shelter, error)
	BulkDelete(ctx context.Context, p *authmodels.Principal, ids []int64) ([]int64, error)
	AttachPhotos(ctx context.Context, p *authmodels.Principal, shelterID int64, photoIDs []string) (*models.Shelter, error)
	UploadPhotos(ctx context.Context, p *authmodels.Principal, shelterID int64, uploads []shelterservice.Upload) (*models.Shelter, []string, error)
	StoreBlob(ctx context.Context, p *authmodels.Principal, upload shelterservice.Upload) (*photomodels.Photo, error)
	Photo(ctx context.Context, id string) (*photomodels.Photo, error)
}

type AuditLog interface {
	ListAll(ctx context.Context, p *authmodels.Principal, limit int) ([]*auditmodels.Entry, error)
}

type Publisher interface {
	Publish(ctx context.Context, event broadcast.Event)
}

// PhotoResult lists newly stored photos.
type PhotoResult struct {
	PhotoIDs  []string `json:"photo_ids"`
	PhotoURLs []string `json:"photo_urls"`
}

func newPhotoResult(ids []string) *PhotoResult {
	return &PhotoResult{PhotoIDs: ids, PhotoURLs: photomodels.URLs(ids)}
}

type Service struct {
	guard     Guard
	shelters  Shelters
	audit     AuditLog
	publisher Publisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer overrides the global tracer provider.
func WithTracer(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(tracerName)
	}
}

func New(guard Guard, shelters Shelters, audit AuditLog, publisher Publisher, opts ...Option) *Service {
	s := &Service{
		guard:     guard,
		shelters:  shelters,
		audit:     audit,
		publisher: publisher,
		tracer:    otel.Tracer(tracerName),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, credential string, draft *models.Draft) (view *models.View, err error) {
	ctx, end := s.start(ctx, "registry.create")
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	sh, err := s.shelters.Create(ctx, p, draft)
	if err != nil {
		return nil, err
	}
	view = models.NewView(sh)
	s.publish(ctx, broadcast.Created(view))
	return view, nil
}

func (s *Service) Get(ctx context.Context, id int64) (view *models.View, err error) {
	ctx, end := s.start(ctx, "registry.get", attribute.Int64("shelter.id", id))
	defer func() { end(err) }()

	sh, err := s.shelters.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.NewView(sh), nil
}

func (s *Service) List(ctx context.Context, filter models.Filter) (views []*models.View, err error) {
	ctx, end := s.start(ctx, "registry.list")
	defer func() { end(err) }()

	shelters, err := s.shelters.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return models.NewViews(shelters), nil
}

func (s *Service) Update(ctx context.Context, credential string, id int64, patch *models.Patch) (view *models.View, err error) {
	ctx, end := s.start(ctx, "registry.update", attribute.Int64("shelter.id", id))
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	sh, err := s.shelters.Update(ctx, p, id, patch)
	if err != nil {
		return nil, err
	}
	view = models.NewView(sh)
	s.publish(ctx, broadcast.Updated(view))
	return view, nil
}

func (s *Service) Delete(ctx context.Context, credential string, id int64) (err error) {
	ctx, end := s.start(ctx, "registry.delete", attribute.Int64("shelter.id", id))
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return err
	}
	if err := s.shelters.Delete(ctx, p, id); err != nil {
		return err
	}
	s.publish(ctx, broadcast.Deleted(id))
	return nil
}

func (s *Service) BulkUpdate(ctx context.Context, credential string, ids []int64, patch models.BulkPatch) (views []*models.View, err error) {
	ctx, end := s.start(ctx, "registry.bulk_update", attribute.Int("shelter.count", len(ids)))
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	shelters, err := s.shelters.BulkUpdate(ctx, p, ids, patch)
	if err != nil {
		return nil, err
	}
	views = models.NewViews(shelters)
	s.publish(ctx, broadcast.BulkUpdated(views))
	return views, nil
}

func (s *Service) BulkDelete(ctx context.Context, credential string, ids []int64) (deleted []int64, err error) {
	ctx, end := s.start(ctx, "registry.bulk_delete", attribute.Int("shelter.count", len(ids)))
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	deleted, err = s.shelters.BulkDelete(ctx, p, ids)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, broadcast.BulkDeleted(deleted))
	return deleted, nil
}

// UploadPhotos stores files, links them to the shelter and announces the
// updated shelter.
func (s *Service) UploadPhotos(ctx context.Context, credential string, shelterID int64, uploads []shelterservice.Upload) (result *PhotoResult, err error) {
	ctx, end := s.start(ctx, "registry.upload_photos", attribute.Int64("shelter.id", shelterID), attribute.Int("photo.count", len(uploads)))
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	sh, ids, err := s.shelters.UploadPhotos(ctx, p, shelterID, uploads)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, broadcast.Updated(models.NewView(sh)))
	return newPhotoResult(ids), nil
}

// AttachPhotos links previously uploaded blobs to the shelter.
func (s *Service) AttachPhotos(ctx context.Context, credential string, shelterID int64, photoIDs []string) (view *models.View, err error) {
	ctx, end := s.start(ctx, "registry.attach_photos", attribute.Int64("shelter.id", shelterID))
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	sh, err := s.shelters.AttachPhotos(ctx, p, shelterID, photoIDs)
	if err != nil {
		return nil, err
	}
	view = models.NewView(sh)
	s.publish(ctx, broadcast.Updated(view))
	return view, nil
}

// UploadBlob stores one file without linking it.
func (s *Service) UploadBlob(ctx context.Context, credential string, upload shelterservice.Upload) (result *PhotoResult, err error) {
	ctx, end := s.start(ctx, "registry.upload_blob")
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	photo, err := s.shelters.StoreBlob(ctx, p, upload)
	if err != nil {
		return nil, err
	}
	return newPhotoResult([]string{photo.ID}), nil
}

func (s *Service) Photo(ctx context.Context, id string) (photo *photomodels.Photo, err error) {
	ctx, end := s.start(ctx, "registry.photo")
	defer func() { end(err) }()
	return s.shelters.Photo(ctx, id)
}

// AuditLog returns the newest entries first; admin only.
func (s *Service) AuditLog(ctx context.Context, credential string, limit int) (entries []*auditmodels.Entry, err error) {
	ctx, end := s.start(ctx, "registry.audit_log")
	defer func() { end(err) }()

	p, err := s.guard.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return s.audit.ListAll(ctx, p, limit)
}

// publish runs after commit. Delivery problems never reach the caller.
func (s *Service) publish(ctx context.Context, event broadcast.Event) {
	if s.publisher == nil {
		return
	}
	s.logger.DebugContext(ctx, "publishing change event",
		"action", event.Action,
		"key", event.Key(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.publisher.Publish(ctx, event)
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.SetAttributes(attribute.String("error.code", string(dErrors.CodeOf(err))))
			if dErrors.CodeOf(err) == dErrors.CodeInternal {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
	}
}
