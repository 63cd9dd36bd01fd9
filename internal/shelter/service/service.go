package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	auditmodels "shelterhub/internal/audit/models"
	authmodels "shelterhub/internal/auth/models"
	authservice "shelterhub/internal/auth/service"
	photomodels "shelterhub/internal/photo/models"
	"shelterhub/internal/platform/metrics"
	"shelterhub/internal/shelter/models"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/platform/sentinel"
	"shelterhub/pkg/requestcontext"
)

type ShelterStore interface {
	Insert(ctx context.Context, shelter *models.Shelter) error
	FindByID(ctx context.Context, id int64) (*models.Shelter, error)
	FindForUpdate(ctx context.Context, id int64) (*models.Shelter, error)
	FindManyForUpdate(ctx context.Context, ids []int64) ([]*models.Shelter, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Shelter, error)
	Save(ctx context.Context, shelter *models.Shelter) error
	Delete(ctx context.Context, id int64) error
}

type LinkStore interface {
	Attach(ctx context.Context, shelterID int64, photoIDs []string, now time.Time) error
	Replace(ctx context.Context, shelterID int64, photoIDs []string, now time.Time) error
	ListByShelter(ctx context.Context, shelterID int64) ([]string, error)
	ListByShelters(ctx context.Context, shelterIDs []int64) (map[int64][]string, error)
	DeleteByShelter(ctx context.Context, shelterIDs ...int64) error
}

type AuditStore interface {
	Append(ctx context.Context, entry *auditmodels.Entry) error
}

type BlobStore interface {
	Put(ctx context.Context, photo *photomodels.Photo) error
	Get(ctx context.Context, id string) (*photomodels.Photo, error)
}

// Stores is the set of stores that take part in one unit of work.
type Stores struct {
	Shelters ShelterStore
	Links    LinkStore
	Audit    AuditStore
	Blobs    BlobStore
}

// Authorizer decides whether a principal may change an owned record.
type Authorizer interface {
	CanMutate(p *authmodels.Principal, rec authservice.Owned) bool
}

// Upload is one file received for a shelter.
type Upload struct {
	Filename string
	Data     []byte
}

// Service owns the shelter table. Every mutation runs in one transaction
// together with its audit entry.
type Service struct {
	tx        TxRunner
	reads     Stores
	auth      Authorizer
	maxUpload int64
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxUploadBytes bounds the size of a single photo.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		s.maxUpload = n
	}
}

// New builds the service. reads serves queries outside a transaction.
func New(tx TxRunner, reads Stores, auth Authorizer, opts ...Option) *Service {
	s := &Service{
		tx:    tx,
		reads: reads,
		auth:  auth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a shelter owned by p.
func (s *Service) Create(ctx context.Context, p *authmodels.Principal, draft *models.Draft) (*models.Shelter, error) {
	if p == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	now := requestcontext.Now(ctx)

	var created *models.Shelter
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		sh := draft.NewShelter(p.ID, now)
		if err := requireBlobs(ctx, stores, sh.PhotoIDs); err != nil {
			return err
		}
		if err := stores.Shelters.Insert(ctx, sh); err != nil {
			return err
		}
		if len(sh.PhotoIDs) > 0 {
			if err := stores.Links.Attach(ctx, sh.ID, sh.PhotoIDs, now); err != nil {
				return err
			}
		}
		if err := s.appendAudit(ctx, stores, auditmodels.ActionCreate, &sh.ID, p, now, auditmodels.Details{PhotoIDs: sh.PhotoIDs}); err != nil {
			return err
		}
		if sh.PhotoIDs == nil {
			sh.PhotoIDs = []string{}
		}
		created = sh
		return nil
	})
	s.observe(auditmodels.ActionCreate, start, err)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to create shelter")
	}
	s.logAudit(ctx, auditmodels.ActionCreate, p, "shelter_id", created.ID)
	return created, nil
}

// Get returns one shelter with its photo ids.
func (s *Service) Get(ctx context.Context, id int64) (*models.Shelter, error) {
	sh, err := s.reads.Shelters.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load shelter")
	}
	if sh.PhotoIDs, err = s.reads.Links.ListByShelter(ctx, id); err != nil {
		return nil, s.translate(ctx, err, "failed to load shelter photos")
	}
	return sh, nil
}

// List returns every shelter matching filter in insertion order.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Shelter, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	shelters, err := s.reads.Shelters.List(ctx, filter)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list shelters")
	}
	if err := hydrate(ctx, s.reads.Links, shelters); err != nil {
		return nil, s.translate(ctx, err, "failed to load shelter photos")
	}
	if shelters == nil {
		shelters = []*models.Shelter{}
	}
	return shelters, nil
}

// Update merges patch into the shelter if p may change it.
func (s *Service) Update(ctx context.Context, p *authmodels.Principal, id int64, patch *models.Patch) (*models.Shelter, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	now := requestcontext.Now(ctx)

	var updated *models.Shelter
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		sh, err := s.lockOwned(ctx, stores, p, id)
		if err != nil {
			return err
		}
		patch.Apply(sh, now)
		if patch.PhotoIDs != nil {
			if err := requireBlobs(ctx, stores, sh.PhotoIDs); err != nil {
				return err
			}
		}
		if err := stores.Shelters.Save(ctx, sh); err != nil {
			return err
		}
		if patch.PhotoIDs != nil {
			if err := stores.Links.Replace(ctx, sh.ID, sh.PhotoIDs, now); err != nil {
				return err
			}
		}
		if sh.PhotoIDs, err = stores.Links.ListByShelter(ctx, sh.ID); err != nil {
			return err
		}
		details := auditmodels.Details{Fields: patch.Fields()}
		if err := s.appendAudit(ctx, stores, auditmodels.ActionUpdate, &sh.ID, p, now, details); err != nil {
			return err
		}
		updated = sh
		return nil
	})
	s.observe(auditmodels.ActionUpdate, start, err)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to update shelter")
	}
	s.logAudit(ctx, auditmodels.ActionUpdate, p, "shelter_id", id)
	return updated, nil
}

// Delete removes the shelter and its photo links if p may change it.
func (s *Service) Delete(ctx context.Context, p *authmodels.Principal, id int64) error {
	start := time.Now()
	now := requestcontext.Now(ctx)

	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		if _, err := s.lockOwned(ctx, stores, p, id); err != nil {
			return err
		}
		if err := stores.Links.DeleteByShelter(ctx, id); err != nil {
			return err
		}
		if err := stores.Shelters.Delete(ctx, id); err != nil {
			return err
		}
		return s.appendAudit(ctx, stores, auditmodels.ActionDelete, &id, p, now, auditmodels.Details{})
	})
	s.observe(auditmodels.ActionDelete, start, err)
	if err != nil {
		return s.translate(ctx, err, "failed to delete shelter")
	}
	s.logAudit(ctx, auditmodels.ActionDelete, p, "shelter_id", id)
	return nil
}

// BulkUpdate applies patch to every existing shelter among ids. It fails
// with NotFound when none exist and Forbidden when p may not change any one
// of them; either way nothing is written.
func (s *Service) BulkUpdate(ctx context.Context, p *authmodels.Principal, ids []int64, patch models.BulkPatch) ([]*models.Shelter, error) {
	if err := models.ValidateIDs(ids); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	now := requestcontext.Now(ctx)

	var updated []*models.Shelter
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		shelters, err := s.lockManyOwned(ctx, stores, p, ids)
		if err != nil {
			return err
		}
		for _, sh := range shelters {
			patch.Apply(sh, now)
			if err := stores.Shelters.Save(ctx, sh); err != nil {
				return err
			}
		}
		if err := hydrate(ctx, stores.Links, shelters); err != nil {
			return err
		}
		details := auditmodels.Details{Fields: patch.Fields(), ShelterIDs: shelterIDs(shelters)}
		if err := s.appendAudit(ctx, stores, auditmodels.ActionBulkUpdate, nil, p, now, details); err != nil {
			return err
		}
		updated = shelters
		return nil
	})
	s.observe(auditmodels.ActionBulkUpdate, start, err)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to bulk update shelters")
	}
	s.logAudit(ctx, auditmodels.ActionBulkUpdate, p, "count", len(updated))
	return updated, nil
}

// BulkDelete removes every existing shelter among ids under the same rules
// as BulkUpdate. It returns the ids actually deleted.
func (s *Service) BulkDelete(ctx context.Context, p *authmodels.Principal, ids []int64) ([]int64, error) {
	if err := models.ValidateIDs(ids); err != nil {
		return nil, err
	}
	start := time.Now()
	now := requestcontext.Now(ctx)

	var deleted []int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		shelters, err := s.lockManyOwned(ctx, stores, p, ids)
		if err != nil {
			return err
		}
		found := shelterIDs(shelters)
		if err := stores.Links.DeleteByShelter(ctx, found...); err != nil {
			return err
		}
		for _, id := range found {
			if err := stores.Shelters.Delete(ctx, id); err != nil {
				return err
			}
		}
		if err := s.appendAudit(ctx, stores, auditmodels.ActionBulkDelete, nil, p, now, auditmodels.Details{ShelterIDs: found}); err != nil {
			return err
		}
		deleted = found
		return nil
	})
	s.observe(auditmodels.ActionBulkDelete, start, err)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to bulk delete shelters")
	}
	s.logAudit(ctx, auditmodels.ActionBulkDelete, p, "count", len(deleted))
	return deleted, nil
}

// AttachPhotos links existing blobs to a shelter. Pairs already linked are
// left as they are.
func (s *Service) AttachPhotos(ctx context.Context, p *authmodels.Principal, shelterID int64, photoIDs []string) (*models.Shelter, error) {
	if len(photoIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "photo_ids must not be empty")
	}
	if err := models.ValidatePhotoIDs(photoIDs); err != nil {
		return nil, err
	}
	return s.attach(ctx, p, shelterID, func(ctx context.Context, stores Stores) ([]string, error) {
		if err := requireBlobs(ctx, stores, photoIDs); err != nil {
			return nil, err
		}
		return photoIDs, nil
	})
}

// requireBlobs fails with a validation error if any id has no stored blob.
func requireBlobs(ctx context.Context, stores Stores, photoIDs []string) error {
	for _, id := range photoIDs {
		if _, err := stores.Blobs.Get(ctx, id); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeValidation, "unknown photo id: "+id)
			}
			return err
		}
	}
	return nil
}

// UploadPhotos stores each file as a blob and links it to the shelter.
// It returns the shelter and the ids of the new blobs.
func (s *Service) UploadPhotos(ctx context.Context, p *authmodels.Principal, shelterID int64, uploads []Upload) (*models.Shelter, []string, error) {
	if len(uploads) == 0 {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "at least one file is required")
	}
	now := requestcontext.Now(ctx)
	photos := make([]*photomodels.Photo, 0, len(uploads))
	for _, u := range uploads {
		photo, err := photomodels.New(u.Filename, u.Data, s.maxUpload, now)
		if err != nil {
			return nil, nil, err
		}
		photos = append(photos, photo)
	}

	var newIDs []string
	sh, err := s.attach(ctx, p, shelterID, func(ctx context.Context, stores Stores) ([]string, error) {
		ids := make([]string, 0, len(photos))
		for _, photo := range photos {
			if err := stores.Blobs.Put(ctx, photo); err != nil {
				return nil, err
			}
			ids = append(ids, photo.ID)
		}
		newIDs = ids
		return ids, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sh, newIDs, nil
}

func (s *Service) attach(ctx context.Context, p *authmodels.Principal, shelterID int64, collect func(ctx context.Context, stores Stores) ([]string, error)) (*models.Shelter, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)

	var result *models.Shelter
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		sh, err := s.lockOwned(ctx, stores, p, shelterID)
		if err != nil {
			return err
		}
		ids, err := collect(ctx, stores)
		if err != nil {
			return err
		}
		if err := stores.Links.Attach(ctx, sh.ID, ids, now); err != nil {
			return err
		}
		if sh.PhotoIDs, err = stores.Links.ListByShelter(ctx, sh.ID); err != nil {
			return err
		}
		details := auditmodels.Details{PhotoIDs: ids}
		if err := s.appendAudit(ctx, stores, auditmodels.ActionUploadPhoto, &sh.ID, p, now, details); err != nil {
			return err
		}
		result = sh
		return nil
	})
	s.observe(auditmodels.ActionUploadPhoto, start, err)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to attach photos")
	}
	s.logAudit(ctx, auditmodels.ActionUploadPhoto, p, "shelter_id", shelterID)
	return result, nil
}

// StoreBlob saves a photo without linking it to any shelter.
func (s *Service) StoreBlob(ctx context.Context, p *authmodels.Principal, upload Upload) (*photomodels.Photo, error) {
	if p == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	photo, err := photomodels.New(upload.Filename, upload.Data, s.maxUpload, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.reads.Blobs.Put(ctx, photo); err != nil {
		return nil, s.translate(ctx, err, "failed to store photo")
	}
	return photo, nil
}

// Photo returns a stored blob.
func (s *Service) Photo(ctx context.Context, id string) (*photomodels.Photo, error) {
	photo, err := s.reads.Blobs.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "photo not found")
	}
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load photo")
	}
	return photo, nil
}

// lockOwned loads and locks one shelter, failing with NotFound or Forbidden.
func (s *Service) lockOwned(ctx context.Context, stores Stores, p *authmodels.Principal, id int64) (*models.Shelter, error) {
	sh, err := stores.Shelters.FindForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.auth.CanMutate(p, sh) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to modify this shelter")
	}
	return sh, nil
}

func (s *Service) lockManyOwned(ctx context.Context, stores Stores, p *authmodels.Principal, ids []int64) ([]*models.Shelter, error) {
	shelters, err := stores.Shelters.FindManyForUpdate(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	if len(shelters) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no matching shelters")
	}
	for _, sh := range shelters {
		if !s.auth.CanMutate(p, sh) {
			return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to modify one or more shelters")
		}
	}
	return shelters, nil
}

func (s *Service) appendAudit(ctx context.Context, stores Stores, action auditmodels.Action, shelterID *int64, p *authmodels.Principal, now time.Time, details auditmodels.Details) error {
	details.ActorName = p.DisplayName
	details.ClientIP = requestcontext.ClientIP(ctx)
	details.ClientLabel = requestcontext.ClientLabel(ctx)
	details.RequestID = requestcontext.RequestID(ctx)
	entry, err := auditmodels.NewEntry(action, shelterID, p.ID, now, details)
	if err != nil {
		return err
	}
	return stores.Audit.Append(ctx, entry)
}

// translate maps store errors onto domain errors; domain errors pass through.
func (s *Service) translate(ctx context.Context, err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "shelter not found")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, msg, "error", err)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) observe(action auditmodels.Action, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMutation(string(action), start, err)
	}
}

func (s *Service) logAudit(ctx context.Context, action auditmodels.Action, p *authmodels.Principal, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs,
		"log_type", "audit",
		"action", string(action),
		"actor", p.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.InfoContext(ctx, string(action), args...)
}

func hydrate(ctx context.Context, links LinkStore, shelters []*models.Shelter) error {
	if len(shelters) == 0 {
		return nil
	}
	byShelter, err := links.ListByShelters(ctx, shelterIDs(shelters))
	if err != nil {
		return err
	}
	for _, sh := range shelters {
		sh.PhotoIDs = byShelter[sh.ID]
		if sh.PhotoIDs == nil {
			sh.PhotoIDs = []string{}
		}
	}
	return nil
}

func shelterIDs(shelters []*models.Shelter) []int64 {
	ids := make([]int64, len(shelters))
	for i, sh := range shelters {
		ids[i] = sh.ID
	}
	return ids
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
