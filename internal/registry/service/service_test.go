package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/trace/noop"

	auditmodels "shelterhub/internal/audit/models"
	auditservice "shelterhub/internal/audit/service"
	auditstore "shelterhub/internal/audit/store"
	authmodels "shelterhub/internal/auth/models"
	authservice "shelterhub/internal/auth/service"
	"shelterhub/internal/auth/store/revocation"
	"shelterhub/internal/auth/token"
	"shelterhub/internal/broadcast"
	"shelterhub/internal/identity/secrets"
	idstore "shelterhub/internal/identity/store"
	photostore "shelterhub/internal/photo/store"
	"shelterhub/internal/registry/service"
	"shelterhub/internal/shelter/models"
	shelterservice "shelterhub/internal/shelter/service"
	shelterstore "shelterhub/internal/shelter/store"
	dErrors "shelterhub/pkg/domain-errors"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type recordingPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event broadcast.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]broadcast.Event(nil), p.events...)
}

// failingAudit appends through to the in-memory store and then reports a
// storage error while failNext is set.
type failingAudit struct {
	*auditstore.InMemoryStore
	failNext bool
}

func (a *failingAudit) Append(ctx context.Context, entry *auditmodels.Entry) error {
	if err := a.InMemoryStore.Append(ctx, entry); err != nil {
		return err
	}
	if a.failNext {
		return errors.New("disk full")
	}
	return nil
}

type RegistrySuite struct {
	suite.Suite
	registry  *service.Service
	publisher *recordingPublisher
	audit     *failingAudit
	tokens    *token.JWTService
	ctx       context.Context
	admin     string
	c1        string
	c2        string
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.tokens = token.NewJWTService("test-signing-key-with-enough-entropy", "shelterhub", time.Hour)
	identities := idstore.NewInMemoryStore(
		idstore.Identity{ID: "c1", Email: "c1@example.com", DisplayName: "Company One"},
		idstore.Identity{ID: "c2", Email: "c2@example.com", DisplayName: "Company Two"},
	)
	guard := authservice.New(identities, revocation.NewInMemoryTRL(), s.tokens, secrets.Verify, authservice.WithAdminKey("admin-key"))

	s.audit = &failingAudit{InMemoryStore: auditstore.NewInMemoryStore()}
	stores := shelterservice.Stores{
		Shelters: shelterstore.NewInMemoryStore(),
		Links:    shelterstore.NewInMemoryLinkStore(),
		Audit:    s.audit,
		Blobs:    photostore.NewInMemoryStore(),
	}
	shelters := shelterservice.New(shelterservice.NewMemoryTx(stores), stores, guard)

	s.publisher = &recordingPublisher{}
	s.registry = service.New(guard, shelters, auditservice.New(s.audit.InMemoryStore), s.publisher,
		service.WithTracer(noop.NewTracerProvider()))

	s.admin = s.issue(authmodels.AdminSubject, authmodels.RoleAdmin)
	s.c1 = s.issue("c1", authmodels.RoleCompany)
	s.c2 = s.issue("c2", authmodels.RoleCompany)
}

func (s *RegistrySuite) issue(subject string, role authmodels.Role) string {
	tok, _, err := s.tokens.Issue(subject, role, time.Now())
	s.Require().NoError(err)
	return tok
}

func ptr[T any](v T) *T { return &v }

func draft(name string) *models.Draft {
	return &models.Draft{
		Name:             name,
		Address:          "Nishi-Shinjuku",
		Latitude:         ptr(35.69),
		Longitude:        ptr(139.70),
		Capacity:         100,
		CurrentOccupancy: 10,
	}
}

func (s *RegistrySuite) TestCreatePublishesAfterCommit() {
	view, err := s.registry.Create(s.ctx, s.c1, draft("Civic Hall"))
	s.Require().NoError(err)
	s.Equal("c1", view.OwnerID)
	s.Equal([]string{}, view.PhotoURLs)

	events := s.publisher.all()
	s.Require().Len(events, 1)
	s.Equal(broadcast.ActionCreate, events[0].Action)
	s.Equal(view.ID, *events[0].ShelterID)
}

func (s *RegistrySuite) TestRejectedCredentialTouchesNothing() {
	_, err := s.registry.Create(s.ctx, "garbage", draft("Civic Hall"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))

	list, err := s.registry.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Empty(list)
	s.Empty(s.publisher.all())
}

func (s *RegistrySuite) TestUnknownCompanyPrincipal() {
	ghost := s.issue("c9", authmodels.RoleCompany)
	_, err := s.registry.Create(s.ctx, ghost, draft("Civic Hall"))
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownPrincipal))
}

func (s *RegistrySuite) TestForbiddenUpdateIsNotPublished() {
	view, err := s.registry.Create(s.ctx, s.c1, draft("Civic Hall"))
	s.Require().NoError(err)

	_, err = s.registry.Update(s.ctx, s.c2, view.ID, &models.Patch{CurrentOccupancy: ptr(42)})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Len(s.publisher.all(), 1)

	got, err := s.registry.Get(s.ctx, view.ID)
	s.Require().NoError(err)
	s.Equal(10, got.CurrentOccupancy)
}

func (s *RegistrySuite) TestStorageFailureIsNotPublished() {
	view, err := s.registry.Create(s.ctx, s.c1, draft("Civic Hall"))
	s.Require().NoError(err)
	s.Require().Len(s.publisher.all(), 1)

	s.audit.failNext = true
	_, err = s.registry.Create(s.ctx, s.c1, draft("Annex"))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	_, err = s.registry.Update(s.ctx, s.c1, view.ID, &models.Patch{CurrentOccupancy: ptr(42)})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	_, err = s.registry.BulkUpdate(s.ctx, s.c1, []int64{view.ID}, models.BulkPatch{Status: ptr(models.StatusClosed)})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.True(dErrors.HasCode(s.registry.Delete(s.ctx, s.c1, view.ID), dErrors.CodeInternal))
	s.audit.failNext = false

	s.Len(s.publisher.all(), 1)

	entries, err := s.registry.AuditLog(s.ctx, s.admin, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(auditmodels.ActionCreate, entries[0].Action)

	list, err := s.registry.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(10, list[0].CurrentOccupancy)
	s.Equal(models.StatusOpen, list[0].Status)
}

func (s *RegistrySuite) TestDeleteAndBulkEvents() {
	a, err := s.registry.Create(s.ctx, s.c1, draft("A"))
	s.Require().NoError(err)
	b, err := s.registry.Create(s.ctx, s.c1, draft("B"))
	s.Require().NoError(err)
	c, err := s.registry.Create(s.ctx, s.c1, draft("C"))
	s.Require().NoError(err)

	_, err = s.registry.BulkUpdate(s.ctx, s.c1, []int64{a.ID, b.ID}, models.BulkPatch{Status: ptr(models.StatusClosed)})
	s.Require().NoError(err)
	s.Require().NoError(s.registry.Delete(s.ctx, s.c1, c.ID))
	deleted, err := s.registry.BulkDelete(s.ctx, s.admin, []int64{a.ID, b.ID})
	s.Require().NoError(err)
	s.Equal([]int64{a.ID, b.ID}, deleted)

	events := s.publisher.all()
	s.Require().Len(events, 6)
	s.Equal(broadcast.ActionBulkUpdate, events[3].Action)
	s.Equal([]int64{a.ID, b.ID}, events[3].ShelterIDs)
	s.Len(events[3].Shelters, 2)
	s.Equal(broadcast.ActionDelete, events[4].Action)
	s.True(events[4].Deleted)
	s.Equal(broadcast.ActionBulkDelete, events[5].Action)
	s.True(events[5].Deleted)
}

func (s *RegistrySuite) TestUploadPhotosReturnsURLsAndPublishesUpdate() {
	view, err := s.registry.Create(s.ctx, s.c1, draft("Civic Hall"))
	s.Require().NoError(err)

	result, err := s.registry.UploadPhotos(s.ctx, s.c1, view.ID, []shelterservice.Upload{{Filename: "door.png", Data: pngBytes}})
	s.Require().NoError(err)
	s.Require().Len(result.PhotoIDs, 1)
	s.Equal("/photos/"+result.PhotoIDs[0], result.PhotoURLs[0])

	events := s.publisher.all()
	s.Require().Len(events, 2)
	s.Equal(broadcast.ActionUpdate, events[1].Action)
	s.Equal(result.PhotoURLs, events[1].Shelter.PhotoURLs)

	photo, err := s.registry.Photo(s.ctx, result.PhotoIDs[0])
	s.Require().NoError(err)
	s.Equal("image/png", photo.ContentType)
}

func (s *RegistrySuite) TestUploadBlobThenAttach() {
	view, err := s.registry.Create(s.ctx, s.c1, draft("Civic Hall"))
	s.Require().NoError(err)

	blob, err := s.registry.UploadBlob(s.ctx, s.c1, shelterservice.Upload{Filename: "a.png", Data: pngBytes})
	s.Require().NoError(err)

	attached, err := s.registry.AttachPhotos(s.ctx, s.c1, view.ID, blob.PhotoIDs)
	s.Require().NoError(err)
	s.Equal(blob.PhotoURLs, attached.PhotoURLs)
}

func (s *RegistrySuite) TestAuditLogAdminOnly() {
	_, err := s.registry.Create(s.ctx, s.c1, draft("Civic Hall"))
	s.Require().NoError(err)

	_, err = s.registry.AuditLog(s.ctx, s.c1, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	entries, err := s.registry.AuditLog(s.ctx, s.admin, 50)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *RegistrySuite) TestNilPublisherIsAllowed() {
	registry := service.New(nil, nil, nil, nil)
	s.NotNil(registry)
}
