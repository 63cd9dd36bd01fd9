package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	auditmodels "shelterhub/internal/audit/models"
	auditstore "shelterhub/internal/audit/store"
	authmodels "shelterhub/internal/auth/models"
	authservice "shelterhub/internal/auth/service"
	photostore "shelterhub/internal/photo/store"
	"shelterhub/internal/shelter/models"
	"shelterhub/internal/shelter/service"
	"shelterhub/internal/shelter/store"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/requestcontext"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type ServiceSuite struct {
	suite.Suite
	shelters *store.InMemoryStore
	links    *store.InMemoryLinkStore
	audit    *auditstore.InMemoryStore
	blobs    *photostore.InMemoryStore
	service  *service.Service
	ctx      context.Context

	admin *authmodels.Principal
	c1    *authmodels.Principal
	c2    *authmodels.Principal
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.shelters = store.NewInMemoryStore()
	s.links = store.NewInMemoryLinkStore()
	s.audit = auditstore.NewInMemoryStore()
	s.blobs = photostore.NewInMemoryStore()
	s.service = s.newService(s.audit)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	s.admin = &authmodels.Principal{ID: authmodels.AdminSubject, DisplayName: "Administrator", Role: authmodels.RoleAdmin}
	s.c1 = &authmodels.Principal{ID: "c1", DisplayName: "Company One", Role: authmodels.RoleCompany}
	s.c2 = &authmodels.Principal{ID: "c2", DisplayName: "Company Two", Role: authmodels.RoleCompany}
}

func (s *ServiceSuite) newService(audit service.AuditStore) *service.Service {
	stores := service.Stores{Shelters: s.shelters, Links: s.links, Audit: audit, Blobs: s.blobs}
	guard := authservice.New(nil, nil, nil, nil)
	return service.New(service.NewMemoryTx(stores), stores, guard, service.WithMaxUploadBytes(1024))
}

func ptr[T any](v T) *T { return &v }

func civicHall() *models.Draft {
	return &models.Draft{
		Name:             "Civic Hall",
		Address:          "Nishi-Shinjuku",
		Latitude:         ptr(35.69),
		Longitude:        ptr(139.70),
		Capacity:         100,
		CurrentOccupancy: 10,
		Status:           models.StatusOpen,
	}
}

func (s *ServiceSuite) create(p *authmodels.Principal, name string) *models.Shelter {
	d := civicHall()
	d.Name = name
	sh, err := s.service.Create(s.ctx, p, d)
	s.Require().NoError(err)
	return sh
}

func (s *ServiceSuite) auditEntries() []*auditmodels.Entry {
	entries, err := s.audit.ListRecent(context.Background(), 0)
	s.Require().NoError(err)
	return entries
}

func (s *ServiceSuite) TestCivicHallScenario() {
	sh, err := s.service.Create(s.ctx, s.c1, civicHall())
	s.Require().NoError(err)
	s.Equal("c1", sh.OwnerID)

	entries := s.auditEntries()
	s.Require().Len(entries, 1)
	s.Equal(auditmodels.ActionCreate, entries[0].Action)
	s.Equal("c1", entries[0].Actor)

	_, err = s.service.Update(s.ctx, s.c2, sh.ID, &models.Patch{CurrentOccupancy: ptr(42)})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	got, err := s.service.Get(s.ctx, sh.ID)
	s.Require().NoError(err)
	s.Equal(10, got.CurrentOccupancy)
	s.Len(s.auditEntries(), 1)
}

func (s *ServiceSuite) TestCreateValidationWritesNothing() {
	d := civicHall()
	d.Latitude = ptr(120.0)
	_, err := s.service.Create(s.ctx, s.c1, d)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.auditEntries())
}

func (s *ServiceSuite) TestCreateStampsRequestTime() {
	sh := s.create(s.c1, "A")
	s.Equal(requestcontext.Now(s.ctx), sh.UpdatedAt)
	s.Equal(models.StatusOpen, sh.Status)
	s.Equal([]string{}, sh.PhotoIDs)
}

func (s *ServiceSuite) TestUpdateByOwnerAndAdmin() {
	sh := s.create(s.c1, "A")

	updated, err := s.service.Update(s.ctx, s.c1, sh.ID, &models.Patch{CurrentOccupancy: ptr(42)})
	s.Require().NoError(err)
	s.Equal(42, updated.CurrentOccupancy)
	s.Equal("A", updated.Name)

	updated, err = s.service.Update(s.ctx, s.admin, sh.ID, &models.Patch{Status: ptr(models.StatusClosed)})
	s.Require().NoError(err)
	s.Equal(models.StatusClosed, updated.Status)

	entries := s.auditEntries()
	s.Require().Len(entries, 3)
	s.Equal(auditmodels.ActionUpdate, entries[0].Action)
	s.Equal("admin", entries[0].Actor)
	s.JSONEq(`{"actor_name":"Administrator","fields":["status"]}`, string(entries[0].Details))
}

func (s *ServiceSuite) TestUpdateMissingIsNotFound() {
	_, err := s.service.Update(s.ctx, s.admin, 404, &models.Patch{Name: ptr("x")})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUnownedRecordIsAdminOnly() {
	seeded := civicHall().NewShelter("", time.Now())
	s.Require().NoError(s.shelters.Insert(context.Background(), seeded))

	_, err := s.service.Update(s.ctx, s.c1, seeded.ID, &models.Patch{Name: ptr("mine")})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Update(s.ctx, s.admin, seeded.ID, &models.Patch{Name: ptr("admin edit")})
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdateReplacesPhotoList() {
	sh := s.create(s.c1, "A")
	first, _, err := s.service.UploadPhotos(s.ctx, s.c1, sh.ID, []service.Upload{{Filename: "a.png", Data: pngBytes}})
	s.Require().NoError(err)
	s.Require().Len(first.PhotoIDs, 1)

	updated, err := s.service.Update(s.ctx, s.c1, sh.ID, &models.Patch{PhotoIDs: &[]string{}})
	s.Require().NoError(err)
	s.Empty(updated.PhotoIDs)
}

func (s *ServiceSuite) TestDeleteCascadesLinks() {
	sh := s.create(s.c1, "A")
	_, ids, err := s.service.UploadPhotos(s.ctx, s.c1, sh.ID, []service.Upload{{Filename: "a.png", Data: pngBytes}})
	s.Require().NoError(err)
	s.Require().Len(ids, 1)

	s.True(dErrors.HasCode(s.service.Delete(s.ctx, s.c2, sh.ID), dErrors.CodeForbidden))
	s.Require().NoError(s.service.Delete(s.ctx, s.c1, sh.ID))

	links, err := s.links.ListByShelter(context.Background(), sh.ID)
	s.Require().NoError(err)
	s.Empty(links)
	_, err = s.service.Get(s.ctx, sh.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, s.c1, sh.ID), dErrors.CodeNotFound))

	photo, err := s.service.Photo(s.ctx, ids[0])
	s.Require().NoError(err)
	s.Equal("image/png", photo.ContentType)
}

func (s *ServiceSuite) TestBulkUpdateIsAllOrNothing() {
	a := s.create(s.c1, "A")
	b := s.create(s.c2, "B")
	before := len(s.auditEntries())

	_, err := s.service.BulkUpdate(s.ctx, s.c1, []int64{a.ID, b.ID}, models.BulkPatch{CurrentOccupancy: ptr(99)})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	for _, id := range []int64{a.ID, b.ID} {
		got, err := s.service.Get(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(10, got.CurrentOccupancy)
	}
	s.Len(s.auditEntries(), before)
}

func (s *ServiceSuite) TestBulkUpdateWritesOneAuditEntry() {
	a := s.create(s.c1, "A")
	b := s.create(s.c1, "B")

	updated, err := s.service.BulkUpdate(s.ctx, s.c1, []int64{a.ID, b.ID, a.ID, 999}, models.BulkPatch{Status: ptr(models.StatusClosed)})
	s.Require().NoError(err)
	s.Require().Len(updated, 2)
	for _, sh := range updated {
		s.Equal(models.StatusClosed, sh.Status)
	}

	entries := s.auditEntries()
	s.Require().Len(entries, 3)
	s.Equal(auditmodels.ActionBulkUpdate, entries[0].Action)
	s.Nil(entries[0].ShelterID)
	s.Contains(string(entries[0].Details), `"shelter_ids":[1,2]`)
}

func (s *ServiceSuite) TestBulkOpsNotFoundWhenNothingMatches() {
	_, err := s.service.BulkUpdate(s.ctx, s.admin, []int64{7, 8}, models.BulkPatch{CurrentOccupancy: ptr(1)})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.BulkDelete(s.ctx, s.admin, []int64{7, 8})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.BulkDelete(s.ctx, s.admin, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.auditEntries())
}

func (s *ServiceSuite) TestBulkDelete() {
	a := s.create(s.c1, "A")
	b := s.create(s.c2, "B")

	_, err := s.service.BulkDelete(s.ctx, s.c1, []int64{a.ID, b.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	deleted, err := s.service.BulkDelete(s.ctx, s.admin, []int64{a.ID, b.ID})
	s.Require().NoError(err)
	s.Equal([]int64{a.ID, b.ID}, deleted)

	list, err := s.service.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Empty(list)
	s.Equal(auditmodels.ActionBulkDelete, s.auditEntries()[0].Action)
}

func (s *ServiceSuite) TestAttachPhotosIsIdempotent() {
	sh := s.create(s.c1, "A")
	photo, err := s.service.StoreBlob(s.ctx, s.c1, service.Upload{Filename: "a.png", Data: pngBytes})
	s.Require().NoError(err)

	_, err = s.service.AttachPhotos(s.ctx, s.c1, sh.ID, []string{photo.ID})
	s.Require().NoError(err)
	again, err := s.service.AttachPhotos(s.ctx, s.c1, sh.ID, []string{photo.ID})
	s.Require().NoError(err)
	s.Equal([]string{photo.ID}, again.PhotoIDs)
}

func (s *ServiceSuite) TestAttachUnknownPhotoRejected() {
	sh := s.create(s.c1, "A")
	_, err := s.service.AttachPhotos(s.ctx, s.c1, sh.ID, []string{"6f1c2f3e-0000-4000-8000-000000000000"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateWithUnknownPhotoRejected() {
	d := civicHall()
	d.PhotoIDs = []string{"6f1c2f3e-0000-4000-8000-000000000000"}
	_, err := s.service.Create(s.ctx, s.c1, d)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	list, err := s.service.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Empty(list)
	s.Empty(s.auditEntries())
}

func (s *ServiceSuite) TestUpdateWithUnknownPhotoRejected() {
	sh := s.create(s.c1, "A")
	_, ids, err := s.service.UploadPhotos(s.ctx, s.c1, sh.ID, []service.Upload{{Filename: "a.png", Data: pngBytes}})
	s.Require().NoError(err)
	before := len(s.auditEntries())

	_, err = s.service.Update(s.ctx, s.c1, sh.ID, &models.Patch{
		Name:     ptr("Renamed"),
		PhotoIDs: &[]string{ids[0], "6f1c2f3e-0000-4000-8000-000000000000"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	got, err := s.service.Get(s.ctx, sh.ID)
	s.Require().NoError(err)
	s.Equal("A", got.Name)
	s.Equal(ids, got.PhotoIDs)
	s.Len(s.auditEntries(), before)
}

func (s *ServiceSuite) TestCreateWithUploadedPhoto() {
	blob, err := s.service.StoreBlob(s.ctx, s.c1, service.Upload{Filename: "a.png", Data: pngBytes})
	s.Require().NoError(err)

	d := civicHall()
	d.PhotoIDs = []string{blob.ID}
	sh, err := s.service.Create(s.ctx, s.c1, d)
	s.Require().NoError(err)
	s.Equal([]string{blob.ID}, sh.PhotoIDs)
}

func (s *ServiceSuite) TestUploadRejectsNonImage() {
	sh := s.create(s.c1, "A")
	_, _, err := s.service.UploadPhotos(s.ctx, s.c1, sh.ID, []service.Upload{{Filename: "x.txt", Data: []byte("hello")}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Len(s.auditEntries(), 1)
}

func (s *ServiceSuite) TestUploadByOtherCompanyForbidden() {
	sh := s.create(s.c1, "A")
	_, _, err := s.service.UploadPhotos(s.ctx, s.c2, sh.ID, []service.Upload{{Filename: "a.png", Data: pngBytes}})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestListFiltersAndRadius() {
	s.create(s.c1, "Civic Hall")
	far := civicHall()
	far.Name = "Osaka Dome"
	far.Latitude, far.Longitude = ptr(34.67), ptr(135.48)
	_, err := s.service.Create(s.ctx, s.c1, far)
	s.Require().NoError(err)

	near, err := s.service.List(s.ctx, models.Filter{Near: &models.Radius{Lat: 35.69, Lon: 139.70, DistanceKm: 5}})
	s.Require().NoError(err)
	s.Require().Len(near, 1)
	s.Equal("Civic Hall", near[0].Name)

	_, err = s.service.List(s.ctx, models.Filter{Near: &models.Radius{Lat: 35.69, Lon: 139.70, DistanceKm: -1}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

type failingAudit struct{}

func (failingAudit) Append(context.Context, *auditmodels.Entry) error {
	return errors.New("disk full")
}

func (s *ServiceSuite) TestAuditFailureRollsBackMutation() {
	sh := s.create(s.c1, "A")
	svc := s.newService(failingAudit{})

	_, err := svc.Update(s.ctx, s.c1, sh.ID, &models.Patch{CurrentOccupancy: ptr(77)})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.Create(s.ctx, s.c1, civicHall())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	list, err := s.service.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(10, list[0].CurrentOccupancy)
}

func (s *ServiceSuite) TestCancelledContextTimesOut() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.service.Create(ctx, s.c1, civicHall())
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}
