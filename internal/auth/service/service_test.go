package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"shelterhub/internal/auth/models"
	"shelterhub/internal/auth/service"
	"shelterhub/internal/auth/store/revocation"
	"shelterhub/internal/auth/token"
	"shelterhub/internal/identity/secrets"
	idstore "shelterhub/internal/identity/store"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/requestcontext"
)

type owned string

func (o owned) Owner() string { return string(o) }

type AuthServiceSuite struct {
	suite.Suite
	now        time.Time
	ctx        context.Context
	identities *idstore.InMemoryStore
	trl        *revocation.InMemoryTRL
	tokens     *token.JWTService
	svc        *service.Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.now = time.Now().Truncate(time.Second)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	hash, err := secrets.Hash("company-pass")
	s.Require().NoError(err)
	s.identities = idstore.NewInMemoryStore(idstore.Identity{
		ID: "c1", Email: "c1@example.com", DisplayName: "Company One", PasswordHash: hash,
	})
	s.trl = revocation.NewInMemoryTRL()
	s.tokens = token.NewJWTService("test-key", "shelterhub", time.Hour)
	s.svc = service.New(s.identities, s.trl, s.tokens, secrets.Verify, service.WithAdminKey("admin-key"))
}

func (s *AuthServiceSuite) TestAdminLoginResolvesWithoutLookup() {
	res, err := s.svc.Login(s.ctx, "admin", "admin-key")
	s.Require().NoError(err)
	s.Equal("bearer", res.TokenType)
	s.Equal(int64(3600), res.ExpiresIn)

	p, err := s.svc.Resolve(s.ctx, res.AccessToken)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, p.Role)
	s.Equal(models.AdminSubject, p.ID)
}

func (s *AuthServiceSuite) TestAdminLoginWrongKey() {
	_, err := s.svc.Login(s.ctx, "admin", "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
}

func (s *AuthServiceSuite) TestAdminLoginDisabledWithoutKey() {
	svc := service.New(s.identities, s.trl, s.tokens, secrets.Verify)
	_, err := svc.Login(s.ctx, "admin", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
}

func (s *AuthServiceSuite) TestCompanyLogin() {
	res, err := s.svc.Login(s.ctx, "C1@example.com", "company-pass")
	s.Require().NoError(err)

	p, err := s.svc.Resolve(s.ctx, res.AccessToken)
	s.Require().NoError(err)
	s.Equal("c1", p.ID)
	s.Equal("Company One", p.DisplayName)
	s.Equal(models.RoleCompany, p.Role)
}

func (s *AuthServiceSuite) TestCompanyLoginFailures() {
	_, err := s.svc.Login(s.ctx, "c1@example.com", "wrong")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))

	_, err = s.svc.Login(s.ctx, "nobody@example.com", "company-pass")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
}

func (s *AuthServiceSuite) TestResolveExpiredAgainstRequestTime() {
	signed, _, err := s.tokens.Issue("c1", models.RoleCompany, s.now)
	s.Require().NoError(err)

	later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
	_, err = s.svc.Resolve(later, signed)
	s.True(dErrors.HasCode(err, dErrors.CodeExpired))
}

func (s *AuthServiceSuite) TestResolveUnknownPrincipal() {
	signed, _, err := s.tokens.Issue("ghost", models.RoleCompany, s.now)
	s.Require().NoError(err)

	_, err = s.svc.Resolve(s.ctx, signed)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownPrincipal))
}

func (s *AuthServiceSuite) TestResolveRejectsForgedAdminSubject() {
	signed, _, err := s.tokens.Issue("c1", models.RoleAdmin, s.now)
	s.Require().NoError(err)

	_, err = s.svc.Resolve(s.ctx, signed)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
}

func (s *AuthServiceSuite) TestResolveMalformedAndEmpty() {
	_, err := s.svc.Resolve(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))

	_, err = s.svc.Resolve(s.ctx, "not.a.jwt")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
}

func (s *AuthServiceSuite) TestRevokeInvalidatesToken() {
	res, err := s.svc.Login(s.ctx, "c1@example.com", "company-pass")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Revoke(s.ctx, res.AccessToken))

	_, err = s.svc.Resolve(s.ctx, res.AccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
}

func (s *AuthServiceSuite) TestResolveRevocationStoreFailure() {
	svc := service.New(s.identities, failingTRL{}, s.tokens, secrets.Verify)
	signed, _, err := s.tokens.Issue("c1", models.RoleCompany, s.now)
	s.Require().NoError(err)

	_, err = svc.Resolve(s.ctx, signed)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *AuthServiceSuite) TestCanMutate() {
	admin := &models.Principal{ID: models.AdminSubject, Role: models.RoleAdmin}
	c1 := &models.Principal{ID: "c1", Role: models.RoleCompany}

	s.True(s.svc.CanMutate(admin, owned("c2")))
	s.True(s.svc.CanMutate(c1, owned("c1")))
	s.False(s.svc.CanMutate(c1, owned("c2")))
	s.False(s.svc.CanMutate(c1, nil))
}

type failingTRL struct{}

func (failingTRL) Revoke(context.Context, string, time.Duration) error { return errors.New("down") }
func (failingTRL) IsRevoked(context.Context, string) (bool, error) { return false, errors.New("down") }
