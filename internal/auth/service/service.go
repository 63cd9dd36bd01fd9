package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shelterhub/internal/auth/models"
	"shelterhub/internal/auth/token"
	idstore "shelterhub/internal/identity/store"
	"shelterhub/internal/platform/metrics"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/platform/sentinel"
	"shelterhub/pkg/requestcontext"
)

const adminDisplayName = "Administrator"

type IdentityStore interface {
	FindByID(ctx context.Context, id string) (*idstore.Identity, error)
	FindByEmail(ctx context.Context, email string) (*idstore.Identity, error)
}

type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier func(password, hash string) error

// Owned is anything carrying an owner principal id.
type Owned interface {
	Owner() string
}

// Service is the AuthGuard: it issues credentials and turns them back into principals.
type Service struct {
	identities  IdentityStore
	revocations RevocationList
	tokens      *token.JWTService
	verify      PasswordVerifier
	adminKey    string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(s *Service)

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

// WithAdminKey enables admin login with the given key.
func WithAdminKey(key string) Option {
	return func(s *Service) {
		s.adminKey = key
	}
}

func New(identities IdentityStore, revocations RevocationList, tokens *token.JWTService, verify PasswordVerifier, opts ...Option) *Service {
	s := &Service{
		identities:  identities,
		revocations: revocations,
		tokens:      tokens,
		verify:      verify,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve verifies credential and returns the principal behind it.
func (s *Service) Resolve(ctx context.Context, credential string) (*models.Principal, error) {
	p, err := s.resolve(ctx, credential)
	if err != nil {
		s.countFailure(err)
	}
	return p, err
}

func (s *Service) resolve(ctx context.Context, credential string) (*models.Principal, error) {
	claims, err := s.validate(ctx, credential)
	if err != nil {
		return nil, err
	}

	if claims.Role == models.RoleAdmin {
		if claims.Subject != models.AdminSubject {
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token claims")
		}
		return &models.Principal{ID: models.AdminSubject, DisplayName: adminDisplayName, Role: models.RoleAdmin}, nil
	}

	ident, err := s.identities.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnknownPrincipal, "unknown principal")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve principal")
	}
	return &models.Principal{ID: ident.ID, DisplayName: ident.DisplayName, Role: models.RoleCompany}, nil
}

// validate checks signature, expiry and revocation.
func (s *Service) validate(ctx context.Context, credential string) (*token.Claims, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "missing credential")
	}
	claims, err := s.tokens.Validate(credential, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token claims")
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token revocation")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "token has been revoked")
	}
	return claims, nil
}

// CanMutate reports whether p may change rec.
func (s *Service) CanMutate(p *models.Principal, rec Owned) bool {
	if rec == nil {
		return false
	}
	return p.CanMutate(rec.Owner())
}

// Login exchanges a username and password for an access token. The username
// "admin" authenticates with the admin key; anything else is a company email.
func (s *Service) Login(ctx context.Context, username, password string) (*models.TokenResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid credentials")
	}

	var (
		subject string
		role    models.Role
	)
	if username == models.AdminSubject {
		if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.adminKey)) != 1 {
			s.logAudit(ctx, "login_failed", "username", username)
			s.countFailure(dErrors.New(dErrors.CodeInvalidCredential, ""))
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid credentials")
		}
		subject, role = models.AdminSubject, models.RoleAdmin
	} else {
		ident, err := s.identities.FindByEmail(ctx, username)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				s.logAudit(ctx, "login_failed", "username", username)
				s.countFailure(dErrors.New(dErrors.CodeInvalidCredential, ""))
				return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid credentials")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		if err := s.verify(password, ident.PasswordHash); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvalidCredential) {
				s.logAudit(ctx, "login_failed", "username", username)
				s.countFailure(err)
				return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid credentials")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
		}
		subject, role = ident.ID, models.RoleCompany
	}

	signed, _, err := s.tokens.Issue(subject, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	s.logAudit(ctx, "token_issued", "subject", subject, "role", string(role))
	if s.metrics != nil {
		s.metrics.TokensIssued.WithLabelValues(string(role)).Inc()
	}
	return &models.TokenResult{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Revoke invalidates credential until it would have expired anyway.
func (s *Service) Revoke(ctx context.Context, credential string) error {
	claims, err := s.validate(ctx, credential)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logAudit(ctx, "token_revoked", "subject", claims.Subject)
	return nil
}

func (s *Service) countFailure(err error) {
	if s.metrics != nil {
		s.metrics.AuthFailures.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
