package service

import (
	"context"
	"log/slog"

	"shelterhub/internal/audit/models"
	authmodels "shelterhub/internal/auth/models"
	dErrors "shelterhub/pkg/domain-errors"
)

// MaxLimit caps a single audit page.
const MaxLimit = 1000

type Store interface {
	ListRecent(ctx context.Context, limit int) ([]*models.Entry, error)
}

// Service exposes the audit log to administrators.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll returns entries newest first. A limit of 0 means no limit.
func (s *Service) ListAll(ctx context.Context, p *authmodels.Principal, limit int) ([]*models.Entry, error) {
	if p == nil || !p.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "audit log is restricted to administrators")
	}
	if limit < 0 || limit > MaxLimit {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be between 0 and 1000")
	}
	entries, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to list audit entries", "error", err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	return entries, nil
}
