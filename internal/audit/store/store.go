// Package store persists audit entries. Appends join the caller's
// transaction so an entry exists iff its mutation committed.
package store

import (
	"context"

	"shelterhub/internal/audit/models"
)

// Store is the append-only audit log.
type Store interface {
	Append(ctx context.Context, entry *models.Entry) error
	// ListRecent returns entries newest first. limit <= 0 returns everything.
	ListRecent(ctx context.Context, limit int) ([]*models.Entry, error)
}
