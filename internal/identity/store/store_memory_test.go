package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelterhub/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(Identity{ID: "c1", Email: "Ops@Example.com", DisplayName: "Company One", PasswordHash: "h"})

	got, err := s.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Company One", got.DisplayName)

	got, err = s.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(Identity{ID: "c1", Email: "a@b.c", DisplayName: "One"})

	got, err := s.FindByID(ctx, "c1")
	require.NoError(t, err)
	got.DisplayName = "mutated"

	again, err := s.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "One", again.DisplayName)
}
