package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	trl := NewInMemoryTRL()
	base := time.Now()
	trl.clock = func() time.Time { return base }

	require.NoError(t, trl.Revoke(ctx, "jti-1", time.Minute))

	revoked, err := trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = trl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	trl.clock = func() time.Time { return base.Add(time.Minute) }
	revoked, err = trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "revocation lapses with the token")
}

func TestInMemoryTRLRejectsNonPositiveTTL(t *testing.T) {
	assert.Error(t, NewInMemoryTRL().Revoke(context.Background(), "jti", 0))
}
