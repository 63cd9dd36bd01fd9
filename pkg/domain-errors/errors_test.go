package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeForbidden, "not the owner")
	assert.True(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeForbidden))

	wrapped := fmt.Errorf("update: %w", err)
	assert.True(t, HasCode(wrapped, CodeForbidden))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load shelter")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestIsComparesCodeAndMessage(t *testing.T) {
	err := New(CodeExpired, "token has expired")
	require.ErrorIs(t, err, New(CodeExpired, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeExpired, "other"))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
