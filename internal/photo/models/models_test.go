package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "shelterhub/pkg/domain-errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNewSniffsContentType(t *testing.T) {
	p, err := New("door.png", pngHeader, 1024, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "image/png", p.ContentType)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		max  int64
	}{
		{name: "empty", data: nil, max: 1024},
		{name: "too large", data: pngHeader, max: 4},
		{name: "not an image", data: []byte("<html><body>hi</body></html>"), max: 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("x", tt.data, tt.max, time.Now())
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func TestURLs(t *testing.T) {
	assert.Equal(t, []string{"/photos/a", "/photos/b"}, URLs([]string{"a", "b"}))
	assert.Empty(t, URLs(nil))
}
