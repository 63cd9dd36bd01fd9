package models

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	dErrors "shelterhub/pkg/domain-errors"
)

// allowedTypes are the sniffed content types accepted for upload.
var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Photo is an opaque blob addressed by id.
type Photo struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// New validates data and builds a photo with a fresh id. The content type
// is sniffed from the bytes; the client-declared type is ignored.
func New(filename string, data []byte, maxBytes int64, now time.Time) (*Photo, error) {
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "photo is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, dErrors.New(dErrors.CodeValidation, "photo exceeds the upload size limit")
	}
	contentType := http.DetectContentType(data)
	if _, ok := allowedTypes[contentType]; !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unsupported photo type: "+contentType)
	}
	return &Photo{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   now,
	}, nil
}

// URL is the public path a photo is served from.
func URL(id string) string {
	return "/photos/" + id
}

// URLs maps ids to their public paths.
func URLs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = URL(id)
	}
	return out
}
