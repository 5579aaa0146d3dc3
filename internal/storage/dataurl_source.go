package storage

import (
	"context"

	"github.com/vincent-petithory/dataurl"

	apperrors "go-tamper-inspector/internal/errors"
	"go-tamper-inspector/pkg/models"
)

// DataURLScheme is the scheme of inline base64 image uploads
const DataURLScheme = "data"

// DataURLSource decodes images embedded in data: URLs, the form a browser
// produces when reading a file for upload
type DataURLSource struct {
	maxBytes int64
}

// NewDataURLSource creates a data URL source with a decoded-size limit
func NewDataURLSource(maxBytes int64) *DataURLSource {
	return &DataURLSource{maxBytes: maxBytes}
}

// Fetch decodes ref. A "name" media type parameter becomes the blob name.
func (s *DataURLSource) Fetch(ctx context.Context, ref string) (*models.ImageBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	du, err := dataurl.DecodeString(ref)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid data URL", err)
	}
	if s.maxBytes > 0 && int64(len(du.Data)) > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}

	return &models.ImageBlob{
		Data:        du.Data,
		Name:        du.Params["name"],
		ContentType: du.ContentType(),
		Source:      "data:" + du.ContentType(),
	}, nil
}
