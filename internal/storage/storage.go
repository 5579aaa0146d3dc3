package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	apperrors "go-tamper-inspector/internal/errors"
	"go-tamper-inspector/pkg/models"
)

// ErrImageTooLarge is the cause attached when a source exceeds its byte limit
var ErrImageTooLarge = errors.New("image exceeds size limit")

// ImageSource retrieves raw image bytes for a reference such as a URL
type ImageSource interface {
	Fetch(ctx context.Context, ref string) (*models.ImageBlob, error)
}

// readLimited reads at most maxBytes from r. A non-positive limit reads everything.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	return data, nil
}

func tooLarge(maxBytes int64) error {
	return apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", maxBytes), ErrImageTooLarge)
}

// baseName returns the last path element, or "" for an empty or root path
func baseName(p string) string {
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func isTooLarge(err error) bool {
	return errors.Is(err, ErrImageTooLarge)
}
