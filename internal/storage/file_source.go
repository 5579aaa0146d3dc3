package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	apperrors "go-tamper-inspector/internal/errors"
	"go-tamper-inspector/pkg/models"
)

// FileScheme marks explicit local file references
const FileScheme = "file"

// FileSource reads images from the local filesystem. It is meant for the
// command line tool and is never exposed over HTTP.
type FileSource struct {
	maxBytes int64
}

// NewFileSource creates a local file source with a size limit
func NewFileSource(maxBytes int64) *FileSource {
	return &FileSource{maxBytes: maxBytes}
}

// Fetch reads ref, which is either a plain path or a file:// URL
func (s *FileSource) Fetch(ctx context.Context, ref string) (*models.ImageBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := ref
	if strings.HasPrefix(ref, FileScheme+"://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid file URL", err)
		}
		p = u.Path
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s does not exist", p), err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s is a directory", p), nil)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}

	data, err := readLimited(f, s.maxBytes)
	if err != nil {
		return nil, err
	}

	return &models.ImageBlob{
		Data:   data,
		Name:   filepath.Base(p),
		Source: ref,
	}, nil
}
