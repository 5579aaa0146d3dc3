package repository

import (
	"context"
	"fmt"
	"strings"

	"go-tamper-inspector/internal/storage"
	"go-tamper-inspector/pkg/models"
)

// SourceImageRepository implements ImageRepository by routing each
// reference to the source registered for its scheme
type SourceImageRepository struct {
	sources   map[string]storage.ImageSource
	validator RefValidator
}

// NewSourceImageRepository creates a repository over scheme-keyed sources.
// A nil validator accepts every reference that has a registered source.
func NewSourceImageRepository(sources map[string]storage.ImageSource, validator RefValidator) *SourceImageRepository {
	registered := make(map[string]storage.ImageSource, len(sources))
	for scheme, src := range sources {
		registered[strings.ToLower(scheme)] = src
	}
	return &SourceImageRepository{
		sources:   registered,
		validator: validator,
	}
}

// FetchImage retrieves the image behind ref
func (r *SourceImageRepository) FetchImage(ctx context.Context, ref string) (*models.ImageBlob, error) {
	src, err := r.sourceFor(ref)
	if err != nil {
		return nil, err
	}
	return src.Fetch(ctx, ref)
}

// ValidateImageRef validates ref and checks that a source can serve it
func (r *SourceImageRepository) ValidateImageRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return ErrInvalidImageRef
	}
	if r.validator != nil {
		if err := r.validator.ValidateImageURL(ref); err != nil {
			return err
		}
	}
	_, err := r.sourceFor(ref)
	return err
}

// Schemes lists the registered schemes
func (r *SourceImageRepository) Schemes() []string {
	schemes := make([]string, 0, len(r.sources))
	for scheme := range r.sources {
		schemes = append(schemes, scheme)
	}
	return schemes
}

func (r *SourceImageRepository) sourceFor(ref string) (storage.ImageSource, error) {
	scheme, _, ok := strings.Cut(ref, ":")
	if !ok || scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrInvalidImageRef)
	}
	src, ok := r.sources[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	return src, nil
}
