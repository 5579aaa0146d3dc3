package repository

import (
	"context"

	"go-tamper-inspector/pkg/models"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves the encoded image behind a reference
	FetchImage(ctx context.Context, ref string) (*models.ImageBlob, error)

	// ValidateImageRef validates if the provided reference is acceptable
	ValidateImageRef(ref string) error
}

// ReportRepository stores verification reports
type ReportRepository interface {
	// Save stores a report, replacing any report with the same ID
	Save(ctx context.Context, report *models.Report) error

	// Get retrieves a stored report
	Get(ctx context.Context, id string) (*models.Report, error)

	// List returns stored reports, newest first
	List(ctx context.Context) ([]*models.Report, error)
}

// RefValidator validates image references before they are fetched
type RefValidator interface {
	ValidateImageURL(ref string) error
}
