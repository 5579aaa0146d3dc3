package report

import (
	"fmt"
	"time"

	"go-tamper-inspector/pkg/models"
)

// Input collects everything a report is built from
type Input struct {
	ID             string
	CreatedAt      time.Time
	Source         string
	ProcessingTime time.Duration
	Verification   models.VerificationResult
	OCR            *models.OCRResult
	Fingerprint    models.Fingerprint
	Warnings       []string
	Image          []byte
}

// Build assembles a report. A missing ID or timestamp is generated, and a
// declared extension that disagrees with the file signature adds a warning.
func Build(in Input) *models.Report {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	id := in.ID
	if id == "" {
		id = NewID(createdAt)
	}

	warnings := append([]string(nil), in.Warnings...)
	if meta := in.Verification.Metadata; meta.FormatMismatch() {
		warnings = append(warnings, fmt.Sprintf(
			"file is named as %s but its signature is %s", meta.DeclaredFormat, meta.Format))
	}

	return &models.Report{
		ID:                id,
		CreatedAt:         createdAt.UTC(),
		Source:            in.Source,
		ProcessingTimeSec: in.ProcessingTime.Seconds(),
		Verification:      in.Verification,
		OCR:               in.OCR,
		Fingerprint:       in.Fingerprint,
		Warnings:          warnings,
		Image:             in.Image,
	}
}

// StatusText is the human-readable verdict
func StatusText(r *models.Report) string {
	if r.Verification.IsTampered {
		return "Potential Tampering Detected"
	}
	return "No Tampering Detected"
}
