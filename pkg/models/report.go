package models

import "time"

// OCRResult carries the text shown in a report. The text is passed through
// untouched; nothing in the verification depends on it.
type OCRResult struct {
	ExtractedText string  `json:"extracted_text"`
	Source        string  `json:"source"` // "supplied" or the engine name
	Language      string  `json:"language,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`

	// Set only when the caller supplied the text they expect the image to show
	ExpectedText string   `json:"expected_text,omitempty"`
	WER          *float64 `json:"word_error_rate,omitempty"`
	CER          *float64 `json:"character_error_rate,omitempty"`

	OCRError string `json:"ocr_error,omitempty"`
}

// Fingerprint holds perceptual hashes of the verified image
type Fingerprint struct {
	PerceptionHash string `json:"perception_hash,omitempty"`
	DifferenceHash string `json:"difference_hash,omitempty"`
}

// Report is the addressable result of one verification request
type Report struct {
	ID                string             `json:"report_id"`
	CreatedAt         time.Time          `json:"created_at"`
	Source            string             `json:"source"`
	ProcessingTimeSec float64            `json:"processing_time_sec"`
	Verification      VerificationResult `json:"verification"`
	OCR               *OCRResult         `json:"ocr,omitempty"`
	Fingerprint       Fingerprint        `json:"fingerprint"`
	Warnings          []string           `json:"warnings,omitempty"`

	// Image keeps the encoded upload so the PDF export can embed it
	Image []byte `json:"-"`
}

// ReportSummary is the list view of a stored report
type ReportSummary struct {
	ID         string    `json:"report_id"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source"`
	IsTampered bool      `json:"is_tampered"`
	Confidence int       `json:"confidence"`
}

// Summary returns the list view of the report
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		Source:     r.Source,
		IsTampered: r.Verification.IsTampered,
		Confidence: r.Verification.Confidence,
	}
}

// ImageBlob is an encoded image as fetched from a source
type ImageBlob struct {
	Data        []byte
	Name        string
	ContentType string
	Source      string
}
