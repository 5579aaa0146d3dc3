package models

// ImageMetadata describes the decoded image a verification ran against.
// Format is derived from the file signature, not from the file name.
type ImageMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`

	// DeclaredFormat is the extension of the uploaded name or URL, if any
	DeclaredFormat string `json:"declared_format,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
}

// FormatMismatch reports whether the declared extension disagrees with the
// detected signature. jpg and jpeg are treated as the same format.
func (m ImageMetadata) FormatMismatch() bool {
	if m.DeclaredFormat == "" || m.Format == "" || m.Format == "unknown" {
		return false
	}
	return canonicalFormat(m.DeclaredFormat) != canonicalFormat(m.Format)
}

func canonicalFormat(f string) string {
	switch f {
	case "jpeg", "jpe":
		return "jpg"
	case "tif":
		return "tiff"
	}
	return f
}

// AnalysisScores holds the four heuristic sub-scores. Each starts at 100 and
// only decreases; none is clamped above.
type AnalysisScores struct {
	CompressionScore float64 `json:"compression_score"`
	PixelConsistency float64 `json:"pixel_consistency"`
	TextAlignment    float64 `json:"text_alignment"`
	MetadataScore    float64 `json:"metadata_score"`
}

// Values returns the scores in a fixed order
func (s AnalysisScores) Values() []float64 {
	return []float64{s.CompressionScore, s.PixelConsistency, s.TextAlignment, s.MetadataScore}
}

// VerificationResult is the outcome of a single verification.
// Confidence is the rounded mean of the four scores and IsTampered is set
// when it falls below the tamper threshold.
type VerificationResult struct {
	IsTampered bool           `json:"is_tampered"`
	Confidence int            `json:"confidence"`
	Metadata   ImageMetadata  `json:"metadata"`
	Analysis   AnalysisScores `json:"analysis"`
}
