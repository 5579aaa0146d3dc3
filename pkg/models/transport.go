package models

// VerifyRequest asks for verification of an image reference: an http(s) URL,
// an azblob://container/blob reference, or a data: URL.
type VerifyRequest struct {
	Image        string `json:"image" binding:"required"`
	OCRText      string `json:"ocr_text,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
	SkipOCR      bool   `json:"skip_ocr,omitempty"`
}

// UploadRequest carries raw uploaded bytes into the service
type UploadRequest struct {
	Data         []byte
	Filename     string
	ContentType  string
	OCRText      string
	ExpectedText string
	SkipOCR      bool
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ReportListResponse wraps stored report summaries
type ReportListResponse struct {
	Reports []ReportSummary `json:"reports"`
	Count   int             `json:"count"`
}
