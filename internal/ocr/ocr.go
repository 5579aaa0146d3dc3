// Package ocr defines text extraction and how extracted text is scored
// against the text a caller expected to see.
package ocr

import (
	"context"
)

// Result is the text recognized in one image
type Result struct {
	Text     string
	Engine   string
	Language string
	// Confidence is the mean word confidence in the range 0..100
	Confidence float64
}

// TextExtractor recognizes text in an encoded image
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, lang string) (*Result, error)
	Name() string
}
