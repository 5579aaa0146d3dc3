package analyzer

import (
	"image"

	"go-tamper-inspector/pkg/models"
)

// Verifier is the tamper-heuristic engine
type Verifier interface {
	// Verify scores a pixel buffer and its metadata. It has no side effects
	// and returns the same result for the same input.
	Verify(buf *PixelBuffer, meta models.ImageMetadata) VerificationResult

	// Options returns the heuristic options the verifier was built with
	Options() HeuristicOptions

	// Lifecycle management
	Close() error
}

// ScoreCalculator computes the four heuristic sub-scores
type ScoreCalculator interface {
	CompressionScore(buf *PixelBuffer) float64
	PixelConsistency(buf *PixelBuffer) float64
	TextAlignment(buf *PixelBuffer) float64
	MetadataScore(meta models.ImageMetadata) float64
}

// Fingerprinter computes perceptual hashes of an image
type Fingerprinter interface {
	Fingerprint(img image.Image) models.Fingerprint
}
