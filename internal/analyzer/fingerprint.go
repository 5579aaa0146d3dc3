package analyzer

import (
	"image"

	"github.com/corona10/goimagehash"

	"go-tamper-inspector/internal/logger"
	"go-tamper-inspector/pkg/models"
)

type hashFingerprinter struct{}

// NewFingerprinter creates a perceptual-hash fingerprinter
func NewFingerprinter() Fingerprinter {
	return &hashFingerprinter{}
}

// Fingerprint hashes img so that reports of the same screenshot can be
// correlated. A hash that cannot be computed is left empty.
func (f *hashFingerprinter) Fingerprint(img image.Image) models.Fingerprint {
	var fp models.Fingerprint
	if img == nil {
		return fp
	}

	if hash, err := goimagehash.PerceptionHash(img); err == nil {
		fp.PerceptionHash = hash.ToString()
	} else {
		logger.WithError(err).Debug("Perception hash failed")
	}

	if hash, err := goimagehash.DifferenceHash(img); err == nil {
		fp.DifferenceHash = hash.ToString()
	} else {
		logger.WithError(err).Debug("Difference hash failed")
	}

	return fp
}
