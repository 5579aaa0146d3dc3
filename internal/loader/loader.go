// Package loader turns raw image bytes into a pixel buffer and metadata.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-tamper-inspector/internal/analyzer"
	apperrors "go-tamper-inspector/internal/errors"
	"go-tamper-inspector/internal/logger"
	"go-tamper-inspector/pkg/models"
)

// UnknownFormat is reported when the file signature is not recognized
const UnknownFormat = "unknown"

// Options bounds the work a single decode may do
type Options struct {
	// MaxPixels rejects images whose declared width*height exceeds it
	MaxPixels int64
	// Timeout caps a single decode; zero means only ctx applies
	Timeout time.Duration
}

// DefaultOptions returns a 40 megapixel cap and a 10s timeout
func DefaultOptions() Options {
	return Options{
		MaxPixels: 40_000_000,
		Timeout:   10 * time.Second,
	}
}

// Decoded is a successfully loaded image
type Decoded struct {
	Image    image.Image
	Buffer   *analyzer.PixelBuffer
	Metadata models.ImageMetadata
}

// Loader decodes images with the configured limits
type Loader struct {
	opts Options
}

// New creates a loader
func New(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Decode sniffs the format of data, decodes it and rasterizes it into a
// pixel buffer. name is only used to record the declared extension.
func (l *Loader) Decode(ctx context.Context, data []byte, name string) (*Decoded, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("image data is empty", nil)
	}

	mtype := mimetype.Detect(data)
	format := FormatFromExtension(mtype.Extension())

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("unsupported or corrupt %s image", format), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("image has no pixels (%dx%d)", cfg.Width, cfg.Height), nil)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); l.opts.MaxPixels > 0 && pixels > l.opts.MaxPixels {
		return nil, apperrors.NewDecodeError(
			fmt.Sprintf("image is %dx%d, exceeding the %d pixel limit", cfg.Width, cfg.Height, l.opts.MaxPixels), nil)
	}

	img, err := l.decodeWithTimeout(ctx, data)
	if err != nil {
		return nil, err
	}

	buf, err := analyzer.PixelBufferFromImage(img)
	if err != nil {
		return nil, err
	}

	meta := models.ImageMetadata{
		Width:          buf.Width,
		Height:         buf.Height,
		Format:         format,
		Size:           int64(len(data)),
		DeclaredFormat: DeclaredFormat(name),
		ContentType:    mtype.String(),
	}

	logger.WithFields(logrus.Fields{
		"width":  meta.Width,
		"height": meta.Height,
		"format": meta.Format,
		"size":   meta.Size,
	}).Debug("Image decoded")

	return &Decoded{Image: img, Buffer: buf, Metadata: meta}, nil
}

type decodeResult struct {
	img image.Image
	err error
}

// decodeWithTimeout races the decoder against ctx and the configured timeout.
// A decoder that overruns keeps running until it returns; its result is dropped.
func (l *Loader) decodeWithTimeout(ctx context.Context, data []byte) (image.Image, error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	done := make(chan decodeResult, 1)
	go func() {
		img, _, err := image.Decode(bytes.NewReader(data))
		done <- decodeResult{img: img, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, apperrors.NewDecodeError("failed to decode image", res.err)
		}
		return res.img, nil
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("image decoding timed out", err)
	}
	return apperrors.NewProcessingError("image decoding cancelled", err)
}

// FormatFromExtension normalizes a mimetype extension (".png") to the
// lowercase name used in metadata ("png"); empty becomes UnknownFormat
func FormatFromExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return UnknownFormat
	}
	return ext
}

// DeclaredFormat returns the lowercase extension of name without the dot
func DeclaredFormat(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
