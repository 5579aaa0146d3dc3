package analyzer

import (
	"fmt"
	"image"
	"image/draw"

	apperrors "go-tamper-inspector/internal/errors"
)

// bytesPerPixel is the R,G,B,A channel count of a PixelBuffer
const bytesPerPixel = 4

// PixelBuffer is a row-major, non-premultiplied RGBA sample buffer.
// Analyses only read from it.
type PixelBuffer struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewPixelBuffer wraps raw RGBA samples after checking their length
func NewPixelBuffer(pix []uint8, width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("pixel buffer dimensions must be positive (got %dx%d)", width, height), nil)
	}
	if want := width * height * bytesPerPixel; len(pix) != want {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("pixel buffer length %d does not match %dx%d (want %d)", len(pix), width, height, want), nil)
	}
	return &PixelBuffer{Pix: pix, Width: width, Height: height}, nil
}

// PixelBufferFromImage draws img onto a fresh NRGBA surface and returns its
// samples. A nil image means there is nothing to draw from.
func PixelBufferFromImage(img image.Image) (*PixelBuffer, error) {
	if img == nil {
		return nil, apperrors.NewMissingContextError("no drawable image available", nil)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewDecodeError(
			fmt.Sprintf("image has no pixels (%dx%d)", width, height), nil)
	}

	n := width * height * bytesPerPixel

	// Already in the right layout: copy so the caller's image stays independent
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == width*bytesPerPixel && nrgba.Rect.Min == (image.Point{}) {
		pix := make([]uint8, n)
		copy(pix, nrgba.Pix[:n])
		return &PixelBuffer{Pix: pix, Width: width, Height: height}, nil
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	return &PixelBuffer{Pix: canvas.Pix, Width: width, Height: height}, nil
}

// offset returns the index of the first channel of pixel (x, y)
func (b *PixelBuffer) offset(x, y int) int {
	return (y*b.Width + x) * bytesPerPixel
}

// Luma returns the unweighted mean of R, G and B at pixel (x, y)
func (b *PixelBuffer) Luma(x, y int) float64 {
	return lumaAt(b.Pix, b.offset(x, y))
}

func lumaAt(pix []uint8, i int) float64 {
	return (float64(pix[i]) + float64(pix[i+1]) + float64(pix[i+2])) / 3
}

// Image returns an NRGBA view over the buffer, sharing its samples
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * bytesPerPixel,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
