package analyzer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"go-tamper-inspector/pkg/models"
)

const scoreTolerance = 1e-9

func assertScore(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > scoreTolerance {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// checkerboard alternates black and white single pixels
func checkerboard(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.RGBA{0, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

func TestNewScoreCalculator(t *testing.T) {
	if calc := NewScoreCalculator(DefaultOptions()); calc == nil {
		t.Error("Expected non-nil score calculator")
	}
}

func TestUniformImage_PixelScoresPerfect(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())
	buf := bufferFromImage(t, createTestImage(64, 64, color.RGBA{90, 140, 200, 255}))

	assertScore(t, "CompressionScore", calc.CompressionScore(buf), 100)
	assertScore(t, "PixelConsistency", calc.PixelConsistency(buf), 100)
	assertScore(t, "TextAlignment", calc.TextAlignment(buf), 100)
}

func TestCompressionScore(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())

	tests := []struct {
		name   string
		width  int
		height int
		want   float64
	}{
		// Every 8x8 checkerboard block has variance 127.5^2
		{"exact multiple of block size", 16, 16, 100 - 4*2},
		{"partial blocks skipped", 20, 20, 100 - 4*2},
		{"smaller than one block", 7, 7, 100},
		{"single block row", 24, 8, 100 - 3*2},
		{"floored at zero", 64, 64, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bufferFromImage(t, checkerboard(tt.width, tt.height))
			assertScore(t, "CompressionScore", calc.CompressionScore(buf), tt.want)
		})
	}
}

func TestCompressionScore_BelowThreshold(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())

	// Alternating luma 100/160: variance 30^2 = 900, below 2000
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(100)
			if (x+y)%2 == 1 {
				v = 160
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	assertScore(t, "CompressionScore", calc.CompressionScore(bufferFromImage(t, img)), 100)
}

func TestPixelConsistency(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())

	t.Run("checkerboard interior", func(t *testing.T) {
		// 8x8 interior pixels, each differing from all four neighbours
		buf := bufferFromImage(t, checkerboard(10, 10))
		assertScore(t, "PixelConsistency", calc.PixelConsistency(buf), 100-64*0.05)
	})

	t.Run("isolated bright pixel", func(t *testing.T) {
		img := createTestImage(5, 5, color.RGBA{0, 0, 0, 255})
		img.Set(2, 2, color.RGBA{255, 255, 255, 255})
		// Only the centre has >= 3 abrupt neighbours
		assertScore(t, "PixelConsistency", calc.PixelConsistency(bufferFromImage(t, img)), 99.95)
	})

	t.Run("border pixels ignored", func(t *testing.T) {
		img := createTestImage(5, 5, color.RGBA{0, 0, 0, 255})
		img.Set(0, 0, color.RGBA{255, 255, 255, 255})
		assertScore(t, "PixelConsistency", calc.PixelConsistency(bufferFromImage(t, img)), 100)
	})

	t.Run("difference at threshold is not abrupt", func(t *testing.T) {
		img := createTestImage(5, 5, color.RGBA{100, 100, 100, 255})
		img.Set(2, 2, color.RGBA{150, 150, 150, 255})
		assertScore(t, "PixelConsistency", calc.PixelConsistency(bufferFromImage(t, img)), 100)
	})

	t.Run("floored at zero", func(t *testing.T) {
		buf := bufferFromImage(t, checkerboard(50, 50))
		assertScore(t, "PixelConsistency", calc.PixelConsistency(buf), 0)
	})
}

// darkRunRows builds rows with a dark run of runLength pixels followed by
// white pixels up to width
func darkRunRows(width, height, runLength int) *image.RGBA {
	img := createTestImage(width, height, color.RGBA{255, 255, 255, 255})
	for y := 0; y < height; y++ {
		for x := 0; x < runLength && x < width; x++ {
			img.Set(x, y, color.RGBA{10, 10, 10, 255})
		}
	}
	return img
}

func TestTextAlignment(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())

	tests := []struct {
		name   string
		width  int
		height int
		run    int
		want   float64
	}{
		{"long run ended by light pixel", 200, 1, 150, 99.8},
		{"run at threshold not penalized", 200, 1, 100, 100},
		{"run reaching row end not penalized", 150, 1, 150, 100},
		{"penalty per row", 200, 10, 150, 100 - 10*0.2},
		{"short runs", 200, 5, 20, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bufferFromImage(t, darkRunRows(tt.width, tt.height, tt.run))
			assertScore(t, "TextAlignment", calc.TextAlignment(buf), tt.want)
		})
	}
}

func TestTextAlignment_MultipleRunsPerRow(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())

	img := createTestImage(400, 1, color.RGBA{255, 255, 255, 255})
	for x := 0; x < 120; x++ {
		img.Set(x, 0, color.RGBA{0, 0, 0, 255})
	}
	for x := 200; x < 350; x++ {
		img.Set(x, 0, color.RGBA{0, 0, 0, 255})
	}

	assertScore(t, "TextAlignment", calc.TextAlignment(bufferFromImage(t, img)), 100-2*0.2)
}

func TestTextAlignment_FlooredAtZero(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())
	// 501 penalized rows cost 100.2
	buf := bufferFromImage(t, darkRunRows(120, 501, 110))
	assertScore(t, "TextAlignment", calc.TextAlignment(buf), 0)
}

func TestMetadataScore(t *testing.T) {
	calc := NewScoreCalculator(DefaultOptions())

	tests := []struct {
		name string
		meta models.ImageMetadata
		want float64
	}{
		{"exact common dimension png", models.ImageMetadata{Width: 1080, Height: 1920, Format: "png"}, 100},
		{"landscape jpeg", models.ImageMetadata{Width: 1920, Height: 1080, Format: "jpeg"}, 100},
		{"within tolerance jpg", models.ImageMetadata{Width: 1150, Height: 2000, Format: "jpg"}, 100},
		{"tolerance is inclusive", models.ImageMetadata{Width: 1180, Height: 2020, Format: "png"}, 100},
		{"just outside tolerance", models.ImageMetadata{Width: 1181, Height: 1920, Format: "png"}, 90},
		{"uncommon dimension", models.ImageMetadata{Width: 300, Height: 300, Format: "png"}, 90},
		{"unsupported format", models.ImageMetadata{Width: 1440, Height: 2560, Format: "webp"}, 80},
		{"format match is case sensitive", models.ImageMetadata{Width: 1080, Height: 1920, Format: "PNG"}, 80},
		{"gif far from every dimension", models.ImageMetadata{Width: 500, Height: 500, Format: "gif"}, 70},
		{"unknown format", models.ImageMetadata{Width: 10, Height: 10, Format: "unknown"}, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertScore(t, "MetadataScore", calc.MetadataScore(tt.meta), tt.want)
		})
	}
}

func TestScoreCalculator_CustomOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.RunLengthThreshold = 10
	opts.RunPenalty = 1
	opts.AllowedFormats = []string{"webp"}
	calc := NewScoreCalculator(opts)

	buf := bufferFromImage(t, darkRunRows(50, 3, 20))
	assertScore(t, "TextAlignment", calc.TextAlignment(buf), 97)
	assertScore(t, "MetadataScore", calc.MetadataScore(models.ImageMetadata{Width: 1080, Height: 1920, Format: "webp"}), 100)
}
