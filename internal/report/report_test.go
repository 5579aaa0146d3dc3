package report

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"go-tamper-inspector/pkg/models"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := NewID(now)

	prefix, suffix, ok := strings.Cut(id, "-")
	if !ok {
		t.Fatalf("Expected a dash in %q", id)
	}
	if prefix != "loyw3v28" {
		t.Errorf("Expected base36 millis loyw3v28, got %s", prefix)
	}
	if len(suffix) != 6 {
		t.Errorf("Expected 6 random characters, got %q", suffix)
	}
	if !ValidID(id) {
		t.Errorf("Expected %q to be a valid ID", id)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[NewID(now)] = true
	}
	if len(seen) < 95 {
		t.Errorf("Expected IDs to differ, got %d distinct of 100", len(seen))
	}
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"", "abc", "abc-12345", "abc-1234567", "ABC-123456", "abc-12345!", "-123456"} {
		if ValidID(id) {
			t.Errorf("Expected %q to be invalid", id)
		}
	}
}

func sampleVerification(tampered bool) models.VerificationResult {
	return models.VerificationResult{
		IsTampered: tampered,
		Confidence: 42,
		Metadata:   models.ImageMetadata{Width: 1080, Height: 1920, Format: "png", Size: 204800},
		Analysis:   models.AnalysisScores{CompressionScore: 10, PixelConsistency: 60, TextAlignment: 98, MetadataScore: 100},
	}
}

func TestBuild(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	verification := sampleVerification(true)
	verification.Metadata.DeclaredFormat = "jpg"

	r := Build(Input{
		CreatedAt:      created,
		Source:         "upload:shot.jpg",
		ProcessingTime: 1500 * time.Millisecond,
		Verification:   verification,
		Warnings:       []string{"image appears blurry"},
	})

	if !ValidID(r.ID) {
		t.Errorf("Expected generated ID, got %q", r.ID)
	}
	if r.CreatedAt.Location() != time.UTC || !r.CreatedAt.Equal(created) {
		t.Errorf("Expected UTC creation time, got %v", r.CreatedAt)
	}
	if r.ProcessingTimeSec != 1.5 {
		t.Errorf("Expected 1.5s processing time, got %v", r.ProcessingTimeSec)
	}
	if len(r.Warnings) != 2 || !strings.Contains(r.Warnings[1], "named as jpg") {
		t.Errorf("Expected format mismatch warning, got %v", r.Warnings)
	}
	if StatusText(r) != "Potential Tampering Detected" {
		t.Errorf("Unexpected status %q", StatusText(r))
	}
}

func TestBuild_KeepsGivenID(t *testing.T) {
	r := Build(Input{ID: "fixed-abcdef", Verification: sampleVerification(false)})
	if r.ID != "fixed-abcdef" {
		t.Errorf("Expected given ID, got %s", r.ID)
	}
	if r.CreatedAt.IsZero() {
		t.Error("Expected creation time to be filled in")
	}
	if len(r.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", r.Warnings)
	}
	if StatusText(r) != "No Tampering Detected" {
		t.Errorf("Unexpected status %q", StatusText(r))
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("abc-123456"); got != "tamper-report-abc-123456.pdf" {
		t.Errorf("Unexpected filename %s", got)
	}
}

func TestRenderPDF(t *testing.T) {
	wer, cer := 0.25, 0.1
	r := Build(Input{
		Verification: sampleVerification(true),
		OCR: &models.OCRResult{
			ExtractedText: strings.Repeat("Transfer complété 1 250,00 € ", 40),
			Source:        "tesseract",
			ExpectedText:  "Transfer",
			WER:           &wer,
			CER:           &cer,
		},
		Warnings:    []string{"image appears blurry"},
		Fingerprint: models.Fingerprint{PerceptionHash: "p:ffee"},
	})

	img := image.NewRGBA(image.Rect(0, 0, 60, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y / 2), 90, 255})
		}
	}

	var withImage, withoutImage bytes.Buffer
	if err := RenderPDF(&withImage, r, img); err != nil {
		t.Fatalf("RenderPDF failed: %v", err)
	}
	if err := RenderPDF(&withoutImage, r, nil); err != nil {
		t.Fatalf("RenderPDF without image failed: %v", err)
	}

	for _, out := range [][]byte{withImage.Bytes(), withoutImage.Bytes()} {
		if !bytes.HasPrefix(out, []byte("%PDF-")) {
			t.Fatalf("Expected PDF header, got %q", out[:min(len(out), 8)])
		}
	}
	if withImage.Len() <= withoutImage.Len() {
		t.Errorf("Expected embedded image to grow the document (%d <= %d)", withImage.Len(), withoutImage.Len())
	}
}

func TestRenderPDF_NoOCR(t *testing.T) {
	r := Build(Input{Verification: sampleVerification(false)})
	if got := extractedText(r); got != noTextText {
		t.Errorf("Expected placeholder text, got %q", got)
	}

	var buf bytes.Buffer
	if err := RenderPDF(&buf, r, nil); err != nil {
		t.Fatalf("RenderPDF failed: %v", err)
	}
}
