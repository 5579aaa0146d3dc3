package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestImageMetadata_FormatMismatch(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		detected string
		want     bool
	}{
		{"same format", "png", "png", false},
		{"jpeg alias", "jpeg", "jpg", false},
		{"tif alias", "tif", "tiff", false},
		{"png named as jpg", "jpg", "png", true},
		{"no declared extension", "", "png", false},
		{"unknown signature", "png", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ImageMetadata{DeclaredFormat: tt.declared, Format: tt.detected}
			if got := m.FormatMismatch(); got != tt.want {
				t.Errorf("FormatMismatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReport_Summary(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	r := &Report{
		ID:        "abc-123456",
		CreatedAt: created,
		Source:    "upload:shot.png",
		Verification: VerificationResult{
			IsTampered: true,
			Confidence: 37,
		},
	}

	want := ReportSummary{ID: "abc-123456", CreatedAt: created, Source: "upload:shot.png", IsTampered: true, Confidence: 37}
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
}

func TestReport_JSONOmitsImage(t *testing.T) {
	r := &Report{ID: "abc-123456", Image: []byte("secret pixels")}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("Expected image bytes to be left out of JSON, got %s", data)
	}
	if !strings.Contains(string(data), `"report_id":"abc-123456"`) {
		t.Errorf("Expected report_id in JSON, got %s", data)
	}
}
