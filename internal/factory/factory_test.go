package factory

import (
	"sort"
	"testing"

	"go-tamper-inspector/internal/analyzer"
	"go-tamper-inspector/internal/config"
	"go-tamper-inspector/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxImageBytes:  1024,
		MaxImagePixels: 1000,
		Heuristics:     analyzer.DefaultOptions(),
	}
}

func TestCreateStorage(t *testing.T) {
	f := NewStorageFactory(testConfig())

	tests := []struct {
		storageType StorageType
		wantErr     bool
	}{
		{HTTPStorage, false},
		{DataURLStorage, false},
		{LocalStorage, false},
		{AzureStorage, true}, // no credentials configured
		{StorageType("ftp"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.storageType), func(t *testing.T) {
			src, err := f.CreateStorage(tt.storageType)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %s", tt.storageType)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("Expected non-nil source")
			}
		})
	}
}

func TestCreateStorage_Types(t *testing.T) {
	f := NewStorageFactory(testConfig())

	src, _ := f.CreateStorage(HTTPStorage)
	if _, ok := src.(*storage.HTTPImageFetcher); !ok {
		t.Errorf("Expected *storage.HTTPImageFetcher, got %T", src)
	}
	src, _ = f.CreateStorage(DataURLStorage)
	if _, ok := src.(*storage.DataURLSource); !ok {
		t.Errorf("Expected *storage.DataURLSource, got %T", src)
	}
}

func TestCreateSources(t *testing.T) {
	f := NewComponentFactory(testConfig())

	sources, err := f.CreateSources(HTTPStorage, DataURLStorage)
	if err != nil {
		t.Fatalf("CreateSources failed: %v", err)
	}

	var schemes []string
	for scheme := range sources {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	want := []string{"data", "http", "https"}
	if len(schemes) != len(want) {
		t.Fatalf("Expected schemes %v, got %v", want, schemes)
	}
	for i := range want {
		if schemes[i] != want[i] {
			t.Errorf("Expected schemes %v, got %v", want, schemes)
		}
	}
	if sources["http"] != sources["https"] {
		t.Error("Expected http and https to share one fetcher")
	}

	if _, err := f.CreateSources(AzureStorage); err == nil {
		t.Error("Expected error when azure credentials are missing")
	}
}

func TestAnalyzerFactory(t *testing.T) {
	f := NewAnalyzerFactory(testConfig())

	v, err := f.CreateVerifier()
	if err != nil {
		t.Fatalf("CreateVerifier failed: %v", err)
	}
	defer v.Close()

	if f.CreateFingerprinter() == nil || f.CreateQualityInspector() == nil || f.CreateLoader() == nil {
		t.Error("Expected non-nil components")
	}
}

func TestAnalyzerFactory_InvalidHeuristics(t *testing.T) {
	cfg := testConfig()
	cfg.Heuristics.BlockSize = -1

	if _, err := NewAnalyzerFactory(cfg).CreateVerifier(); err == nil {
		t.Error("Expected error for invalid heuristics")
	}
}
