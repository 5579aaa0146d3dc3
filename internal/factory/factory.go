package factory

import (
	"fmt"

	"go-tamper-inspector/internal/analyzer"
	"go-tamper-inspector/internal/config"
	"go-tamper-inspector/internal/loader"
	"go-tamper-inspector/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// DataURLStorage for images inlined as data: URLs
	DataURLStorage StorageType = "data"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// Schemes returns the reference schemes served by a storage type
func (t StorageType) Schemes() []string {
	switch t {
	case HTTPStorage:
		return []string{"http", "https"}
	case AzureStorage:
		return []string{storage.AzureBlobScheme}
	case DataURLStorage:
		return []string{storage.DataURLScheme}
	case LocalStorage:
		return []string{storage.FileScheme}
	default:
		return nil
	}
}

// AnalyzerFactory creates the image analysis components
type AnalyzerFactory interface {
	CreateVerifier() (analyzer.Verifier, error)
	CreateFingerprinter() analyzer.Fingerprinter
	CreateQualityInspector() analyzer.QualityInspector
	CreateLoader() *loader.Loader
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageSource, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

// CreateVerifier builds the heuristic verifier from the configured options
func (f *analyzerFactory) CreateVerifier() (analyzer.Verifier, error) {
	v, err := analyzer.NewVerifier(f.cfg.Heuristics)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier: %w", err)
	}
	return v, nil
}

func (f *analyzerFactory) CreateFingerprinter() analyzer.Fingerprinter {
	return analyzer.NewFingerprinter()
}

func (f *analyzerFactory) CreateQualityInspector() analyzer.QualityInspector {
	return analyzer.NewQualityInspector()
}

// CreateLoader builds an image loader bounded by the configured limits
func (f *analyzerFactory) CreateLoader() *loader.Loader {
	return loader.New(loader.Options{
		MaxPixels: f.cfg.MaxImagePixels,
		Timeout:   f.cfg.DecodeTimeout,
	})
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageSource, error) {
	switch storageType {
	case HTTPStorage:
		opts := storage.DefaultHTTPFetcherOptions()
		opts.Timeout = f.cfg.ImageFetchTimeout
		opts.MaxBytes = f.cfg.MaxImageBytes
		opts.InsecureSkipVerify = f.cfg.HTTPInsecureSkipVerify
		return storage.NewHTTPImageFetcher(opts), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		az, err := storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		return az, nil
	case DataURLStorage:
		return storage.NewDataURLSource(f.cfg.MaxImageBytes), nil
	case LocalStorage:
		return storage.NewFileSource(f.cfg.MaxImageBytes), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
	}
}

// CreateSources builds every requested storage type and keys it by the
// schemes it serves
func (f *ComponentFactory) CreateSources(types ...StorageType) (map[string]storage.ImageSource, error) {
	sources := make(map[string]storage.ImageSource)
	for _, t := range types {
		src, err := f.StorageFactory.CreateStorage(t)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s storage: %w", t, err)
		}
		for _, scheme := range t.Schemes() {
			sources[scheme] = src
		}
	}
	return sources, nil
}
