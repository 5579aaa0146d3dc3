package container

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"go-tamper-inspector/internal/analyzer"
	"go-tamper-inspector/internal/config"
	"go-tamper-inspector/internal/factory"
	"go-tamper-inspector/internal/logger"
	"go-tamper-inspector/internal/observer"
	"go-tamper-inspector/internal/ocr"
	"go-tamper-inspector/internal/ocr/tesseract"
	"go-tamper-inspector/internal/repository"
	"go-tamper-inspector/internal/service"
	"go-tamper-inspector/internal/transport"
	"go-tamper-inspector/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	verifier            analyzer.Verifier
	imageRepository     repository.ImageRepository
	reportRepository    repository.ReportRepository
	events              *observer.EventPublisher
	metrics             *observer.MetricsObserver
	verificationService service.VerificationService
	handler             http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	components := factory.NewComponentFactory(cfg)

	storageTypes := []factory.StorageType{factory.HTTPStorage, factory.DataURLStorage}
	if cfg.AzureEnabled() {
		storageTypes = append(storageTypes, factory.AzureStorage)
	}
	sources, err := components.CreateSources(storageTypes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create image sources: %w", err)
	}

	allowedSchemes := make([]string, 0, len(sources))
	for scheme := range sources {
		allowedSchemes = append(allowedSchemes, scheme)
	}
	validator := validation.NewURLValidatorWithOptions(allowedSchemes, cfg.AllowedImageHosts)
	imageRepository := repository.NewSourceImageRepository(sources, validator)
	reportRepository := repository.NewMemoryReportRepository(cfg.ReportCapacity)

	verifier, err := components.AnalyzerFactory.CreateVerifier()
	if err != nil {
		return nil, err
	}

	var extractor ocr.TextExtractor
	if cfg.OCREnabled {
		extractor = tesseract.New(cfg.OCRLanguage)
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	verificationService := service.NewVerificationService(service.Dependencies{
		Images:        imageRepository,
		Reports:       reportRepository,
		Decoder:       components.AnalyzerFactory.CreateLoader(),
		Verifier:      verifier,
		Fingerprinter: components.AnalyzerFactory.CreateFingerprinter(),
		Quality:       components.AnalyzerFactory.CreateQualityInspector(),
		TextExtractor: extractor,
		Events:        events,
	}, service.Options{
		AnalysisTimeout: cfg.AnalysisTimeout,
		OCRLanguage:     cfg.OCRLanguage,
	})

	c := &Container{
		config:              cfg,
		verifier:            verifier,
		imageRepository:     imageRepository,
		reportRepository:    reportRepository,
		events:              events,
		metrics:             metrics,
		verificationService: verificationService,
	}
	c.handler = transport.NewHandler(verificationService, c, cfg)

	logger.WithFields(logrus.Fields{
		"schemes":     allowedSchemes,
		"ocr_enabled": cfg.OCREnabled,
		"workers":     cfg.Heuristics.MaxWorkers,
	}).Info("Container initialized")

	return c, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the verification service
func (c *Container) Service() service.VerificationService {
	return c.verificationService
}

// GetMetrics merges verification counters with worker pool statistics
func (c *Container) GetMetrics() map[string]interface{} {
	metrics := c.metrics.GetMetrics()
	if pooled, ok := c.verifier.(interface{ PoolStats() analyzer.PoolStats }); ok {
		metrics["worker_pool"] = pooled.PoolStats()
	}
	return metrics
}

// Close drains pending observer events and stops the worker pool
func (c *Container) Close() error {
	c.events.Wait()
	return c.verifier.Close()
}
