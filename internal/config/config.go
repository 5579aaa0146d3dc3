package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-tamper-inspector/internal/analyzer"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	DecodeTimeout      time.Duration
	MaxRequestBodySize int64

	// Image limits
	MaxImageBytes  int64
	MaxImagePixels int64

	// Reports kept in memory before the oldest is evicted
	ReportCapacity int

	OCREnabled  bool
	OCRLanguage string

	AzureStorageAccount string
	AzureStorageKey     string

	HTTPInsecureSkipVerify bool
	AllowedImageHosts      []string

	LogLevel string

	Heuristics analyzer.HeuristicOptions
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob storage credentials were supplied
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoadDotEnv loads variables from the given files (".env" when none are
// named) without overriding the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                   getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                   getEnvOrDefault("PORT", "8080"),
		RequestTimeout:         parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:      parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:        parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		DecodeTimeout:          parseDurationOrDefault("DECODE_TIMEOUT", 10*time.Second),
		MaxRequestBodySize:     parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 25*1024*1024), // 25MB
		MaxImageBytes:          parseIntOrDefault("MAX_IMAGE_BYTES", 20*1024*1024),       // 20MB
		MaxImagePixels:         parseIntOrDefault("MAX_IMAGE_PIXELS", 40_000_000),
		ReportCapacity:         int(parseIntOrDefault("REPORT_CAPACITY", 100)),
		OCREnabled:             parseBoolOrDefault("OCR_ENABLED", true),
		OCRLanguage:            getEnvOrDefault("OCR_LANGUAGE", "eng"),
		AzureStorageAccount:    strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureStorageKey:        strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
		HTTPInsecureSkipVerify: parseBoolOrDefault("HTTP_INSECURE_SKIP_VERIFY", false),
		AllowedImageHosts:      parseListOrDefault("ALLOWED_IMAGE_HOSTS", nil),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		Heuristics:             loadHeuristics(),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.MaxImageBytes <= 0 || cfg.MaxImagePixels <= 0 {
		return nil, fmt.Errorf("image limits must be > 0 (got bytes=%d, pixels=%d)", cfg.MaxImageBytes, cfg.MaxImagePixels)
	}
	if cfg.ReportCapacity <= 0 {
		return nil, fmt.Errorf("REPORT_CAPACITY must be > 0 (got %d)", cfg.ReportCapacity)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 || cfg.DecodeTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s, decode=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout, cfg.DecodeTimeout)
	}
	if (cfg.AzureStorageAccount == "") != (cfg.AzureStorageKey == "") {
		return nil, fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	if err := cfg.Heuristics.Validate(); err != nil {
		return nil, fmt.Errorf("invalid heuristic configuration: %w", err)
	}
	return cfg, nil
}

// loadHeuristics starts from the analyzer defaults and applies HEURISTIC_* overrides
func loadHeuristics() analyzer.HeuristicOptions {
	opts := analyzer.DefaultOptions()

	opts.BlockSize = int(parseIntOrDefault("HEURISTIC_BLOCK_SIZE", int64(opts.BlockSize)))
	opts.BlockVarianceThreshold = parseFloatOrDefault("HEURISTIC_BLOCK_VARIANCE_THRESHOLD", opts.BlockVarianceThreshold)
	opts.BlockPenalty = parseFloatOrDefault("HEURISTIC_BLOCK_PENALTY", opts.BlockPenalty)
	opts.NeighborLumaThreshold = parseFloatOrDefault("HEURISTIC_NEIGHBOR_THRESHOLD", opts.NeighborLumaThreshold)
	opts.AbruptPixelPenalty = parseFloatOrDefault("HEURISTIC_ABRUPT_PENALTY", opts.AbruptPixelPenalty)
	opts.RunLengthThreshold = int(parseIntOrDefault("HEURISTIC_RUN_LENGTH_THRESHOLD", int64(opts.RunLengthThreshold)))
	opts.RunPenalty = parseFloatOrDefault("HEURISTIC_RUN_PENALTY", opts.RunPenalty)
	opts.DimensionTolerance = int(parseIntOrDefault("HEURISTIC_DIMENSION_TOLERANCE", int64(opts.DimensionTolerance)))
	opts.TamperThreshold = parseFloatOrDefault("HEURISTIC_TAMPER_THRESHOLD", opts.TamperThreshold)
	opts.MaxWorkers = int(parseIntOrDefault("WORKER_COUNT", int64(opts.MaxWorkers)))

	return opts
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
