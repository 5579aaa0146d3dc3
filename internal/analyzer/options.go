package analyzer

import (
	"fmt"
)

// Dimension is a width/height pair in pixels
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// HeuristicOptions holds every tuning constant of the tamper heuristics.
// The defaults were tuned by hand against phone screenshots and have no
// physical derivation; recalibrate through configuration.
type HeuristicOptions struct {
	// Every sub-score starts here and only receives deductions
	BaseScore float64

	// Compression artifacts
	BlockSize              int
	BlockVarianceThreshold float64
	BlockPenalty           float64

	// Pixel consistency
	NeighborLumaThreshold float64
	MinAbruptNeighbors    int
	AbruptPixelPenalty    float64

	// Text alignment
	DarkLumaThreshold  float64
	RunLengthThreshold int
	RunPenalty         float64

	// Metadata plausibility
	CommonDimensions   []Dimension
	DimensionTolerance int
	DimensionPenalty   float64
	AllowedFormats     []string
	FormatPenalty      float64

	// Confidence strictly below this marks the image as tampered
	TamperThreshold float64

	// Performance options
	UseWorkerPool bool
	MaxWorkers    int
}

// CommonScreenshotDimensions lists common device screenshot resolutions
func CommonScreenshotDimensions() []Dimension {
	return []Dimension{
		{Width: 1080, Height: 1920}, // portrait
		{Width: 1920, Height: 1080}, // landscape
		{Width: 1170, Height: 2532}, // iPhone 13/14
		{Width: 1284, Height: 2778}, // iPhone 13/14 Pro Max
		{Width: 1440, Height: 2560}, // Android
		{Width: 2560, Height: 1440}, // Android landscape
	}
}

// DefaultOptions returns the default heuristic options
func DefaultOptions() HeuristicOptions {
	return HeuristicOptions{
		BaseScore:              100,
		BlockSize:              8,
		BlockVarianceThreshold: 2000,
		BlockPenalty:           2,
		NeighborLumaThreshold:  50,
		MinAbruptNeighbors:     3,
		AbruptPixelPenalty:     0.05,
		DarkLumaThreshold:      128,
		RunLengthThreshold:     100,
		RunPenalty:             0.2,
		CommonDimensions:       CommonScreenshotDimensions(),
		DimensionTolerance:     100,
		DimensionPenalty:       10,
		AllowedFormats:         []string{"png", "jpg", "jpeg"},
		FormatPenalty:          20,
		TamperThreshold:        50,
		UseWorkerPool:          true,
		MaxWorkers:             0, // Use default CPU count
	}
}

// Validate rejects option sets the analyses cannot run with
func (opts HeuristicOptions) Validate() error {
	switch {
	case opts.BaseScore <= 0:
		return fmt.Errorf("base score must be > 0 (got %v)", opts.BaseScore)
	case opts.BlockSize <= 0:
		return fmt.Errorf("block size must be > 0 (got %d)", opts.BlockSize)
	case opts.MinAbruptNeighbors < 1 || opts.MinAbruptNeighbors > 4:
		return fmt.Errorf("min abrupt neighbors must be within 1..4 (got %d)", opts.MinAbruptNeighbors)
	case opts.RunLengthThreshold < 0:
		return fmt.Errorf("run length threshold must be >= 0 (got %d)", opts.RunLengthThreshold)
	case opts.DimensionTolerance < 0:
		return fmt.Errorf("dimension tolerance must be >= 0 (got %d)", opts.DimensionTolerance)
	case opts.BlockPenalty < 0, opts.AbruptPixelPenalty < 0, opts.RunPenalty < 0,
		opts.DimensionPenalty < 0, opts.FormatPenalty < 0:
		return fmt.Errorf("penalties must be >= 0")
	case len(opts.CommonDimensions) == 0:
		return fmt.Errorf("common dimensions must not be empty")
	case len(opts.AllowedFormats) == 0:
		return fmt.Errorf("allowed formats must not be empty")
	}
	return nil
}

// WithTamperThreshold returns options with a different verdict threshold
func (opts HeuristicOptions) WithTamperThreshold(threshold float64) HeuristicOptions {
	opts.TamperThreshold = threshold
	return opts
}

// WithCompression overrides the block variance heuristic
func (opts HeuristicOptions) WithCompression(blockSize int, varianceThreshold, penalty float64) HeuristicOptions {
	opts.BlockSize = blockSize
	opts.BlockVarianceThreshold = varianceThreshold
	opts.BlockPenalty = penalty
	return opts
}

// WithoutWorkerPool runs the four analyses on the calling goroutine
func (opts HeuristicOptions) WithoutWorkerPool() HeuristicOptions {
	opts.UseWorkerPool = false
	return opts
}
