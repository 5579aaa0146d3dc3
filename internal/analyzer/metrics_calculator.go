package analyzer

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"go-tamper-inspector/pkg/models"
)

// scoreCalculator implements ScoreCalculator. Every method is a pure function
// of its inputs and the options it was built with.
type scoreCalculator struct {
	opts      HeuristicOptions
	slicePool sync.Pool
}

// NewScoreCalculator creates a calculator for the given options
func NewScoreCalculator(opts HeuristicOptions) ScoreCalculator {
	blockPixels := opts.BlockSize * opts.BlockSize
	return &scoreCalculator{
		opts: opts,
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, blockPixels)
				return &s
			},
		},
	}
}

// CompressionScore deducts BlockPenalty for every full block whose luma
// variance exceeds BlockVarianceThreshold. Blocks that would overrun the
// right or bottom edge are skipped.
func (sc *scoreCalculator) CompressionScore(buf *PixelBuffer) float64 {
	score := sc.opts.BaseScore
	size := sc.opts.BlockSize

	lumasPtr := sc.slicePool.Get().(*[]float64)
	defer sc.slicePool.Put(lumasPtr)

	for y := 0; y+size <= buf.Height; y += size {
		for x := 0; x+size <= buf.Width; x += size {
			lumas := (*lumasPtr)[:0]
			for by := 0; by < size; by++ {
				row := buf.offset(x, y+by)
				for bx := 0; bx < size; bx++ {
					lumas = append(lumas, lumaAt(buf.Pix, row+bx*bytesPerPixel))
				}
			}
			*lumasPtr = lumas

			// Population variance: divide by the block's pixel count
			_, variance := stat.PopMeanVariance(lumas, nil)
			if variance > sc.opts.BlockVarianceThreshold {
				score -= sc.opts.BlockPenalty
			}
		}
	}

	return math.Max(0, score)
}

// PixelConsistency deducts AbruptPixelPenalty for every interior pixel whose
// luma jumps by more than NeighborLumaThreshold against at least
// MinAbruptNeighbors of its four direct neighbours.
func (sc *scoreCalculator) PixelConsistency(buf *PixelBuffer) float64 {
	score := sc.opts.BaseScore
	threshold := sc.opts.NeighborLumaThreshold
	stride := buf.Width * bytesPerPixel

	for y := 1; y < buf.Height-1; y++ {
		for x := 1; x < buf.Width-1; x++ {
			i := buf.offset(x, y)
			center := lumaAt(buf.Pix, i)

			abrupt := 0
			for _, n := range [4]int{i - stride, i + stride, i - bytesPerPixel, i + bytesPerPixel} {
				if math.Abs(center-lumaAt(buf.Pix, n)) > threshold {
					abrupt++
				}
			}

			if abrupt >= sc.opts.MinAbruptNeighbors {
				score -= sc.opts.AbruptPixelPenalty
			}
		}
	}

	return math.Max(0, score)
}

// TextAlignment scans each row for runs of dark pixels. A run longer than
// RunLengthThreshold costs RunPenalty when a non-dark pixel ends it; a run
// still open at the end of the row is not counted.
func (sc *scoreCalculator) TextAlignment(buf *PixelBuffer) float64 {
	score := sc.opts.BaseScore

	for y := 0; y < buf.Height; y++ {
		run := 0
		i := buf.offset(0, y)
		for x := 0; x < buf.Width; x++ {
			if lumaAt(buf.Pix, i) < sc.opts.DarkLumaThreshold {
				run++
			} else {
				if run > sc.opts.RunLengthThreshold {
					score -= sc.opts.RunPenalty
				}
				run = 0
			}
			i += bytesPerPixel
		}
	}

	return math.Max(0, score)
}

// MetadataScore checks dimensions against the common screenshot sizes and the
// format against the allow-list. The format match is exact and
// case-sensitive; callers pass an already lowercased format.
func (sc *scoreCalculator) MetadataScore(meta models.ImageMetadata) float64 {
	score := sc.opts.BaseScore

	if !sc.isCommonDimension(meta.Width, meta.Height) {
		score -= sc.opts.DimensionPenalty
	}
	if !sc.isAllowedFormat(meta.Format) {
		score -= sc.opts.FormatPenalty
	}

	return score
}

func (sc *scoreCalculator) isCommonDimension(width, height int) bool {
	tol := sc.opts.DimensionTolerance
	for _, dim := range sc.opts.CommonDimensions {
		if abs(dim.Width-width) <= tol && abs(dim.Height-height) <= tol {
			return true
		}
	}
	return false
}

func (sc *scoreCalculator) isAllowedFormat(format string) bool {
	for _, allowed := range sc.opts.AllowedFormats {
		if format == allowed {
			return true
		}
	}
	return false
}

// abs returns the absolute value of an integer
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
