package analyzer

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

const (
	blurVarianceThreshold = 100
	overexposedLuma       = 230
	underexposedLuma      = 25
)

// QualityReport describes capture problems that make a verdict or the
// extracted text less reliable. It never changes the verdict itself.
type QualityReport struct {
	Blurry            bool    `json:"blurry"`
	Overexposed       bool    `json:"overexposed"`
	Underexposed      bool    `json:"underexposed"`
	LaplacianVariance float64 `json:"laplacian_variance"`
	AverageLuma       float64 `json:"average_luma"`
}

// QualityInspector measures sharpness and exposure of a pixel buffer
type QualityInspector interface {
	Inspect(buf *PixelBuffer) QualityReport
}

type qualityInspector struct{}

// NewQualityInspector creates a quality inspector
func NewQualityInspector() QualityInspector {
	return &qualityInspector{}
}

func (q *qualityInspector) Inspect(buf *PixelBuffer) QualityReport {
	if buf == nil || buf.Width == 0 || buf.Height == 0 {
		return QualityReport{}
	}

	luma := make([]float64, buf.Width*buf.Height)
	for i := range luma {
		luma[i] = lumaAt(buf.Pix, i*bytesPerPixel)
	}
	avg := stat.Mean(luma, nil)
	variance := laplacianVariance(luma, buf.Width, buf.Height)

	return QualityReport{
		// Images too small for the kernel are not judged for blur
		Blurry:            buf.Width > 2 && buf.Height > 2 && variance < blurVarianceThreshold,
		Overexposed:       avg > overexposedLuma,
		Underexposed:      avg < underexposedLuma,
		LaplacianVariance: variance,
		AverageLuma:       avg,
	}
}

// Warnings renders the report as human-readable notes
func (r QualityReport) Warnings() []string {
	var warnings []string
	if r.Blurry {
		warnings = append(warnings, fmt.Sprintf("image appears blurry (laplacian variance %.1f)", r.LaplacianVariance))
	}
	if r.Overexposed {
		warnings = append(warnings, fmt.Sprintf("image appears overexposed (average luma %.1f)", r.AverageLuma))
	}
	if r.Underexposed {
		warnings = append(warnings, fmt.Sprintf("image appears underexposed (average luma %.1f)", r.AverageLuma))
	}
	return warnings
}

// laplacianVariance applies the 4-neighbour Laplacian kernel to interior
// pixels and returns the population variance of the responses
func laplacianVariance(luma []float64, width, height int) float64 {
	if width < 3 || height < 3 {
		return 0
	}

	responses := make([]float64, 0, (width-2)*(height-2))
	for y := 1; y < height-1; y++ {
		row := y * width
		for x := 1; x < width-1; x++ {
			i := row + x
			responses = append(responses,
				luma[i-width]+luma[i+width]+luma[i-1]+luma[i+1]-4*luma[i])
		}
	}

	_, variance := stat.PopMeanVariance(responses, nil)
	return variance
}
