package analyzer

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"go-tamper-inspector/pkg/models"
)

// coreVerifier implements Verifier and runs the four analyses on a worker pool
type coreVerifier struct {
	opts       HeuristicOptions
	workerPool *WorkerPool
	calculator ScoreCalculator
}

// NewVerifier creates a verifier with all components
func NewVerifier(opts HeuristicOptions) (Verifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid heuristic options: %w", err)
	}

	v := &coreVerifier{
		opts:       opts,
		calculator: NewScoreCalculator(opts),
	}
	if opts.UseWorkerPool {
		v.workerPool = NewWorkerPool(opts.MaxWorkers)
		v.workerPool.Start()
	}
	return v, nil
}

// Verify runs the four independent analyses and aggregates them.
// buf must be a valid buffer as produced by NewPixelBuffer or
// PixelBufferFromImage.
func (v *coreVerifier) Verify(buf *PixelBuffer, meta models.ImageMetadata) VerificationResult {
	var scores AnalysisScores

	// Each task writes a distinct field, so no locking is needed
	tasks := []func(){
		func() { scores.CompressionScore = v.calculator.CompressionScore(buf) },
		func() { scores.PixelConsistency = v.calculator.PixelConsistency(buf) },
		func() { scores.TextAlignment = v.calculator.TextAlignment(buf) },
		func() { scores.MetadataScore = v.calculator.MetadataScore(meta) },
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		job := func() {
			defer wg.Done()
			task()
		}
		if v.workerPool == nil || !v.workerPool.Submit(job) {
			job()
		}
	}
	wg.Wait()

	return Aggregate(scores, meta, v.opts.TamperThreshold)
}

// Options returns the heuristic options the verifier was built with
func (v *coreVerifier) Options() HeuristicOptions {
	return v.opts
}

// PoolStats exposes worker pool counters; zero when running without a pool
func (v *coreVerifier) PoolStats() PoolStats {
	if v.workerPool == nil {
		return PoolStats{}
	}
	return v.workerPool.GetStats()
}

// Close releases the worker pool
func (v *coreVerifier) Close() error {
	if v.workerPool != nil {
		v.workerPool.Close()
	}
	return nil
}

// Aggregate turns four sub-scores into a verdict: confidence is the mean
// rounded half away from zero, and the image counts as tampered when the
// confidence is strictly below threshold.
func Aggregate(scores AnalysisScores, meta models.ImageMetadata, threshold float64) VerificationResult {
	confidence := int(math.Round(stat.Mean(scores.Values(), nil)))

	return VerificationResult{
		IsTampered: float64(confidence) < threshold,
		Confidence: confidence,
		Metadata:   meta,
		Analysis:   scores,
	}
}
