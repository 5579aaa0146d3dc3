package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go-tamper-inspector/internal/analyzer"
	apperrors "go-tamper-inspector/internal/errors"
	"go-tamper-inspector/internal/loader"
	"go-tamper-inspector/internal/logger"
	"go-tamper-inspector/internal/observer"
	"go-tamper-inspector/internal/ocr"
	"go-tamper-inspector/internal/report"
	"go-tamper-inspector/internal/repository"
	"go-tamper-inspector/pkg/models"
)

// SuppliedTextSource marks OCR text handed in by the caller
const SuppliedTextSource = "supplied"

// VerificationService verifies screenshots and manages the resulting reports
type VerificationService interface {
	// VerifyUpload verifies raw uploaded bytes
	VerifyUpload(ctx context.Context, req models.UploadRequest) (*models.Report, error)

	// VerifyReference fetches and verifies an image reference
	VerifyReference(ctx context.Context, req models.VerifyRequest) (*models.Report, error)

	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListReports(ctx context.Context) ([]models.ReportSummary, error)

	// RenderReportPDF writes the PDF rendition of a stored report to w
	RenderReportPDF(ctx context.Context, id string, w io.Writer) error
}

// ImageDecoder turns encoded bytes into pixels and metadata
type ImageDecoder interface {
	Decode(ctx context.Context, data []byte, name string) (*loader.Decoded, error)
}

// Dependencies are the collaborators of the verification service.
// TextExtractor and Events may be nil.
type Dependencies struct {
	Images        repository.ImageRepository
	Reports       repository.ReportRepository
	Decoder       ImageDecoder
	Verifier      analyzer.Verifier
	Fingerprinter analyzer.Fingerprinter
	Quality       analyzer.QualityInspector
	TextExtractor ocr.TextExtractor
	Events        observer.Subject
}

// Options tunes the verification service
type Options struct {
	// AnalysisTimeout bounds decoding plus verification; zero disables it
	AnalysisTimeout time.Duration
	OCRLanguage     string
}

type verificationService struct {
	deps Dependencies
	opts Options
}

// NewVerificationService creates a new verification service
func NewVerificationService(deps Dependencies, opts Options) VerificationService {
	return &verificationService{
		deps: deps,
		opts: opts,
	}
}

// verifyInput is one image plus the caller's OCR choices
type verifyInput struct {
	data         []byte
	name         string
	source       string
	ocrText      string
	expectedText string
	skipOCR      bool
	start        time.Time
}

func (s *verificationService) VerifyUpload(ctx context.Context, req models.UploadRequest) (*models.Report, error) {
	in := verifyInput{
		data:         req.Data,
		name:         req.Filename,
		source:       "upload:" + req.Filename,
		ocrText:      req.OCRText,
		expectedText: req.ExpectedText,
		skipOCR:      req.SkipOCR,
		start:        time.Now(),
	}
	s.publish(ctx, observer.VerificationEvent{EventType: observer.VerificationStarted, Source: in.source})

	if len(req.Data) == 0 {
		err := apperrors.NewValidationError("uploaded file is empty", nil)
		s.publishFailure(ctx, in, err)
		return nil, err
	}
	return s.verify(ctx, in)
}

func (s *verificationService) VerifyReference(ctx context.Context, req models.VerifyRequest) (*models.Report, error) {
	start := time.Now()
	in := verifyInput{
		source:       referenceLabel(req.Image),
		ocrText:      req.OCRText,
		expectedText: req.ExpectedText,
		skipOCR:      req.SkipOCR,
		start:        start,
	}
	s.publish(ctx, observer.VerificationEvent{EventType: observer.VerificationStarted, Source: in.source})

	if err := s.deps.Images.ValidateImageRef(req.Image); err != nil {
		appErr := asAppError(err, func(err error) *apperrors.AppError {
			return apperrors.NewValidationError("invalid image reference", err)
		})
		s.publishFailure(ctx, in, appErr)
		return nil, appErr
	}

	blob, err := s.deps.Images.FetchImage(ctx, req.Image)
	if err != nil {
		appErr := fetchError(err)
		s.publish(ctx, observer.VerificationEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         in.source,
			ProcessingTime: time.Since(start),
			ErrorMessage:   appErr.Error(),
		})
		s.publishFailure(ctx, in, appErr)
		return nil, appErr
	}

	if blob.Source != "" {
		in.source = blob.Source
	}
	in.data = blob.Data
	in.name = blob.Name
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.ImageFetched,
		Source:         in.source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"bytes":        len(blob.Data),
			"content_type": blob.ContentType,
		},
	})

	return s.verify(ctx, in)
}

// verify runs decode, heuristics, OCR and fingerprinting, then stores the report.
// A decode failure produces no report.
func (s *verificationService) verify(ctx context.Context, in verifyInput) (*models.Report, error) {
	analysisCtx := ctx
	if s.opts.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		analysisCtx, cancel = context.WithTimeout(ctx, s.opts.AnalysisTimeout)
		defer cancel()
	}

	decoded, err := s.deps.Decoder.Decode(analysisCtx, in.data, in.name)
	if err != nil {
		s.publishFailure(ctx, in, err)
		return nil, err
	}

	result, err := s.runVerifier(analysisCtx, decoded)
	if err != nil {
		s.publishFailure(ctx, in, err)
		return nil, err
	}

	var warnings []string
	if s.deps.Quality != nil {
		warnings = append(warnings, s.deps.Quality.Inspect(decoded.Buffer).Warnings()...)
	}

	ocrResult, ocrWarning := s.extractText(ctx, in)
	if ocrWarning != "" {
		warnings = append(warnings, ocrWarning)
	}

	var fingerprint models.Fingerprint
	if s.deps.Fingerprinter != nil {
		fingerprint = s.deps.Fingerprinter.Fingerprint(decoded.Image)
	}

	rep := report.Build(report.Input{
		Source:         in.source,
		ProcessingTime: time.Since(in.start),
		Verification:   result,
		OCR:            ocrResult,
		Fingerprint:    fingerprint,
		Warnings:       warnings,
		Image:          in.data,
	})

	if err := s.deps.Reports.Save(ctx, rep); err != nil {
		appErr := apperrors.NewInternalError("failed to store report", err)
		s.publishFailure(ctx, in, appErr)
		return nil, appErr
	}

	logger.WithFields(logrus.Fields{
		"report_id":   rep.ID,
		"source":      rep.Source,
		"is_tampered": result.IsTampered,
		"confidence":  result.Confidence,
		"format":      result.Metadata.Format,
	}).Debug("Report stored")

	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.VerificationCompleted,
		Source:         in.source,
		ReportID:       rep.ID,
		ProcessingTime: time.Since(in.start),
		Success:        true,
		IsTampered:     result.IsTampered,
		Confidence:     result.Confidence,
		Metadata: map[string]interface{}{
			"format": result.Metadata.Format,
			"width":  result.Metadata.Width,
			"height": result.Metadata.Height,
		},
	})

	return rep, nil
}

// runVerifier scores the decoded image, giving up when ctx expires.
// The verifier itself is pure, so an abandoned run only costs CPU.
func (s *verificationService) runVerifier(ctx context.Context, decoded *loader.Decoded) (models.VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.VerificationResult{}, analysisContextError(err)
	}

	done := make(chan models.VerificationResult, 1)
	go func() {
		done <- s.deps.Verifier.Verify(decoded.Buffer, decoded.Metadata)
	}()

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return models.VerificationResult{}, analysisContextError(ctx.Err())
	}
}

// extractText decides where the report's text comes from. Supplied text wins,
// then the OCR engine unless it is disabled or skipped. An engine failure is
// recorded in the result and never fails the verification.
func (s *verificationService) extractText(ctx context.Context, in verifyInput) (*models.OCRResult, string) {
	var result *models.OCRResult

	switch {
	case in.ocrText != "":
		result = &models.OCRResult{ExtractedText: in.ocrText, Source: SuppliedTextSource}
	case in.skipOCR || s.deps.TextExtractor == nil:
		if in.expectedText != "" {
			return nil, "expected text was not compared because no OCR text is available"
		}
		return nil, ""
	default:
		result = s.runOCR(ctx, in)
	}

	if in.expectedText != "" {
		result.ExpectedText = in.expectedText
		if result.OCRError == "" {
			acc := ocr.Measure(in.expectedText, result.ExtractedText)
			result.WER = &acc.WordErrorRate
			result.CER = &acc.CharErrorRate
		}
	}
	return result, ""
}

func (s *verificationService) runOCR(ctx context.Context, in verifyInput) *models.OCRResult {
	engine := s.deps.TextExtractor.Name()
	res, err := s.deps.TextExtractor.ExtractText(ctx, in.data, s.opts.OCRLanguage)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"source": in.source,
			"engine": engine,
		}).Warn("Text extraction failed")
		return &models.OCRResult{Source: engine, Language: s.opts.OCRLanguage, OCRError: err.Error()}
	}

	return &models.OCRResult{
		ExtractedText: res.Text,
		Source:        res.Engine,
		Language:      res.Language,
		Confidence:    res.Confidence,
	}
}

func (s *verificationService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if !report.ValidID(id) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("report %q not found", id), repository.ErrReportNotFound)
	}

	rep, err := s.deps.Reports.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("report %q not found", id), err)
		}
		return nil, apperrors.NewInternalError("failed to load report", err)
	}
	return rep, nil
}

func (s *verificationService) ListReports(ctx context.Context) ([]models.ReportSummary, error) {
	reports, err := s.deps.Reports.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reports", err)
	}

	summaries := make([]models.ReportSummary, 0, len(reports))
	for _, r := range reports {
		summaries = append(summaries, r.Summary())
	}
	return summaries, nil
}

func (s *verificationService) RenderReportPDF(ctx context.Context, id string, w io.Writer) error {
	rep, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}

	var img image.Image
	if len(rep.Image) > 0 {
		decoded, err := s.deps.Decoder.Decode(ctx, rep.Image, "")
		if err != nil {
			logger.WithError(err).WithField("report_id", id).Warn("Rendering report without its image")
		} else {
			img = decoded.Image
		}
	}

	if err := report.RenderPDF(w, rep, img); err != nil {
		return apperrors.NewInternalError("failed to render report PDF", err)
	}
	return nil
}

func (s *verificationService) publish(ctx context.Context, event observer.VerificationEvent) {
	if s.deps.Events == nil {
		return
	}
	s.deps.Events.NotifyObservers(ctx, event)
}

func (s *verificationService) publishFailure(ctx context.Context, in verifyInput, err error) {
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.VerificationFailed,
		Source:         in.source,
		ProcessingTime: time.Since(in.start),
		ErrorMessage:   err.Error(),
	})
}

// referenceLabel keeps data: URL payloads out of logs and reports
func referenceLabel(ref string) string {
	const maxLabel = 256
	if strings.HasPrefix(ref, "data:") {
		if i := strings.IndexByte(ref, ','); i >= 0 {
			return ref[:i]
		}
	}
	if len(ref) > maxLabel {
		return ref[:maxLabel]
	}
	return ref
}

// fetchError classifies a source failure. Errors that already carry a type
// keep it; deadline expiry becomes a timeout, anything else a network error.
func fetchError(err error) *apperrors.AppError {
	return asAppError(err, func(err error) *apperrors.AppError {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeoutError("image fetch timed out", err)
		}
		return apperrors.NewNetworkError("failed to fetch image", err)
	})
}

func asAppError(err error, wrap func(error) *apperrors.AppError) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return wrap(err)
}

func analysisContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("verification timed out", err)
	}
	return apperrors.NewProcessingError("verification cancelled", err)
}
