package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-tamper-inspector/internal/config"
	"go-tamper-inspector/internal/factory"
	"go-tamper-inspector/internal/logger"
	"go-tamper-inspector/internal/ocr"
	"go-tamper-inspector/internal/ocr/tesseract"
	"go-tamper-inspector/internal/report"
	"go-tamper-inspector/internal/repository"
	"go-tamper-inspector/internal/service"
	"go-tamper-inspector/internal/storage"
	"go-tamper-inspector/pkg/models"
)

type verifyOptions struct {
	ocrText      string
	expectedText string
	skipOCR      bool
	pdfPath      string
	jsonOutput   bool
	timeout      time.Duration
}

func newVerifyCmd() *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <file|url>",
		Short: "Score a screenshot for signs of tampering",
		Long: "Runs the compression, pixel consistency, text alignment and metadata heuristics\n" +
			"against a local file or an http(s), azblob:// or data: reference.\n" +
			"Exits with status 2 when the image is flagged as tampered.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ocrText, "ocr-text", "", "text to report instead of running OCR")
	cmd.Flags().StringVar(&opts.expectedText, "expected-text", "", "text the screenshot should show; reports WER and CER")
	cmd.Flags().BoolVar(&opts.skipOCR, "skip-ocr", false, "do not run the OCR engine")
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "write a PDF report to this path")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall time limit")

	return cmd
}

func runVerify(ctx context.Context, target string, opts verifyOptions) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	svc, files, closeFn, err := buildService(cfg, opts.skipOCR)
	if err != nil {
		return err
	}
	defer closeFn()

	printInfo("Verifying %s", target)

	var rep *models.Report
	if isReference(target) {
		rep, err = svc.VerifyReference(ctx, models.VerifyRequest{
			Image:        target,
			OCRText:      opts.ocrText,
			ExpectedText: opts.expectedText,
			SkipOCR:      opts.skipOCR,
		})
	} else {
		var blob *models.ImageBlob
		blob, err = files.Fetch(ctx, target)
		if err == nil {
			rep, err = svc.VerifyUpload(ctx, models.UploadRequest{
				Data:         blob.Data,
				Filename:     blob.Name,
				OCRText:      opts.ocrText,
				ExpectedText: opts.expectedText,
				SkipOCR:      opts.skipOCR,
			})
		}
	}
	if err != nil {
		return err
	}

	if opts.pdfPath != "" {
		if err := writePDF(ctx, svc, rep.ID, opts.pdfPath); err != nil {
			return err
		}
		printInfo("PDF report written to %s", opts.pdfPath)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		printReport(rep)
	}

	if rep.Verification.IsTampered {
		return errTampered
	}
	return nil
}

// buildService wires the verification pipeline for a single local run.
// Remote sources are the same as the server's; local paths go through files.
func buildService(cfg *config.Config, skipOCR bool) (service.VerificationService, storage.ImageSource, func(), error) {
	components := factory.NewComponentFactory(cfg)

	storageTypes := []factory.StorageType{factory.HTTPStorage, factory.DataURLStorage}
	if cfg.AzureEnabled() {
		storageTypes = append(storageTypes, factory.AzureStorage)
	}
	sources, err := components.CreateSources(storageTypes...)
	if err != nil {
		return nil, nil, nil, err
	}
	files, err := components.StorageFactory.CreateStorage(factory.LocalStorage)
	if err != nil {
		return nil, nil, nil, err
	}

	verifier, err := components.AnalyzerFactory.CreateVerifier()
	if err != nil {
		return nil, nil, nil, err
	}

	var extractor ocr.TextExtractor
	if cfg.OCREnabled && !skipOCR {
		extractor = tesseract.New(cfg.OCRLanguage)
	}

	svc := service.NewVerificationService(service.Dependencies{
		Images:        repository.NewSourceImageRepository(sources, nil),
		Reports:       repository.NewMemoryReportRepository(1),
		Decoder:       components.AnalyzerFactory.CreateLoader(),
		Verifier:      verifier,
		Fingerprinter: components.AnalyzerFactory.CreateFingerprinter(),
		Quality:       components.AnalyzerFactory.CreateQualityInspector(),
		TextExtractor: extractor,
	}, service.Options{
		AnalysisTimeout: cfg.AnalysisTimeout,
		OCRLanguage:     cfg.OCRLanguage,
	})

	return svc, files, func() { verifier.Close() }, nil
}

// isReference reports whether target names a remote or inline image rather than a path
func isReference(target string) bool {
	if strings.HasPrefix(target, storage.DataURLScheme+":") {
		return true
	}
	scheme, _, ok := strings.Cut(target, "://")
	return ok && scheme != storage.FileScheme
}

func writePDF(ctx context.Context, svc service.VerificationService, id, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := svc.RenderReportPDF(ctx, id, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(rep *models.Report) {
	v := rep.Verification

	fmt.Println()
	if v.IsTampered {
		printAlert("%s", report.StatusText(rep))
	} else {
		printSuccess("%s", report.StatusText(rep))
	}

	rows := []struct {
		label string
		value string
	}{
		{"Confidence", fmt.Sprintf("%d%%", v.Confidence)},
		{"Compression", formatScore(v.Analysis.CompressionScore)},
		{"Pixel consistency", formatScore(v.Analysis.PixelConsistency)},
		{"Text alignment", formatScore(v.Analysis.TextAlignment)},
		{"Metadata", formatScore(v.Analysis.MetadataScore)},
		{"Dimensions", fmt.Sprintf("%d x %d", v.Metadata.Width, v.Metadata.Height)},
		{"Format", strings.ToUpper(v.Metadata.Format)},
		{"File size", fmt.Sprintf("%.2f KB", float64(v.Metadata.Size)/1024)},
		{"Report ID", rep.ID},
	}
	if rep.Fingerprint.PerceptionHash != "" {
		rows = append(rows, struct {
			label string
			value string
		}{"Perceptual hash", rep.Fingerprint.PerceptionHash})
	}
	for _, row := range rows {
		fmt.Printf("    %-18s %s\n", row.label+":", row.value)
	}

	if rep.OCR != nil {
		fmt.Println()
		switch {
		case rep.OCR.OCRError != "":
			printWarning("OCR failed: %s", rep.OCR.OCRError)
		case strings.TrimSpace(rep.OCR.ExtractedText) == "":
			printInfo("No text detected")
		default:
			fmt.Printf("    Extracted text (%s):\n", rep.OCR.Source)
			for _, line := range strings.Split(strings.TrimSpace(rep.OCR.ExtractedText), "\n") {
				fmt.Printf("      %s\n", line)
			}
		}
		if rep.OCR.WER != nil && rep.OCR.CER != nil {
			fmt.Printf("    %-18s %.1f%% / %.1f%%\n", "WER / CER:", *rep.OCR.WER*100, *rep.OCR.CER*100)
		}
	}

	if len(rep.Warnings) > 0 {
		fmt.Println()
		for _, w := range rep.Warnings {
			printWarning("%s", w)
		}
	}
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}
