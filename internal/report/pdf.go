package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"go-tamper-inspector/pkg/models"
)

const (
	pageMargin = 20.0
	lineHeight = 7.0
	reportName = "Screenshot Verification Report"
	noTextText = "No text detected"
)

// Filename is the download name of a report's PDF
func Filename(id string) string {
	return fmt.Sprintf("tamper-report-%s.pdf", id)
}

// RenderPDF writes r as a single A4 document. img, when not nil, is embedded
// scaled to the page width.
func RenderPDF(w io.Writer, r *models.Report, img image.Image) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(reportName, true)
	pdf.SetCreationDate(r.CreatedAt)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, pageHeight := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	line := func(size float64, style, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(contentWidth, lineHeight, tr(text), "", 1, "L", false, 0, "")
	}

	line(20, "B", reportName)
	pdf.Ln(2)
	line(12, "", "Report ID: "+r.ID)
	line(12, "", "Created: "+r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if r.Source != "" {
		line(12, "", "Source: "+truncate(r.Source, 90))
	}

	pdf.Ln(3)
	if r.Verification.IsTampered {
		pdf.SetTextColor(200, 30, 30)
	} else {
		pdf.SetTextColor(20, 140, 60)
	}
	line(14, "B", "Status: "+StatusText(r))
	pdf.SetTextColor(0, 0, 0)
	line(12, "", fmt.Sprintf("Confidence: %d%%", r.Verification.Confidence))

	pdf.Ln(3)
	scores := r.Verification.Analysis
	line(12, "B", "Analysis Scores:")
	line(11, "", fmt.Sprintf("Compression: %.2f", scores.CompressionScore))
	line(11, "", fmt.Sprintf("Pixel Consistency: %.2f", scores.PixelConsistency))
	line(11, "", fmt.Sprintf("Text Alignment: %.2f", scores.TextAlignment))
	line(11, "", fmt.Sprintf("Metadata: %.2f", scores.MetadataScore))

	pdf.Ln(3)
	meta := r.Verification.Metadata
	line(12, "B", "Image Metadata:")
	line(11, "", fmt.Sprintf("Dimensions: %d x %dpx", meta.Width, meta.Height))
	line(11, "", "Format: "+strings.ToUpper(meta.Format))
	line(11, "", fmt.Sprintf("File Size: %.2f KB", float64(meta.Size)/1024))
	if r.Fingerprint.PerceptionHash != "" {
		line(11, "", "Perceptual Hash: "+r.Fingerprint.PerceptionHash)
	}

	if len(r.Warnings) > 0 {
		pdf.Ln(3)
		line(12, "B", "Warnings:")
		pdf.SetFont("Helvetica", "", 11)
		for _, warning := range r.Warnings {
			pdf.MultiCell(contentWidth, 6, tr("- "+warning), "", "L", false)
		}
	}

	pdf.Ln(3)
	line(12, "B", "Extracted Text:")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(contentWidth, 6, tr(extractedText(r)), "", "L", false)
	if r.OCR != nil && r.OCR.WER != nil && r.OCR.CER != nil {
		line(11, "I", fmt.Sprintf("Word error rate: %.1f%%, character error rate: %.1f%%",
			*r.OCR.WER*100, *r.OCR.CER*100))
	}

	if img != nil {
		if err := embedImage(pdf, img, contentWidth, pageHeight); err != nil {
			return err
		}
	}

	if pdf.Err() {
		return fmt.Errorf("failed to render report: %w", pdf.Error())
	}
	return pdf.Output(w)
}

func embedImage(pdf *fpdf.Fpdf, img image.Image, maxWidth, pageHeight float64) error {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode report image: %w", err)
	}

	width := maxWidth
	height := float64(bounds.Dy()) * width / float64(bounds.Dx())
	// Tall screenshots are shrunk to fit a page
	if maxHeight := pageHeight - 2*pageMargin; height > maxHeight {
		width *= maxHeight / height
		height = maxHeight
	}

	pdf.Ln(5)
	if pdf.GetY()+height > pageHeight-pageMargin {
		pdf.AddPage()
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("screenshot", opts, &buf)
	pdf.ImageOptions("screenshot", pageMargin, pdf.GetY(), width, height, false, opts, 0, "")
	return nil
}

func extractedText(r *models.Report) string {
	if r.OCR == nil || strings.TrimSpace(r.OCR.ExtractedText) == "" {
		return noTextText
	}
	return r.OCR.ExtractedText
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
