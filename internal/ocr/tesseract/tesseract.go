// Package tesseract implements ocr.TextExtractor with the Tesseract engine.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"go-tamper-inspector/internal/ocr"
)

// Extractor runs Tesseract through gosseract, one client per call
type Extractor struct {
	clientFactory func() *gosseract.Client
	defaultLang   string
}

// New creates a Tesseract extractor; defaultLang is used when a call names none
func New(defaultLang string) *Extractor {
	if defaultLang == "" {
		defaultLang = "eng"
	}
	return &Extractor{clientFactory: gosseract.NewClient, defaultLang: defaultLang}
}

func (e *Extractor) Name() string { return "tesseract" }

type extraction struct {
	res *ocr.Result
	err error
}

// ExtractText recognizes text in data. Recognition cannot be interrupted, so
// on cancellation the call returns immediately and the client is released
// once Tesseract finishes.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, lang string) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lang == "" {
		lang = e.defaultLang
	}

	done := make(chan extraction, 1)
	go func() {
		c := e.clientFactory()
		defer c.Close()
		res, err := e.recognize(c, data, lang)
		done <- extraction{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Extractor) recognize(c *gosseract.Client, data []byte, lang string) (*ocr.Result, error) {
	if err := c.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	return &ocr.Result{
		Text:       strings.TrimSpace(text),
		Engine:     e.Name(),
		Language:   lang,
		Confidence: meanWordConfidence(c),
	}, nil
}

func meanWordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
