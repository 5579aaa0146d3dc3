package ocr

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Accuracy compares extracted text with the expected text.
type Accuracy struct {
	// WordErrorRate is the word-level edit distance over the expected word count
	WordErrorRate float64
	// CharErrorRate is the character-level edit distance over the expected length
	CharErrorRate float64
}

// Measure computes error rates of extracted against expected. Both texts are
// lowercased and whitespace-collapsed first. An empty expectation scores 0
// against empty output and 1 against anything else.
func Measure(expected, extracted string) Accuracy {
	refWords := strings.Fields(strings.ToLower(expected))
	gotWords := strings.Fields(strings.ToLower(extracted))

	if len(refWords) == 0 {
		if len(gotWords) == 0 {
			return Accuracy{}
		}
		return Accuracy{WordErrorRate: 1, CharErrorRate: 1}
	}

	wordRate, _ := wer.WER(refWords, gotWords)

	ref := strings.Join(refWords, " ")
	got := strings.Join(gotWords, " ")
	charRate := float64(levenshtein.Distance(ref, got)) / float64(len([]rune(ref)))

	return Accuracy{
		WordErrorRate: wordRate,
		CharErrorRate: charRate,
	}
}
