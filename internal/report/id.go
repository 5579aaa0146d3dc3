// Package report assembles verification reports and renders them as PDF.
package report

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// idSuffixLen random base36 characters follow the timestamp
const idSuffixLen = 6

// NewID returns "<unix millis in base36>-<6 random base36 chars>".
// IDs sort roughly by creation time and are not secrets.
func NewID(now time.Time) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	b.WriteByte('-')
	for i := 0; i < idSuffixLen; i++ {
		b.WriteByte(idAlphabet[rand.Intn(len(idAlphabet))])
	}
	return b.String()
}

// ValidID reports whether id has the shape produced by NewID
func ValidID(id string) bool {
	ts, suffix, ok := strings.Cut(id, "-")
	if !ok || ts == "" || len(suffix) != idSuffixLen {
		return false
	}
	for _, c := range ts + suffix {
		if !strings.ContainsRune(idAlphabet, c) {
			return false
		}
	}
	return true
}
