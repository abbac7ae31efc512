// Package fuse reconciles two text candidates for the same page: one
// from the document's embedded text layer, one from OCR. Neither
// source is trusted universally; length and lexical novelty stand in
// for informational completeness.
package fuse

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/palimpsest/textclean"
)

// Arbitration thresholds. A side has to be meaningfully longer to win
// on length alone; the asymmetry reflects that embedded text carries
// no recognition noise.
const (
	embeddedLengthAdvantage = 1.5
	ocrLengthAdvantage      = 1.2
	noveltyThreshold        = 0.3
)

// Fuser configures fusion. FixDigits controls whether the winner's
// normalization applies the lossy digit/letter confusion fixes; turn
// it off for documents whose genuine content mixes letters and digits
// in those patterns.
type Fuser struct {
	FixDigits bool
}

// Fuse merges embedded and OCR text for one page with digit fixes
// enabled.
func Fuse(embedded, ocr string) string {
	return Fuser{FixDigits: true}.Fuse(embedded, ocr)
}

// Fuse merges embedded and OCR text for one page.
//
// An empty or whitespace-only side yields the other side unmodified,
// so Fuse(a, "") == a and Fuse("", b) == b. Otherwise the policy is:
// embedded wins when at least 1.5x longer, OCR wins when at least 1.2x
// longer, and in between the OCR text wins only when it contributes
// enough words the embedded text lacks. The winning base is passed
// through the cleaner's normalization pass before being returned.
func (f Fuser) Fuse(embedded, ocr string) string {
	embTrim := strings.TrimSpace(embedded)
	ocrTrim := strings.TrimSpace(ocr)

	if embTrim == "" {
		return ocr
	}
	if ocrTrim == "" {
		return embedded
	}

	embLen := float64(utf8.RuneCountInString(embTrim))
	ocrLen := float64(utf8.RuneCountInString(ocrTrim))

	var base string
	switch {
	case embLen >= embeddedLengthAdvantage*ocrLen:
		base = embedded
	case ocrLen >= ocrLengthAdvantage*embLen:
		base = ocr
	case novelty(ocrTrim, embTrim) > noveltyThreshold:
		base = ocr
	default:
		base = embedded
	}

	return textclean.Cleaner{FixDigits: f.FixDigits}.Normalize(base)
}

// novelty returns the fraction of OCR's unique words that do not
// appear in the embedded text, relative to the embedded text's unique
// word count. Comparison is case-insensitive.
func novelty(ocr, embedded string) float64 {
	ocrWords := wordSet(ocr)
	embWords := wordSet(embedded)

	if len(embWords) == 0 {
		if len(ocrWords) > 0 {
			return 1.0
		}
		return 0
	}

	unique := 0
	for w := range ocrWords {
		if _, ok := embWords[w]; !ok {
			unique++
		}
	}
	return float64(unique) / float64(len(embWords))
}

// wordSet builds the set of lowercased alphanumeric tokens in s.
func wordSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
