// Package textclean normalizes OCR output: whitespace, hyphenation
// breaks, and the character confusions OCR engines habitually produce.
//
// Cleaning is pure and idempotent: Clean(Clean(x)) == Clean(x) for all
// x. Downstream code relies on that property to re-clean fused text
// without drift.
package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// allowedPunct is the punctuation retained by the stripping stage.
// Everything that is not a word character, whitespace, or in this set
// is removed.
const allowedPunct = `.,;:!?'"()-`

var (
	// quoteReplacer maps curly quote variants onto straight ASCII.
	quoteReplacer = strings.NewReplacer(
		"“", `"`, // left double
		"”", `"`, // right double
		"„", `"`, // low double
		"‘", "'", // left single
		"’", "'", // right single
		"‚", "'", // low single
	)

	// hyphenBreak matches a hyphenated word split across a line break.
	hyphenBreak = regexp.MustCompile(`(\w)-[ \t]*\n[ \t]*(\w)`)

	// paragraphBreak matches two or more newlines plus surrounding
	// whitespace: one paragraph boundary, however messy.
	paragraphBreak = regexp.MustCompile(`[ \t\r]*\n\s*\n\s*`)

	// interiorNewline matches a single newline with its horizontal
	// padding, inside one paragraph.
	interiorNewline = regexp.MustCompile(`[ \t\r]*\n[ \t\r]*`)

	// horizontalRun matches runs of spaces and tabs.
	horizontalRun = regexp.MustCompile(`[ \t]+`)
)

// digitFixes are the literal OCR confusion substitutions, applied to a
// fixpoint so overlapping occurrences (such as "OO0") fully resolve.
var digitFixes = [][2]string{
	{"O0", "00"},
	{"0O", "00"},
	{"l1", "11"},
	{"1l", "11"},
	{"I1", "11"},
	{"1I", "11"},
}

// Cleaner configures the cleaning pass.
type Cleaner struct {
	// FixDigits enables the digit/letter confusion substitutions.
	// They are lossy heuristics: text legitimately containing "O0"
	// will be altered, so callers can turn them off.
	FixDigits bool
}

// Clean runs the full cleaning pass with digit fixes enabled.
func Clean(s string) string {
	return Cleaner{FixDigits: true}.Clean(s)
}

// Clean normalizes s. Stages, in order: unicode NFC, pipe to capital
// I, straighten curly quotes, join hyphenation line breaks, collapse
// single interior newlines to spaces while runs of blank lines become
// exactly one, strip disallowed characters, optional digit-confusion
// fixes, collapse horizontal whitespace, trim.
//
/// The digit fixes run after the stripping stage: removing a garbage
// character can butt a letter against a digit (as in "O*0"), and a
// confusion pair formed that way must resolve in the same pass or
// Clean would not be idempotent. The fixes themselves emit only
// digits, so nothing they produce needs re-stripping.
func (c Cleaner) Clean(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "|", "I")
	s = quoteReplacer.Replace(s)
	s = hyphenBreak.ReplaceAllString(s, "$1$2")
	s = joinParagraphs(s)
	s = stripDisallowed(s)
	if c.FixDigits {
		s = fixDigitConfusions(s)
	}
	s = horizontalRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalize is the lighter pass applied to a fusion winner: pipe to I,
// optional digit-confusion fixes, whitespace collapse. Paragraph
// breaks survive.
func (c Cleaner) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "|", "I")
	if c.FixDigits {
		s = fixDigitConfusions(s)
	}
	s = paragraphBreak.ReplaceAllString(s, "\n\n")
	s = horizontalRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalize runs the lighter fusion pass with digit fixes enabled.
func Normalize(s string) string {
	return Cleaner{FixDigits: true}.Normalize(s)
}

// joinParagraphs collapses single interior newlines to spaces while
// preserving paragraph boundaries as exactly one blank line.
func joinParagraphs(s string) string {
	paras := paragraphBreak.Split(s, -1)
	for i, p := range paras {
		paras[i] = interiorNewline.ReplaceAllString(p, " ")
	}
	return strings.Join(paras, "\n\n")
}

// fixDigitConfusions applies the literal substitutions until stable.
// Each substitution strictly reduces the number of letters involved,
// so the loop terminates.
func fixDigitConfusions(s string) string {
	for _, fix := range digitFixes {
		for strings.Contains(s, fix[0]) {
			s = strings.ReplaceAll(s, fix[0], fix[1])
		}
	}
	return s
}

// stripDisallowed removes every character outside the allow-list of
// word characters, whitespace, and common punctuation.
func stripDisallowed(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		if strings.ContainsRune(allowedPunct, r) {
			return r
		}
		return -1
	}, s)
}
