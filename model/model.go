package model

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/tsawler/palimpsest/format"
	"github.com/tsawler/palimpsest/score"
)

// Sentinel strings substituted for a page's text when processing could
// not produce a genuine result. They are values, never errors: a page
// always has a text entry.
const (
	// SentinelExtractionFailed marks a page whose processing failed entirely.
	SentinelExtractionFailed = "extraction failed"
	// SentinelOCRUnavailable marks a page that needed OCR while the
	// OCR engine could not be reached.
	SentinelOCRUnavailable = "OCR engine unavailable"
	// SentinelNoText marks a page where every OCR attempt and the bare
	// fallback produced nothing usable.
	SentinelNoText = "no text detected"
)

// Source identifies where a page's resolved text came from.
type Source string

const (
	// SourceEmbedded means the embedded text was sufficient on its own.
	SourceEmbedded Source = "embedded"
	// SourceOCR means OCR output won fusion outright (no embedded text).
	SourceOCR Source = "ocr"
	// SourceFused means embedded and OCR text were reconciled.
	SourceFused Source = "fused"
	// SourceSentinel means the text is one of the sentinel strings.
	SourceSentinel Source = "sentinel"
)

// Quality selects how many preprocessing variants and recognition
// modes each page is tried with. Higher levels trade time for accuracy.
type Quality string

const (
	// QualityFast runs one recognition pass per page.
	QualityFast Quality = "fast"
	// QualityStandard runs nine recognition passes per page.
	QualityStandard Quality = "standard"
	// QualityHigh runs twenty recognition passes per page.
	QualityHigh Quality = "high"
)

// Valid reports whether q names a known quality level.
func (q Quality) Valid() bool {
	switch q {
	case QualityFast, QualityStandard, QualityHigh:
		return true
	}
	return false
}

// Document identifies a source document. Exactly one of Path or Data
// is set; a Document is immutable once constructed.
type Document struct {
	Path   string
	Data   []byte
	Format format.Format
}

// IsBuffer reports whether the document came from an in-memory buffer
// rather than a file on disk.
func (d *Document) IsBuffer() bool {
	return d.Path == ""
}

// Name returns a short human-readable identifier for log messages.
func (d *Document) Name() string {
	if d.Path != "" {
		return d.Path
	}
	return fmt.Sprintf("buffer (%d bytes, %s)", len(d.Data), d.Format)
}

// Page holds the processing outcome for a single page.
type Page struct {
	// Index is the 0-based page index.
	Index int
	// Image is the rendered page raster (or a blank placeholder on
	// fallback paths).
	Image image.Image
	// EmbeddedText is the text extracted from the document structure,
	// possibly empty.
	EmbeddedText string
	// Text is the resolved per-page text.
	Text string
	// Source records which path produced Text.
	Source Source
	// Score is the quality breakdown of the winning OCR attempt.
	// It is nil when OCR was skipped or unavailable.
	Score *score.Breakdown
	// OCRAttempts counts the recognition passes that produced usable
	// text for this page.
	OCRAttempts int
}

// Warning describes a non-fatal issue encountered during processing.
type Warning struct {
	// Page is the 1-indexed page the warning concerns, 0 for
	// document-level warnings.
	Page    int
	Message string
}

// String formats the warning with its page context.
func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// Result is the aligned output of processing one document.
type Result struct {
	Images   []image.Image
	Texts    []string
	Pages    []Page
	Warnings []Warning
	Duration time.Duration
}

// NewResult returns a Result sized for pageCount pages. All three
// sequences are allocated up front so page workers can write by index.
func NewResult(pageCount int) *Result {
	return &Result{
		Images: make([]image.Image, pageCount),
		Texts:  make([]string, pageCount),
		Pages:  make([]Page, pageCount),
	}
}

// SetPage records a page outcome, keeping Images, Texts, and Pages in
// step. Out-of-range indexes are ignored.
func (r *Result) SetPage(p Page) {
	if p.Index < 0 || p.Index >= len(r.Pages) {
		return
	}
	r.Pages[p.Index] = p
	r.Images[p.Index] = p.Image
	r.Texts[p.Index] = p.Text
}

// AddWarning appends a warning. Page is 1-indexed, 0 for document-level.
func (r *Result) AddWarning(page int, msg string) {
	r.Warnings = append(r.Warnings, Warning{Page: page, Message: msg})
}

// PageCount returns the number of pages in the result.
func (r *Result) PageCount() int {
	return len(r.Pages)
}

// Aligned reports whether the alignment invariant holds: equal-length
// image, text, and page sequences.
func (r *Result) Aligned() bool {
	return len(r.Images) == len(r.Texts) && len(r.Texts) == len(r.Pages)
}

// Text returns all page texts joined with blank lines, in page order.
func (r *Result) Text() string {
	var sb strings.Builder
	for i, t := range r.Texts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t)
	}
	return sb.String()
}
