// Package palimpsest recovers the text of scanned and born-digital
// documents by reconciling two sources per page: the embedded text
// layer and OCR over the rendered page image.
//
// Basic usage:
//
//	result, err := palimpsest.Open("document.pdf").Process(ctx)
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(result.Text())
//
// With options:
//
//	text, warnings, err := palimpsest.Open("scan.pdf").
//	    Quality(model.QualityHigh).
//	    DPI(400).
//	    Language("eng+fra").
//	    Text(ctx)
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", palimpsest.FormatWarnings(warnings))
//	}
//
// Every page always yields both an image and a text entry. When a
// stage fails, the entry degrades to a placeholder image or a sentinel
// string instead of disappearing, so the two sequences stay aligned
// with the document's page count.
package palimpsest

import (
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/palimpsest/format"
	"github.com/tsawler/palimpsest/model"
)

// Warning describes a non-fatal issue encountered during processing.
type Warning = model.Warning

// Open prepares a document on disk for processing and returns a
// Processor for fluent configuration. The format is detected from the
// filename extension.
//
// Example:
//
//	result, err := palimpsest.Open("document.pdf").Process(ctx)
func Open(filename string) *Processor {
	p := newProcessor()
	p.doc = &model.Document{Path: filename, Format: format.Detect(filename)}
	return p
}

// FromBytes prepares an in-memory document for processing. The format
// is detected from the leading magic bytes.
//
// Example:
//
//	result, err := palimpsest.FromBytes(data).Process(ctx)
func FromBytes(data []byte) *Processor {
	p := newProcessor()
	p.doc = &model.Document{Data: data, Format: format.DetectFromBytes(data)}
	return p
}

// FromReader reads the document fully from r and prepares it for
// processing. Errors reading r surface on the terminal operation.
//
// Example:
//
//	result, err := palimpsest.FromReader(f).Process(ctx)
func FromReader(r io.Reader) *Processor {
	p := newProcessor()
	data, err := io.ReadAll(r)
	if err != nil {
		p.err = fmt.Errorf("reading document: %w", err)
		return p
	}
	p.doc = &model.Document{Data: data, Format: format.DetectFromBytes(data)}
	return p
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := palimpsest.Must(palimpsest.Open("document.pdf").PageCount(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustText is a helper that wraps a call to Text() and panics if the
// error is non-nil. It discards warnings and returns just the value.
//
// Example:
//
//	text := palimpsest.MustText(palimpsest.Open("document.pdf").Text(ctx))
func MustText[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// FormatWarnings renders warnings as a single semicolon-separated
// string for log messages.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
