// Package render turns source documents into the two raw inputs of
// text extraction: page rasters and the embedded text layer.
//
// PDF documents are rasterized with Poppler's command line tools
// (pdfinfo, pdftoppm, pdftotext) when they are on PATH; a pure-Go
// reader supplies page counts and embedded text when they are not.
// Raster images are one-page documents with no text layer.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"go.uber.org/zap"

	"github.com/tsawler/palimpsest/format"
	"github.com/tsawler/palimpsest/internal/imaging"
	"github.com/tsawler/palimpsest/model"
)

// Placeholder dimensions for pages that could not be rendered, in
// pixels. They approximate a US Letter page.
const (
	PlaceholderWidth  = 850
	PlaceholderHeight = 1100
)

var (
	// ErrUnsupported marks documents whose format has no renderer.
	ErrUnsupported = errors.New("unsupported document format")
	// ErrNoRasterizer is returned when a PDF cannot be rasterized
	// because the Poppler tools are not installed.
	ErrNoRasterizer = errors.New("no PDF rasterizer available")
)

// Placeholder returns the blank page image substituted when a page
// could not be rendered.
func Placeholder() image.Image {
	return imaging.NewWhite(PlaceholderWidth, PlaceholderHeight)
}

// Renderer produces page images and embedded text for a document.
//
// CountPages returns 0 when the document cannot be read at all.
// RenderPages returns one image per page; an entry may be nil when a
// single page fails while others render, and a non-nil error means no
// page could be rendered. EmbeddedText returns one string per page,
// empty where the document carries no text layer.
type Renderer interface {
	CountPages(ctx context.Context, doc *model.Document) int
	RenderPages(ctx context.Context, doc *model.Document, dpi int) ([]image.Image, error)
	EmbeddedText(ctx context.Context, doc *model.Document) ([]string, error)
}

// New returns the standard Renderer: Poppler-backed for PDFs when the
// tools are installed, the pure-Go reader otherwise, and stdlib image
// decoding for raster documents.
func New(log *zap.Logger) Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &autoRenderer{
		poppler:  &popplerRenderer{log: log},
		embedded: &embeddedRenderer{log: log},
		raster:   &rasterRenderer{log: log},
		log:      log,
	}
}

// autoRenderer dispatches on the document format and on which PDF
// machinery is actually present at runtime.
type autoRenderer struct {
	poppler  *popplerRenderer
	embedded *embeddedRenderer
	raster   *rasterRenderer
	log      *zap.Logger
}

func (a *autoRenderer) CountPages(ctx context.Context, doc *model.Document) int {
	switch {
	case doc == nil:
		return 0
	case doc.Format == format.PDF:
		if a.poppler.available() {
			if n := a.poppler.countPages(ctx, doc); n > 0 {
				return n
			}
		}
		return a.embedded.countPages(ctx, doc)
	case doc.Format.IsRaster():
		return a.raster.countPages(ctx, doc)
	}
	return 0
}

func (a *autoRenderer) RenderPages(ctx context.Context, doc *model.Document, dpi int) ([]image.Image, error) {
	switch {
	case doc == nil:
		return nil, ErrUnsupported
	case doc.Format == format.PDF:
		if !a.poppler.available() {
			return nil, ErrNoRasterizer
		}
		return a.poppler.renderPages(ctx, doc, dpi)
	case doc.Format.IsRaster():
		return a.raster.renderPages(ctx, doc)
	}
	return nil, ErrUnsupported
}

func (a *autoRenderer) EmbeddedText(ctx context.Context, doc *model.Document) ([]string, error) {
	switch {
	case doc == nil:
		return nil, ErrUnsupported
	case doc.Format == format.PDF:
		if a.poppler.available() {
			texts, err := a.poppler.embeddedText(ctx, doc)
			if err == nil {
				return texts, nil
			}
			a.log.Debug("pdftotext extraction failed, falling back to pure-Go reader",
				zap.String("document", doc.Name()),
				zap.Error(err))
		}
		return a.embedded.pageTexts(ctx, doc)
	case doc.Format.IsRaster():
		return []string{""}, nil
	}
	return nil, ErrUnsupported
}

// withPath invokes fn with a filesystem path for doc, materializing
// buffer documents into a temporary file for the duration of the call.
func withPath(doc *model.Document, fn func(path string) error) error {
	if !doc.IsBuffer() {
		return fn(doc.Path)
	}

	tmp, err := os.CreateTemp("", "palimpsest-*"+doc.Format.Extension())
	if err != nil {
		return fmt.Errorf("materializing buffer document: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(doc.Data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("materializing buffer document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("materializing buffer document: %w", err)
	}
	return fn(tmpPath)
}
