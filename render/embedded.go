package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/tsawler/palimpsest/model"
)

// embeddedRenderer reads PDF structure in pure Go. It cannot
// rasterize; it exists so page counts and the embedded text layer
// survive systems without Poppler, and so buffer documents avoid a
// detour through the filesystem.
type embeddedRenderer struct {
	log *zap.Logger
}

// withReader opens the document and hands the reader to fn. The
// parser panics on some malformed files; those panics are converted
// to errors here.
func (e *embeddedRenderer) withReader(doc *model.Document, fn func(r *pdf.Reader) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	if doc.IsBuffer() {
		r, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
		if err != nil {
			return fmt.Errorf("opening PDF buffer: %w", err)
		}
		return fn(r)
	}

	f, r, err := pdf.Open(doc.Path)
	if err != nil {
		return fmt.Errorf("opening PDF %s: %w", doc.Path, err)
	}
	defer f.Close()
	return fn(r)
}

func (e *embeddedRenderer) countPages(_ context.Context, doc *model.Document) int {
	n := 0
	if err := e.withReader(doc, func(r *pdf.Reader) error {
		n = r.NumPage()
		return nil
	}); err != nil {
		e.log.Debug("embedded page count failed",
			zap.String("document", doc.Name()),
			zap.Error(err))
		return 0
	}
	return n
}

// pageTexts extracts the text layer for every page. Pages whose
// extraction fails stay empty rather than failing the document.
func (e *embeddedRenderer) pageTexts(ctx context.Context, doc *model.Document) ([]string, error) {
	var texts []string
	err := e.withReader(doc, func(r *pdf.Reader) error {
		n := r.NumPage()
		texts = make([]string, n)
		for i := 1; i <= n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			texts[i-1] = e.pageText(r, i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// pageText reads one page's text, absorbing parser panics on
// malformed content streams.
func (e *embeddedRenderer) pageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Debug("page text extraction panicked",
				zap.Int("page", num),
				zap.Any("cause", rec))
			text = ""
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		e.log.Debug("page text extraction failed",
			zap.Int("page", num),
			zap.Error(err))
		return ""
	}
	return content
}
