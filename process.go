package palimpsest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/tsawler/palimpsest/fuse"
	"github.com/tsawler/palimpsest/model"
	"github.com/tsawler/palimpsest/ocr"
	"github.com/tsawler/palimpsest/render"
	"github.com/tsawler/palimpsest/score"
	"github.com/tsawler/palimpsest/textclean"
)

// embeddedSufficientRunes is the trimmed embedded-text length above
// which a page skips OCR entirely.
const embeddedSufficientRunes = 100

var (
	// ErrNoDocument is returned by terminal operations when the
	// Processor was built without a document.
	ErrNoDocument = errors.New("no document specified")
	// ErrUnreadable is returned when the document cannot be read at
	// all: no pages, no embedded text, nothing to render.
	ErrUnreadable = errors.New("unable to read document")
)

// Processor provides a fluent interface for configuring and running
// document text extraction. Each configuration method returns a new
// Processor instance, making it safe to branch chains and to share a
// configured Processor across goroutines.
type Processor struct {
	doc *model.Document

	options processOptions

	// Injected collaborators; nil means the standard implementation.
	renderer render.Renderer
	rec      ocr.Recognizer

	logger *zap.Logger

	// Accumulated error (fail-fast)
	err error
}

func newProcessor() *Processor {
	return &Processor{
		options: defaultOptions(),
		logger:  zap.NewNop(),
	}
}

// clone creates a shallow copy of the Processor with a deep copy of
// options. This ensures immutability - each chain method returns a new
// instance.
func (p *Processor) clone() *Processor {
	return &Processor{
		doc:      p.doc,
		options:  p.options.clone(),
		renderer: p.renderer,
		rec:      p.rec,
		logger:   p.logger,
		err:      p.err,
	}
}

// ============================================================================
// Configuration Methods (return new Processor instance)
// ============================================================================

// Quality selects the recognition effort level: model.QualityFast,
// model.QualityStandard (the default), or model.QualityHigh.
//
// Example:
//
//	result, err := palimpsest.Open("scan.pdf").Quality(model.QualityHigh).Process(ctx)
func (p *Processor) Quality(q model.Quality) *Processor {
	np := p.clone()
	if np.err != nil {
		return np
	}
	if !q.Valid() {
		np.err = fmt.Errorf("unknown quality level %q", q)
		return np
	}
	np.options.quality = q
	return np
}

// DPI sets the rendering density for page rasterization. Values
// outside the supported range are clamped to it.
//
// Example:
//
//	result, err := palimpsest.Open("scan.pdf").DPI(400).Process(ctx)
func (p *Processor) DPI(dpi int) *Processor {
	np := p.clone()
	np.options.dpi = clampDPI(dpi)
	return np
}

// Deskew enables or disables rotation correction during image
// preprocessing. It is enabled by default.
//
// Example:
//
//	result, err := palimpsest.Open("scan.pdf").Deskew(false).Process(ctx)
func (p *Processor) Deskew(enabled bool) *Processor {
	np := p.clone()
	np.options.deskew = enabled
	return np
}

// EnhancedCleaning enables or disables digit/letter confusion fixes
// (O0 to 00, 1l to 11, and similar) in the text cleaner. It is enabled
// by default; disable it for documents whose genuine content mixes
// letters and digits in those patterns.
//
// Example:
//
//	result, err := palimpsest.Open("parts.pdf").EnhancedCleaning(false).Process(ctx)
func (p *Processor) EnhancedCleaning(enabled bool) *Processor {
	np := p.clone()
	np.options.enhancedCleaning = enabled
	return np
}

// Language sets the recognition language(s). Multiple languages can be
// specified as a "+" separated string (e.g. "eng+fra"). Each component
// must be a valid language code.
//
// Example:
//
//	result, err := palimpsest.Open("lettre.pdf").Language("fra").Process(ctx)
func (p *Processor) Language(lang string) *Processor {
	np := p.clone()
	if np.err != nil {
		return np
	}
	trimmed := strings.TrimSpace(lang)
	if trimmed == "" {
		np.err = errors.New("language must not be empty")
		return np
	}
	for _, part := range strings.Split(trimmed, "+") {
		if _, err := language.Parse(part); err != nil {
			np.err = fmt.Errorf("unknown language %q: %w", part, err)
			return np
		}
	}
	np.options.language = trimmed
	return np
}

// Workers sets how many pages are processed in parallel. Values below
// one are raised to one. The default is the CPU count, capped at four.
//
// Example:
//
//	result, err := palimpsest.Open("book.pdf").Workers(8).Process(ctx)
func (p *Processor) Workers(n int) *Processor {
	np := p.clone()
	if n < 1 {
		n = 1
	}
	np.options.workers = n
	return np
}

// OCRConcurrency sets how many recognition passes run in parallel
// within a single page. Values below one are raised to one.
func (p *Processor) OCRConcurrency(n int) *Processor {
	np := p.clone()
	if n < 1 {
		n = 1
	}
	np.options.ocrConcurrency = n
	return np
}

// OCRTimeout bounds a single recognition pass. A pass that exceeds it
// is discarded, not retried; the page continues with the remaining
// passes. Non-positive values restore the default.
func (p *Processor) OCRTimeout(d time.Duration) *Processor {
	np := p.clone()
	if d <= 0 {
		d = ocr.DefaultTimeout
	}
	np.options.ocrTimeout = d
	return np
}

// WithLogger attaches a structured logger. The default discards all
// output.
//
// Example:
//
//	log, _ := zap.NewProduction()
//	result, err := palimpsest.Open("scan.pdf").WithLogger(log).Process(ctx)
func (p *Processor) WithLogger(log *zap.Logger) *Processor {
	np := p.clone()
	if log == nil {
		log = zap.NewNop()
	}
	np.logger = log
	return np
}

// WithRenderer substitutes the document renderer. Useful for tests and
// for callers with their own rasterization pipeline.
func (p *Processor) WithRenderer(r render.Renderer) *Processor {
	np := p.clone()
	np.renderer = r
	return np
}

// WithOCR substitutes the OCR backend. The caller keeps ownership and
// is responsible for closing it.
func (p *Processor) WithOCR(rec ocr.Recognizer) *Processor {
	np := p.clone()
	np.rec = rec
	return np
}

// ============================================================================
// Terminal Operations (execute processing and return results)
// ============================================================================

// Process runs the full pipeline: page rendering, embedded text
// extraction, per-page OCR where needed, scoring, cleaning, and source
// fusion.
//
// The returned Result always has equal-length Images, Texts, and Pages
// sequences matching the page count. Pages that could not be resolved
// carry placeholder images and sentinel text instead of being omitted.
// Only document-level failure returns an error; the accompanying
// Result is still non-nil with empty sequences when the document
// could not be read at all.
func (p *Processor) Process(ctx context.Context) (*model.Result, error) {
	start := time.Now()

	if p.err != nil {
		return nil, p.err
	}
	if p.doc == nil || (p.doc.Path == "" && len(p.doc.Data) == 0) {
		return nil, ErrNoDocument
	}

	log := p.logger.With(zap.String("document", p.doc.Name()))

	renderer := p.renderer
	if renderer == nil {
		renderer = render.New(p.logger)
	}

	rec := p.rec
	ownsRec := false
	if rec == nil {
		rec = ocr.NewClient(p.options.language, p.options.dpi)
		ownsRec = true
	}
	engine := ocr.NewEngine(rec, p.options.ocrConcurrency, p.options.ocrTimeout, p.logger)
	if ownsRec {
		defer func() { _ = engine.Close() }()
	}

	// Probe once; per-page calls never run against a dead backend.
	ocrAvailable := engine.Available()
	if !ocrAvailable {
		log.Warn("OCR backend unavailable, continuing with embedded text only")
	}

	pageCount := renderer.CountPages(ctx, p.doc)
	if pageCount <= 0 {
		result := model.NewResult(0)
		result.AddWarning(0, ErrUnreadable.Error())
		result.Duration = time.Since(start)
		return result, fmt.Errorf("%w: %s", ErrUnreadable, p.doc.Name())
	}

	log.Info("processing document",
		zap.Int("pages", pageCount),
		zap.String("quality", string(p.options.quality)),
		zap.Int("dpi", p.options.dpi))

	embedded, err := renderer.EmbeddedText(ctx, p.doc)
	if err != nil {
		log.Warn("embedded text extraction failed", zap.Error(err))
		embedded = nil
	}
	embedded = padTexts(embedded, pageCount)

	images, renderErr := renderer.RenderPages(ctx, p.doc, p.options.dpi)
	if renderErr != nil {
		log.Warn("page rendering failed, substituting placeholders", zap.Error(renderErr))
	}
	images = padImages(images, pageCount)

	result := model.NewResult(pageCount)
	var warnMu sync.Mutex
	warn := func(page int, msg string) {
		warnMu.Lock()
		result.AddWarning(page, msg)
		warnMu.Unlock()
	}
	if renderErr != nil {
		warn(0, fmt.Sprintf("page rendering failed: %v", renderErr))
	}
	if !ocrAvailable {
		warn(0, model.SentinelOCRUnavailable)
	}

	// Pages share no state; workers write disjoint indexes.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.workers)
	for i := 0; i < pageCount; i++ {
		i := i
		g.Go(func() error {
			page := p.processPage(gctx, engine, pageInput{
				index:        i,
				image:        images[i],
				embedded:     embedded[i],
				renderFailed: renderErr != nil,
				ocrAvailable: ocrAvailable,
			}, warn, log)
			result.SetPage(page)
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.Info("document processed",
		zap.Int("pages", pageCount),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}

// Text processes the document and returns all page texts joined with
// blank lines, in page order.
//
// Returns the text, any warnings encountered during processing, and an
// error if processing failed. Warnings indicate non-fatal issues where
// processing succeeded but results may be degraded.
//
// Example:
//
//	text, warnings, err := palimpsest.Open("document.pdf").Text(ctx)
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", palimpsest.FormatWarnings(warnings))
//	}
func (p *Processor) Text(ctx context.Context) (string, []Warning, error) {
	result, err := p.Process(ctx)
	if err != nil {
		var warnings []Warning
		if result != nil {
			warnings = result.Warnings
		}
		return "", warnings, err
	}
	return result.Text(), result.Warnings, nil
}

// PageCount reports the number of pages without processing the
// document.
//
// Example:
//
//	count, err := palimpsest.Open("document.pdf").PageCount(ctx)
func (p *Processor) PageCount(ctx context.Context) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if p.doc == nil || (p.doc.Path == "" && len(p.doc.Data) == 0) {
		return 0, ErrNoDocument
	}

	renderer := p.renderer
	if renderer == nil {
		renderer = render.New(p.logger)
	}
	n := renderer.CountPages(ctx, p.doc)
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnreadable, p.doc.Name())
	}
	return n, nil
}

// ============================================================================
// Per-page pipeline
// ============================================================================

// pageInput carries one page's raw materials into the per-page
// pipeline.
type pageInput struct {
	index        int
	image        image.Image
	embedded     string
	renderFailed bool
	ocrAvailable bool
}

// processPage runs the per-page state machine: embedded-text
// sufficiency check, the OCR attempt matrix, scoring, cleaning, and
// fusion. It always returns a complete page; failures degrade to
// sentinel text rather than propagate.
func (p *Processor) processPage(ctx context.Context, engine *ocr.Engine, in pageInput, warn func(int, string), log *zap.Logger) model.Page {
	pageNo := in.index + 1
	page := model.Page{Index: in.index, EmbeddedText: in.embedded}

	rendered := in.image != nil
	if !rendered {
		in.image = render.Placeholder()
		if !in.renderFailed {
			warn(pageNo, "page could not be rendered")
		}
	}
	page.Image = in.image

	if ctx.Err() != nil {
		page.Text = model.SentinelExtractionFailed
		page.Source = model.SourceSentinel
		warn(pageNo, model.SentinelExtractionFailed)
		return page
	}

	cleaner := textclean.Cleaner{FixDigits: p.options.enhancedCleaning}
	cleanedEmbedded := cleaner.Clean(in.embedded)
	embeddedRunes := utf8.RuneCountInString(strings.TrimSpace(in.embedded))

	// A rich embedded layer makes OCR redundant for this page.
	if embeddedRunes > embeddedSufficientRunes {
		page.Text = cleanedEmbedded
		page.Source = model.SourceEmbedded
		return page
	}

	// A placeholder holds no glyphs; recognition would only burn the
	// attempt matrix. The embedded layer is all this page has.
	if !rendered {
		if cleanedEmbedded != "" {
			page.Text = cleanedEmbedded
			page.Source = model.SourceEmbedded
		} else {
			page.Text = model.SentinelExtractionFailed
			page.Source = model.SourceSentinel
		}
		return page
	}

	if !in.ocrAvailable {
		resolveWithoutOCR(&page, cleanedEmbedded)
		return page
	}

	attempts, err := engine.Run(ctx, in.image, p.options.quality, p.options.deskew)
	switch {
	case errors.Is(err, ocr.ErrUnavailable):
		resolveWithoutOCR(&page, cleanedEmbedded)
		return page
	case err != nil:
		log.Warn("page processing failed",
			zap.Int("page", pageNo),
			zap.Error(err))
		warn(pageNo, model.SentinelExtractionFailed)
		page.Text = model.SentinelExtractionFailed
		page.Source = model.SourceSentinel
		return page
	}
	page.OCRAttempts = len(attempts)

	texts := make([]string, len(attempts))
	for i, a := range attempts {
		texts[i] = a.Text
	}
	best := score.SelectBest(texts)
	if len(attempts) > 0 {
		breakdown := score.Evaluate(best)
		page.Score = &breakdown
	}
	cleanedOCR := cleaner.Clean(best)

	fuser := fuse.Fuser{FixDigits: p.options.enhancedCleaning}
	switch {
	case cleanedOCR == "" && cleanedEmbedded == "":
		page.Text = model.SentinelNoText
		page.Source = model.SourceSentinel
		warn(pageNo, model.SentinelNoText)
	case cleanedOCR == "":
		page.Text = cleanedEmbedded
		page.Source = model.SourceEmbedded
	case cleanedEmbedded == "":
		page.Text = fuser.Fuse(cleanedEmbedded, cleanedOCR)
		page.Source = model.SourceOCR
	default:
		page.Text = fuser.Fuse(cleanedEmbedded, cleanedOCR)
		page.Source = model.SourceFused
	}
	return page
}

// resolveWithoutOCR finishes a page when the OCR backend cannot run:
// embedded text where present, the unavailability sentinel otherwise.
func resolveWithoutOCR(page *model.Page, cleanedEmbedded string) {
	if cleanedEmbedded != "" {
		page.Text = cleanedEmbedded
		page.Source = model.SourceEmbedded
		return
	}
	page.Text = model.SentinelOCRUnavailable
	page.Source = model.SourceSentinel
}

// padTexts sizes texts to exactly n entries, padding with empties.
func padTexts(texts []string, n int) []string {
	if len(texts) == n {
		return texts
	}
	out := make([]string, n)
	copy(out, texts)
	return out
}

// padImages sizes images to exactly n entries, padding with nils that
// later become placeholders.
func padImages(images []image.Image, n int) []image.Image {
	if len(images) == n {
		return images
	}
	out := make([]image.Image, n)
	copy(out, images)
	return out
}
