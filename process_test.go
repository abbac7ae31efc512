package palimpsest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tsawler/palimpsest/format"
	"github.com/tsawler/palimpsest/model"
	"github.com/tsawler/palimpsest/ocr"
	"github.com/tsawler/palimpsest/render"
	"github.com/tsawler/palimpsest/textclean"
)

// fakeRenderer serves canned pages so the pipeline can run without
// Poppler or real documents.
type fakeRenderer struct {
	pages     int
	embedded  []string
	images    []image.Image
	renderErr error
	textErr   error
}

func (f *fakeRenderer) CountPages(ctx context.Context, doc *model.Document) int {
	return f.pages
}

func (f *fakeRenderer) RenderPages(ctx context.Context, doc *model.Document, dpi int) ([]image.Image, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return f.images, nil
}

func (f *fakeRenderer) EmbeddedText(ctx context.Context, doc *model.Document) ([]string, error) {
	if f.textErr != nil {
		return nil, f.textErr
	}
	return f.embedded, nil
}

// fakeOCR returns fixed text for every configured pass and counts
// calls so tests can assert whether recognition ran at all.
type fakeOCR struct {
	mu        sync.Mutex
	calls     int
	bareCalls int
	closed    bool

	available bool
	text      string
	err       error
	bareText  string
}

func (f *fakeOCR) Recognize(ctx context.Context, pngData []byte, pass ocr.Pass) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeOCR) RecognizeBare(ctx context.Context, pngData []byte) (string, error) {
	f.mu.Lock()
	f.bareCalls++
	f.mu.Unlock()
	return f.bareText, nil
}

func (f *fakeOCR) Available() bool { return f.available }

func (f *fakeOCR) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeOCR) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func whitePage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 200, 300))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func whitePages(n int) []image.Image {
	images := make([]image.Image, n)
	for i := range images {
		images[i] = whitePage()
	}
	return images
}

// richEmbedded is comfortably above the hundred-character threshold
// that makes OCR redundant for a page.
const richEmbedded = "The committee reviewed the proposal in detail and concluded " +
	"that the revised budget allocations were both reasonable and sustainable."

func TestProcessRichEmbeddedSkipsOCR(t *testing.T) {
	rec := &fakeOCR{available: true, text: "should never appear in the output anywhere"}
	result, err := Open("report.pdf").
		WithRenderer(&fakeRenderer{pages: 1, embedded: []string{richEmbedded}, images: whitePages(1)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if rec.callCount() != 0 {
		t.Errorf("expected no recognition calls, got %d", rec.callCount())
	}
	page := result.Pages[0]
	if page.Source != model.SourceEmbedded {
		t.Errorf("Source = %q, want %q", page.Source, model.SourceEmbedded)
	}
	if want := textclean.Clean(richEmbedded); page.Text != want {
		t.Errorf("Text = %q, want cleaned embedded %q", page.Text, want)
	}
	if page.Score != nil {
		t.Error("expected nil Score when OCR was skipped")
	}
	if page.OCRAttempts != 0 {
		t.Errorf("OCRAttempts = %d, want 0", page.OCRAttempts)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if !result.Aligned() {
		t.Error("result sequences out of alignment")
	}
}

func TestProcessShortEmbeddedFusesWithOCR(t *testing.T) {
	ocrText := "The figure shows measured distortion rising steadily across " +
		"all eleven samples until the final annealing stage."
	rec := &fakeOCR{available: true, text: ocrText}
	result, err := Open("figure.pdf").
		WithRenderer(&fakeRenderer{pages: 1, embedded: []string{"Fig 1."}, images: whitePages(1)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	page := result.Pages[0]
	if page.Source != model.SourceFused {
		t.Errorf("Source = %q, want %q", page.Source, model.SourceFused)
	}
	// The caption is a fraction of the OCR length, so fusion sides with
	// the recognized text.
	if want := textclean.Clean(ocrText); page.Text != want {
		t.Errorf("Text = %q, want cleaned OCR %q", page.Text, want)
	}
	if page.EmbeddedText != "Fig 1." {
		t.Errorf("EmbeddedText = %q, want original caption", page.EmbeddedText)
	}
	// Standard quality runs a 3x3 matrix and every pass returned
	// usable text.
	if page.OCRAttempts != 9 {
		t.Errorf("OCRAttempts = %d, want 9", page.OCRAttempts)
	}
	if page.Score == nil {
		t.Error("expected a Score when multiple attempts competed")
	}
	if rec.callCount() != 9 {
		t.Errorf("recognition calls = %d, want 9", rec.callCount())
	}
}

func TestProcessOCRUnavailable(t *testing.T) {
	rec := &fakeOCR{available: false}
	result, err := Open("scan.pdf").
		WithRenderer(&fakeRenderer{pages: 3, embedded: []string{"", "", ""}, images: whitePages(3)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("unavailable OCR must not fail the document: %v", err)
	}

	if result.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", result.PageCount())
	}
	if !result.Aligned() {
		t.Fatal("result sequences out of alignment")
	}
	for i, page := range result.Pages {
		if page.Text != model.SentinelOCRUnavailable {
			t.Errorf("page %d Text = %q, want sentinel", i, page.Text)
		}
		if page.Source != model.SourceSentinel {
			t.Errorf("page %d Source = %q, want %q", i, page.Source, model.SourceSentinel)
		}
		if result.Images[i] == nil {
			t.Errorf("page %d image missing", i)
		}
	}
	if rec.callCount() != 0 {
		t.Errorf("recognition calls = %d, want 0", rec.callCount())
	}

	found := false
	for _, w := range result.Warnings {
		if w.Page == 0 && w.Message == model.SentinelOCRUnavailable {
			found = true
		}
	}
	if !found {
		t.Errorf("missing document-level unavailability warning, got %v", result.Warnings)
	}
}

func TestProcessOCRUnavailableKeepsEmbedded(t *testing.T) {
	rec := &fakeOCR{available: false}
	result, err := Open("mixed.pdf").
		WithRenderer(&fakeRenderer{pages: 2, embedded: []string{"A short note.", ""}, images: whitePages(2)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if got, want := result.Pages[0].Text, textclean.Clean("A short note."); got != want {
		t.Errorf("page 1 Text = %q, want %q", got, want)
	}
	if result.Pages[0].Source != model.SourceEmbedded {
		t.Errorf("page 1 Source = %q, want embedded", result.Pages[0].Source)
	}
	if result.Pages[1].Text != model.SentinelOCRUnavailable {
		t.Errorf("page 2 Text = %q, want sentinel", result.Pages[1].Text)
	}
}

func TestProcessRenderFailureUsesPlaceholders(t *testing.T) {
	rec := &fakeOCR{available: true, text: "should never run against a blank placeholder"}
	result, err := Open("torn.pdf").
		WithRenderer(&fakeRenderer{
			pages:     2,
			embedded:  []string{"A salvageable line of text.", ""},
			renderErr: errors.New("rasterizer crashed"),
		}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("render failure must degrade, not fail: %v", err)
	}

	for i, img := range result.Images {
		if img == nil {
			t.Fatalf("page %d image missing", i)
		}
		b := img.Bounds()
		if b.Dx() != render.PlaceholderWidth || b.Dy() != render.PlaceholderHeight {
			t.Errorf("page %d image %dx%d, want placeholder %dx%d",
				i, b.Dx(), b.Dy(), render.PlaceholderWidth, render.PlaceholderHeight)
		}
	}
	// There is nothing on a placeholder to recognize.
	if rec.callCount() != 0 {
		t.Errorf("recognition calls = %d, want 0", rec.callCount())
	}

	if got, want := result.Pages[0].Text, textclean.Clean("A salvageable line of text."); got != want {
		t.Errorf("page 1 Text = %q, want embedded %q", got, want)
	}
	if result.Pages[0].Source != model.SourceEmbedded {
		t.Errorf("page 1 Source = %q, want embedded", result.Pages[0].Source)
	}
	if result.Pages[1].Text != model.SentinelExtractionFailed {
		t.Errorf("page 2 Text = %q, want %q", result.Pages[1].Text, model.SentinelExtractionFailed)
	}
	if result.Pages[1].Source != model.SourceSentinel {
		t.Errorf("page 2 Source = %q, want sentinel", result.Pages[1].Source)
	}

	found := false
	for _, w := range result.Warnings {
		if w.Page == 0 && strings.Contains(w.Message, "page rendering failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing render-failure warning, got %v", result.Warnings)
	}
}

func TestProcessSinglePageRenderGap(t *testing.T) {
	// One page fails to render while the rest of the document is fine:
	// only the gap page degrades, with its own warning.
	ocrText := "Recognition output for the page that did render correctly."
	rec := &fakeOCR{available: true, text: ocrText}
	result, err := Open("gap.pdf").
		WithRenderer(&fakeRenderer{
			pages:    2,
			embedded: []string{"", ""},
			images:   []image.Image{whitePage(), nil},
		}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Pages[0].Source != model.SourceOCR {
		t.Errorf("page 1 Source = %q, want ocr", result.Pages[0].Source)
	}
	if result.Pages[1].Text != model.SentinelExtractionFailed {
		t.Errorf("page 2 Text = %q, want %q", result.Pages[1].Text, model.SentinelExtractionFailed)
	}
	if result.Images[1] == nil {
		t.Fatal("page 2 image missing")
	}
	if b := result.Images[1].Bounds(); b.Dx() != render.PlaceholderWidth {
		t.Errorf("page 2 image width = %d, want placeholder", b.Dx())
	}

	found := false
	for _, w := range result.Warnings {
		if w.Page == 2 && strings.Contains(w.Message, "could not be rendered") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing per-page render warning, got %v", result.Warnings)
	}
}

func TestProcessUnreadableDocument(t *testing.T) {
	result, err := Open("not-a-document.pdf").
		WithRenderer(&fakeRenderer{pages: 0}).
		WithOCR(&fakeOCR{available: true}).
		Process(context.Background())
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("err = %v, want ErrUnreadable", err)
	}
	if result == nil {
		t.Fatal("expected an empty result alongside the error")
	}
	if result.PageCount() != 0 {
		t.Errorf("PageCount = %d, want 0", result.PageCount())
	}
	if !result.Aligned() {
		t.Error("empty result sequences out of alignment")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning describing the failure")
	}
}

func TestProcessNoTextDetected(t *testing.T) {
	// Every configured pass returns nothing and so does the bare
	// fallback: the page resolves to the no-text sentinel.
	rec := &fakeOCR{available: true, text: "", bareText: ""}
	result, err := Open("blank.pdf").
		WithRenderer(&fakeRenderer{pages: 1, embedded: []string{""}, images: whitePages(1)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	page := result.Pages[0]
	if page.Text != model.SentinelNoText {
		t.Errorf("Text = %q, want %q", page.Text, model.SentinelNoText)
	}
	if page.Source != model.SourceSentinel {
		t.Errorf("Source = %q, want sentinel", page.Source)
	}
	if rec.bareCalls != 1 {
		t.Errorf("bare fallback calls = %d, want 1", rec.bareCalls)
	}

	found := false
	for _, w := range result.Warnings {
		if w.Page == 1 && w.Message == model.SentinelNoText {
			found = true
		}
	}
	if !found {
		t.Errorf("missing page warning, got %v", result.Warnings)
	}
}

func TestProcessBareFallbackText(t *testing.T) {
	// Configured passes yield nothing, but the bare call finds a short
	// string; short output from the bare fallback is kept.
	rec := &fakeOCR{available: true, text: "", bareText: "STOP"}
	result, err := Open("sign.png").
		WithRenderer(&fakeRenderer{pages: 1, embedded: []string{""}, images: whitePages(1)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	page := result.Pages[0]
	if page.Text != "STOP" {
		t.Errorf("Text = %q, want bare fallback output", page.Text)
	}
	if page.Source != model.SourceOCR {
		t.Errorf("Source = %q, want %q", page.Source, model.SourceOCR)
	}
	if page.OCRAttempts != 1 {
		t.Errorf("OCRAttempts = %d, want 1", page.OCRAttempts)
	}
	// Even a lone surviving attempt is a winner with diagnostics.
	if page.Score == nil {
		t.Error("expected a Score for the bare fallback winner")
	}
}

func TestProcessSingleAttemptHasScore(t *testing.T) {
	ocrText := "A single fast-quality pass still reports its quality breakdown."
	rec := &fakeOCR{available: true, text: ocrText}
	result, err := Open("quick.pdf").
		Quality(model.QualityFast).
		WithRenderer(&fakeRenderer{pages: 1, embedded: []string{""}, images: whitePages(1)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	page := result.Pages[0]
	if page.OCRAttempts != 1 {
		t.Fatalf("OCRAttempts = %d, want 1", page.OCRAttempts)
	}
	if page.Score == nil {
		t.Fatal("expected a Score when an OCR attempt won the page")
	}
	if page.Score.Words == 0 {
		t.Errorf("Score.Words = 0, want the winner's breakdown")
	}
}

func TestProcessEnhancedCleaningTogglesDigitFixes(t *testing.T) {
	// Part numbers like O0-77 are legitimate text on a datasheet; with
	// enhanced cleaning off they must survive the whole pipeline intact.
	ocrText := "Part number O0-77 fits housings A through D. Verify the gasket " +
		"seat before torquing each of the retaining bolts to specification."

	run := func(enhanced bool) string {
		t.Helper()
		result, err := Open("datasheet.pdf").
			Quality(model.QualityFast).
			EnhancedCleaning(enhanced).
			WithRenderer(&fakeRenderer{pages: 1, embedded: []string{"Fig 1."}, images: whitePages(1)}).
			WithOCR(&fakeOCR{available: true, text: ocrText}).
			Process(context.Background())
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		return result.Pages[0].Text
	}

	if got := run(false); !strings.Contains(got, "O0-77") {
		t.Errorf("cleaning off: part number rewritten, got %q", got)
	}
	if got := run(true); !strings.Contains(got, "00-77") {
		t.Errorf("cleaning on: confusion pair not fixed, got %q", got)
	}
}

func TestProcessRecognitionErrorsDegrade(t *testing.T) {
	// Every pass errors and the bare fallback returns nothing usable
	// either, but embedded text still carries the page.
	rec := &fakeOCR{available: true, err: errors.New("tesseract segfault"), bareText: ""}
	result, err := Open("flaky.pdf").
		WithRenderer(&fakeRenderer{pages: 1, embedded: []string{"Salvaged line."}, images: whitePages(1)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	page := result.Pages[0]
	if want := textclean.Clean("Salvaged line."); page.Text != want {
		t.Errorf("Text = %q, want embedded %q", page.Text, want)
	}
	if page.Source != model.SourceEmbedded {
		t.Errorf("Source = %q, want embedded", page.Source)
	}
}

func TestProcessDoesNotCloseInjectedBackend(t *testing.T) {
	rec := &fakeOCR{available: false}
	_, err := Open("doc.pdf").
		WithRenderer(&fakeRenderer{pages: 1, embedded: []string{richEmbedded}, images: whitePages(1)}).
		WithOCR(rec).
		Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec.closed {
		t.Error("injected backend must stay open; the caller owns it")
	}
}

func TestProcessCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Open("doc.pdf").
		WithRenderer(&fakeRenderer{pages: 2, embedded: []string{"", ""}, images: whitePages(2)}).
		WithOCR(&fakeOCR{available: true, text: "never finishes"}).
		Process(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Fatal("expected a partial result alongside the error")
	}
	if !result.Aligned() {
		t.Error("partial result sequences out of alignment")
	}
	for i, text := range result.Texts {
		if text != model.SentinelExtractionFailed {
			t.Errorf("page %d Text = %q, want %q", i, text, model.SentinelExtractionFailed)
		}
	}
}

func TestTextJoinsPages(t *testing.T) {
	first := richEmbedded
	second := "Appendix B lists the raw survey responses collected during the " +
		"second field campaign, ordered by respondent identifier and date."
	text, warnings, err := Open("two.pdf").
		WithRenderer(&fakeRenderer{pages: 2, embedded: []string{first, second}, images: whitePages(2)}).
		WithOCR(&fakeOCR{available: true}).
		Text(context.Background())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	want := textclean.Clean(first) + "\n\n" + textclean.Clean(second)
	if text != want {
		t.Errorf("Text = %q, want %q", text, want)
	}
}

func TestPageCount(t *testing.T) {
	n, err := Open("five.pdf").
		WithRenderer(&fakeRenderer{pages: 5}).
		PageCount(context.Background())
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 5 {
		t.Errorf("PageCount = %d, want 5", n)
	}

	if _, err := Open("broken.pdf").WithRenderer(&fakeRenderer{pages: 0}).PageCount(context.Background()); err == nil {
		t.Error("expected an error for an unreadable document")
	}
}

// ============================================================================
// Fluent configuration
// ============================================================================

func TestConfigurationImmutability(t *testing.T) {
	base := Open("doc.pdf")
	configured := base.Quality(model.QualityHigh).DPI(400).Deskew(false).Workers(8)

	if base == configured {
		t.Fatal("configuration must return a new Processor")
	}
	if base.options.quality != model.QualityStandard {
		t.Errorf("base quality mutated to %q", base.options.quality)
	}
	if base.options.dpi != DefaultDPI {
		t.Errorf("base dpi mutated to %d", base.options.dpi)
	}
	if !base.options.deskew {
		t.Error("base deskew mutated")
	}
	if configured.options.quality != model.QualityHigh {
		t.Errorf("configured quality = %q", configured.options.quality)
	}
	if configured.options.dpi != 400 {
		t.Errorf("configured dpi = %d", configured.options.dpi)
	}
	if configured.options.deskew {
		t.Error("configured deskew not applied")
	}
	if configured.options.workers != 8 {
		t.Errorf("configured workers = %d", configured.options.workers)
	}
}

func TestInvalidQualityDeferred(t *testing.T) {
	_, err := Open("doc.pdf").
		Quality("turbo").
		WithRenderer(&fakeRenderer{pages: 1, images: whitePages(1)}).
		Process(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown quality") {
		t.Errorf("err = %v, want unknown quality error", err)
	}
}

func TestLanguageValidation(t *testing.T) {
	p := Open("doc.pdf").Language("eng+fra")
	if p.err != nil {
		t.Fatalf("valid language pair rejected: %v", p.err)
	}
	if p.options.language != "eng+fra" {
		t.Errorf("language = %q, want eng+fra", p.options.language)
	}

	if _, err := Open("doc.pdf").Language("definitely not a language!").Process(context.Background()); err == nil {
		t.Error("expected an error for a bogus language code")
	}
	if _, err := Open("doc.pdf").Language("").Process(context.Background()); err == nil {
		t.Error("expected an error for an empty language")
	}
}

func TestFirstConfigurationErrorWins(t *testing.T) {
	_, err := Open("doc.pdf").Quality("turbo").Language("zz-ZZ-invalid-!!").Process(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown quality") {
		t.Errorf("err = %v, want the first error in the chain", err)
	}
}

func TestDPIClamping(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{10, MinDPI},
		{MinDPI, MinDPI},
		{300, 300},
		{MaxDPI, MaxDPI},
		{5000, MaxDPI},
	}
	for _, tt := range tests {
		if got := Open("doc.pdf").DPI(tt.in).options.dpi; got != tt.want {
			t.Errorf("DPI(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWorkerAndTimeoutFloors(t *testing.T) {
	p := Open("doc.pdf").Workers(0).OCRConcurrency(-3).OCRTimeout(0)
	if p.options.workers != 1 {
		t.Errorf("workers = %d, want 1", p.options.workers)
	}
	if p.options.ocrConcurrency != 1 {
		t.Errorf("ocrConcurrency = %d, want 1", p.options.ocrConcurrency)
	}
	if p.options.ocrTimeout != ocr.DefaultTimeout {
		t.Errorf("ocrTimeout = %v, want default", p.options.ocrTimeout)
	}

	if p = Open("doc.pdf").OCRTimeout(5 * time.Second); p.options.ocrTimeout != 5*time.Second {
		t.Errorf("ocrTimeout = %v, want 5s", p.options.ocrTimeout)
	}
}

// ============================================================================
// Entry points
// ============================================================================

func TestOpenDetectsFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     format.Format
	}{
		{"report.pdf", format.PDF},
		{"scan.PNG", format.PNG},
		{"photo.jpeg", format.JPEG},
		{"notes.txt", format.Unknown},
	}
	for _, tt := range tests {
		p := Open(tt.filename)
		if p.doc.Format != tt.want {
			t.Errorf("Open(%q) format = %v, want %v", tt.filename, p.doc.Format, tt.want)
		}
		if p.doc.Path != tt.filename {
			t.Errorf("Open(%q) path = %q", tt.filename, p.doc.Path)
		}
	}
}

func TestFromBytesDetectsFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}

	p := FromBytes(buf.Bytes())
	if p.doc.Format != format.PNG {
		t.Errorf("format = %v, want PNG", p.doc.Format)
	}
	if !p.doc.IsBuffer() {
		t.Error("expected a buffer document")
	}

	if got := FromBytes([]byte("%PDF-1.4 minimal")).doc.Format; got != format.PDF {
		t.Errorf("format = %v, want PDF", got)
	}
}

func TestFromReader(t *testing.T) {
	p := FromReader(strings.NewReader("%PDF-1.4 minimal"))
	if p.err != nil {
		t.Fatalf("FromReader: %v", p.err)
	}
	if p.doc.Format != format.PDF {
		t.Errorf("format = %v, want PDF", p.doc.Format)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestFromReaderError(t *testing.T) {
	_, err := FromReader(failingReader{}).Process(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("err = %v, want the read error surfaced at the terminal", err)
	}
}

func TestProcessWithoutDocument(t *testing.T) {
	p := &Processor{options: defaultOptions()}
	if _, err := p.Process(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
}

func TestMustPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Must did not panic on error")
		}
	}()
	Must(0, errors.New("boom"))
}

func TestMustReturnsValue(t *testing.T) {
	if got := Must(42, nil); got != 42 {
		t.Errorf("Must = %d, want 42", got)
	}
	if got := MustText("hello", nil, nil); got != "hello" {
		t.Errorf("MustText = %q, want hello", got)
	}
}

func TestFormatWarnings(t *testing.T) {
	if got := FormatWarnings(nil); got != "" {
		t.Errorf("FormatWarnings(nil) = %q, want empty", got)
	}
	warnings := []Warning{
		{Page: 0, Message: "OCR engine unavailable"},
		{Page: 3, Message: "no text detected"},
	}
	want := "OCR engine unavailable; page 3: no text detected"
	if got := FormatWarnings(warnings); got != want {
		t.Errorf("FormatWarnings = %q, want %q", got, want)
	}
}
