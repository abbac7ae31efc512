package ocr

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
	"golang.org/x/sync/semaphore"

	"github.com/tsawler/palimpsest/internal/imaging"
	"github.com/tsawler/palimpsest/model"
	"github.com/tsawler/palimpsest/preprocess"
)

// ErrUnavailable is returned by Engine.Run when the OCR backend cannot
// run at all, typically because Tesseract or its language data is
// missing from the system.
var ErrUnavailable = errors.New("OCR engine unavailable")

// Engine defaults.
const (
	// DefaultTimeout bounds a single recognition pass.
	DefaultTimeout = 30 * time.Second
	// DefaultConcurrency is the number of recognition passes run in
	// parallel per page.
	DefaultConcurrency = 2

	// maxDimension is the largest edge an image may have before it is
	// downscaled ahead of recognition.
	maxDimension = 2000
	// minAttemptRunes is the shortest trimmed pass output considered
	// usable. Anything shorter is recognition noise.
	minAttemptRunes = 11
)

// PageSegMode represents Tesseract page segmentation modes. The values
// match Tesseract's own PSM numbering.
type PageSegMode int

// Page segmentation modes.
const (
	PSM_OSD_ONLY               PageSegMode = 0  // Orientation and script detection only
	PSM_AUTO_OSD               PageSegMode = 1  // Automatic with OSD
	PSM_AUTO_ONLY              PageSegMode = 2  // Automatic, no OSD or OCR
	PSM_AUTO                   PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN          PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK_VERT_TEXT PageSegMode = 5  // Single uniform block of vertically aligned text
	PSM_SINGLE_BLOCK           PageSegMode = 6  // Single uniform block of text
	PSM_SINGLE_LINE            PageSegMode = 7  // Single text line
	PSM_SINGLE_WORD            PageSegMode = 8  // Single word
	PSM_CIRCLE_WORD            PageSegMode = 9  // Single word in a circle
	PSM_SINGLE_CHAR            PageSegMode = 10 // Single character
	PSM_SPARSE_TEXT            PageSegMode = 11 // Find as much text as possible
	PSM_SPARSE_TEXT_OSD        PageSegMode = 12 // Sparse text with OSD
	PSM_RAW_LINE               PageSegMode = 13 // Treat image as single text line
)

var psmNames = map[PageSegMode]string{
	PSM_OSD_ONLY:               "osd_only",
	PSM_AUTO_OSD:               "auto_osd",
	PSM_AUTO_ONLY:              "auto_only",
	PSM_AUTO:                   "auto",
	PSM_SINGLE_COLUMN:          "single_column",
	PSM_SINGLE_BLOCK_VERT_TEXT: "single_block_vert_text",
	PSM_SINGLE_BLOCK:           "single_block",
	PSM_SINGLE_LINE:            "single_line",
	PSM_SINGLE_WORD:            "single_word",
	PSM_CIRCLE_WORD:            "circle_word",
	PSM_SINGLE_CHAR:            "single_char",
	PSM_SPARSE_TEXT:            "sparse_text",
	PSM_SPARSE_TEXT_OSD:        "sparse_text_osd",
	PSM_RAW_LINE:               "raw_line",
}

// String returns a short lowercase name for the mode.
func (m PageSegMode) String() string {
	if name, ok := psmNames[m]; ok {
		return name
	}
	return fmt.Sprintf("psm(%d)", int(m))
}

// Pass names one cell of the recognition matrix: the preprocessing
// profile that prepared the image and the segmentation mode reading it.
type Pass struct {
	Profile preprocess.Profile
	Mode    PageSegMode
}

// String describes the pass for logs and diagnostics. The zero Pass is
// the bare fallback call, which sets no configuration at all.
func (p Pass) String() string {
	if p.Profile == "" {
		return "bare"
	}
	return string(p.Profile) + "/" + p.Mode.String()
}

// Attempt is the outcome of a recognition pass that produced usable
// text. Text is trimmed of surrounding whitespace but otherwise raw.
type Attempt struct {
	Pass
	Text string
}

// Recognizer abstracts the OCR backend. Implementations must be safe
// for concurrent use; the engine issues recognition calls in parallel.
type Recognizer interface {
	// Recognize runs one configured recognition pass over PNG-encoded
	// image data.
	Recognize(ctx context.Context, png []byte, pass Pass) (string, error)
	// RecognizeBare runs recognition with backend defaults only.
	RecognizeBare(ctx context.Context, png []byte) (string, error)
	// Available reports whether the backend can actually run.
	Available() bool
	// Close releases backend resources.
	Close() error
}

// Engine fans a page image out across the recognition matrix for a
// quality level and collects the usable attempts.
type Engine struct {
	rec     Recognizer
	sem     *semaphore.Weighted
	timeout time.Duration
	log     *zap.Logger
}

// NewEngine wraps rec with bounded concurrency and a per-pass timeout.
// A concurrency below one is raised to one; a non-positive timeout
// falls back to DefaultTimeout; a nil logger is replaced with a no-op.
func NewEngine(rec Recognizer, concurrency int, timeout time.Duration, log *zap.Logger) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		rec:     rec,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
		log:     log,
	}
}

// Available reports whether the underlying backend can run.
func (e *Engine) Available() bool {
	return e.rec != nil && e.rec.Available()
}

// Close releases the underlying backend.
func (e *Engine) Close() error {
	if e.rec == nil {
		return nil
	}
	return e.rec.Close()
}

// Run executes the recognition matrix for quality over img and returns
// the usable attempts in matrix order, regardless of completion order.
//
// Images larger than 2000px on their longest edge are downscaled first.
// Pass failures and outputs shorter than eleven characters are logged
// and dropped. When every configured pass is dropped, one bare call is
// made on the page as rendered; if that too yields nothing, Run returns
// no attempts and no error. ErrUnavailable is returned when the backend
// cannot run at all.
func (e *Engine) Run(ctx context.Context, img image.Image, quality model.Quality, deskewEnabled bool) ([]Attempt, error) {
	if !e.Available() {
		return nil, ErrUnavailable
	}
	if img == nil {
		return nil, errors.New("ocr: nil image")
	}

	img = preprocess.FitWithin(img, maxDimension)
	passes := matrix(quality)

	// Preprocess once per profile; passes sharing a profile reuse the
	// encoded bytes.
	variants := make(map[preprocess.Profile][]byte, 4)
	for _, p := range passes {
		if _, ok := variants[p.Profile]; ok {
			continue
		}
		data, err := imaging.EncodePNG(preprocess.Apply(img, p.Profile, deskewEnabled))
		if err != nil {
			e.log.Warn("preprocessing variant failed",
				zap.String("profile", string(p.Profile)),
				zap.Error(err))
			continue
		}
		variants[p.Profile] = data
	}

	// Workers write by index so ties later resolve to matrix order.
	results := make([]Attempt, len(passes))
	var wg sync.WaitGroup
	for i, p := range passes {
		data, ok := variants[p.Profile]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, p Pass, data []byte) {
			defer wg.Done()
			if err := e.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer e.sem.Release(1)

			actx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			text, err := e.rec.Recognize(actx, data, p)
			if err != nil {
				e.log.Debug("recognition pass failed",
					zap.Stringer("pass", p),
					zap.Error(err))
				return
			}
			trimmed := strings.TrimSpace(text)
			if utf8.RuneCountInString(trimmed) < minAttemptRunes {
				e.log.Debug("recognition pass discarded",
					zap.Stringer("pass", p),
					zap.Int("runes", utf8.RuneCountInString(trimmed)))
				return
			}
			results[i] = Attempt{Pass: p, Text: trimmed}
		}(i, p, data)
	}
	wg.Wait()

	attempts := make([]Attempt, 0, len(results))
	for _, a := range results {
		if a.Text != "" {
			attempts = append(attempts, a)
		}
	}
	if len(attempts) > 0 {
		return attempts, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Last resort: one unconfigured pass over the page as rendered.
	return e.bareFallback(ctx, img)
}

func (e *Engine) bareFallback(ctx context.Context, img image.Image) ([]Attempt, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encoding fallback image: %w", err)
	}

	bctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.rec.RecognizeBare(bctx, data)
	if err != nil {
		e.log.Warn("bare recognition fallback failed", zap.Error(err))
		return nil, nil
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	return []Attempt{{Text: trimmed}}, nil
}

// matrix returns the recognition passes for a quality level, profiles
// outermost. The order doubles as the preference order when attempt
// scores tie.
func matrix(quality model.Quality) []Pass {
	var (
		profiles []preprocess.Profile
		modes    []PageSegMode
	)

	switch quality {
	case model.QualityFast:
		profiles = []preprocess.Profile{preprocess.Standard}
		modes = []PageSegMode{PSM_SINGLE_BLOCK}
	case model.QualityHigh:
		profiles = []preprocess.Profile{
			preprocess.Standard,
			preprocess.HighContrast,
			preprocess.Document,
			preprocess.Advanced,
		}
		modes = []PageSegMode{
			PSM_SINGLE_BLOCK,
			PSM_AUTO,
			PSM_SINGLE_COLUMN,
			PSM_SPARSE_TEXT,
			PSM_SPARSE_TEXT_OSD,
		}
	default:
		profiles = []preprocess.Profile{
			preprocess.Standard,
			preprocess.HighContrast,
			preprocess.Document,
		}
		modes = []PageSegMode{
			PSM_SINGLE_BLOCK,
			PSM_AUTO,
			PSM_SINGLE_COLUMN,
		}
	}

	passes := make([]Pass, 0, len(profiles)*len(modes))
	for _, profile := range profiles {
		for _, mode := range modes {
			passes = append(passes, Pass{Profile: profile, Mode: mode})
		}
	}
	return passes
}
