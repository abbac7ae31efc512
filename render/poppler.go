package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/palimpsest/model"
)

// lookPath is the exec.LookPath implementation used to probe for the
// Poppler tools. Tests may replace it to simulate their absence.
var lookPath = exec.LookPath

var pagesPattern = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)

// popplerRenderer shells out to the Poppler command line tools.
type popplerRenderer struct {
	log *zap.Logger
}

// available reports whether all three Poppler tools are on PATH.
func (p *popplerRenderer) available() bool {
	for _, tool := range []string{"pdfinfo", "pdftoppm", "pdftotext"} {
		if _, err := lookPath(tool); err != nil {
			return false
		}
	}
	return true
}

// pageCountAt runs pdfinfo against an on-disk PDF.
func (p *popplerRenderer) pageCountAt(ctx context.Context, path string) (int, error) {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	m := pagesPattern.FindStringSubmatch(string(out))
	if len(m) != 2 {
		return 0, errors.New("pdfinfo: page count not found")
	}
	return strconv.Atoi(m[1])
}

func (p *popplerRenderer) countPages(ctx context.Context, doc *model.Document) int {
	n := 0
	err := withPath(doc, func(path string) error {
		count, err := p.pageCountAt(ctx, path)
		if err != nil {
			return err
		}
		n = count
		return nil
	})
	if err != nil {
		p.log.Debug("pdfinfo page count failed",
			zap.String("document", doc.Name()),
			zap.Error(err))
		return 0
	}
	return n
}

// renderPages rasterizes every page at the given density. Pages are
// rendered one at a time so a single corrupt page costs a nil entry,
// not the document.
func (p *popplerRenderer) renderPages(ctx context.Context, doc *model.Document, dpi int) ([]image.Image, error) {
	var pages []image.Image
	err := withPath(doc, func(path string) error {
		n, err := p.pageCountAt(ctx, path)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("document has no pages")
		}

		dir, err := os.MkdirTemp("", "palimpsest-render-")
		if err != nil {
			return fmt.Errorf("creating render directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(dir) }()

		pages = make([]image.Image, n)
		rendered := 0
		for i := 1; i <= n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := p.renderPage(ctx, path, dir, i, dpi)
			if err != nil {
				p.log.Warn("page render failed",
					zap.String("document", doc.Name()),
					zap.Int("page", i),
					zap.Error(err))
				continue
			}
			pages[i-1] = img
			rendered++
		}
		if rendered == 0 {
			return fmt.Errorf("pdftoppm: none of %d pages rendered", n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (p *popplerRenderer) renderPage(ctx context.Context, path, dir string, page, dpi int) (image.Image, error) {
	prefix := filepath.Join(dir, fmt.Sprintf("page-%d", page))
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		path, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	// pdftoppm pads the page number in the output name; glob rather
	// than guess the width.
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm: no output for page %d", page)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		return nil, fmt.Errorf("opening rendered page %d: %w", page, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding rendered page %d: %w", page, err)
	}
	return img, nil
}

// embeddedText extracts the text layer page by page with pdftotext,
// preserving layout. Pages that fail stay empty.
func (p *popplerRenderer) embeddedText(ctx context.Context, doc *model.Document) ([]string, error) {
	var texts []string
	err := withPath(doc, func(path string) error {
		n, err := p.pageCountAt(ctx, path)
		if err != nil {
			return err
		}

		texts = make([]string, n)
		for i := 1; i <= n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := exec.CommandContext(ctx, "pdftotext",
				"-f", strconv.Itoa(i),
				"-l", strconv.Itoa(i),
				"-layout",
				path, "-").Output()
			if err != nil {
				p.log.Debug("pdftotext failed",
					zap.String("document", doc.Name()),
					zap.Int("page", i),
					zap.Error(err))
				continue
			}
			// pdftotext terminates each page with a form feed.
			texts[i-1] = strings.TrimRight(string(out), "\f\n ")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return texts, nil
}
