package palimpsest

import (
	"runtime"
	"time"

	"github.com/tsawler/palimpsest/model"
	"github.com/tsawler/palimpsest/ocr"
)

// Rendering density bounds, in dots per inch. Requests outside the
// range are clamped, not rejected.
const (
	DefaultDPI = 300
	MinDPI     = 72
	MaxDPI     = 600
)

// maxDefaultWorkers caps the page worker pool when the caller does not
// size it explicitly. OCR saturates cores quickly; more page workers
// than this mostly adds memory pressure.
const maxDefaultWorkers = 4

// processOptions holds configuration for document processing.
type processOptions struct {
	dpi              int
	quality          model.Quality
	deskew           bool
	enhancedCleaning bool
	language         string
	workers          int
	ocrConcurrency   int
	ocrTimeout       time.Duration
}

// defaultOptions returns the default processing options.
func defaultOptions() processOptions {
	workers := runtime.NumCPU()
	if workers > maxDefaultWorkers {
		workers = maxDefaultWorkers
	}
	return processOptions{
		dpi:              DefaultDPI,
		quality:          model.QualityStandard,
		deskew:           true,
		enhancedCleaning: true,
		language:         "eng",
		workers:          workers,
		ocrConcurrency:   ocr.DefaultConcurrency,
		ocrTimeout:       ocr.DefaultTimeout,
	}
}

// clone creates a copy of processOptions. All fields are values, so a
// plain copy is deep enough; the method exists so Processor.clone
// reads the same regardless of what fields are added later.
func (o processOptions) clone() processOptions {
	return o
}

// clampDPI forces dpi into the supported range.
func clampDPI(dpi int) int {
	if dpi < MinDPI {
		return MinDPI
	}
	if dpi > MaxDPI {
		return MaxDPI
	}
	return dpi
}
