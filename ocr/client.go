//go:build ocr

// Package ocr turns page images into text candidates with Tesseract.
//
// Recognition fans out across a matrix of preprocessing profiles and
// page segmentation modes sized by the quality level; [Engine] owns
// that fan-out while [Client] wraps the Tesseract bindings themselves.
//
// This implementation requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
//
// Rebuild with the "ocr" build tag to compile this implementation in.
package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client runs Tesseract via gosseract. Each recognition call uses a
// dedicated Tesseract handle, which makes the Client safe for
// concurrent use and lets a timed-out call be abandoned without
// poisoning shared state.
type Client struct {
	language string
	dpi      int
}

// NewClient returns a Client recognizing the given language(s).
// Multiple languages can be specified as a "+" separated string
// (e.g. "eng+fra"). dpi is passed to Tesseract as a density hint for
// images that carry none; zero disables the hint.
func NewClient(language string, dpi int) *Client {
	return &Client{language: language, dpi: dpi}
}

// Available reports whether Tesseract responds and has at least one
// language pack installed.
func (c *Client) Available() bool {
	langs, err := gosseract.GetAvailableLanguages()
	return err == nil && len(langs) > 0
}

// Recognize runs one configured pass: language, segmentation mode, and
// density hint are applied before recognition.
func (c *Client) Recognize(ctx context.Context, png []byte, pass Pass) (string, error) {
	return c.recognize(ctx, png, &pass)
}

// RecognizeBare runs recognition with Tesseract defaults. Only the
// language is set; segmentation and density are left to the engine.
func (c *Client) RecognizeBare(ctx context.Context, png []byte) (string, error) {
	return c.recognize(ctx, png, nil)
}

// Close releases client resources. Per-call Tesseract handles are
// closed as each call finishes, so this is a no-op. Safe on a nil
// Client.
func (c *Client) Close() error {
	return nil
}

type recognition struct {
	text string
	err  error
}

// recognize drives one Tesseract handle in its own goroutine. When ctx
// expires first the result is discarded rather than aborted: the
// binding offers no way to interrupt a running recognition, so the
// goroutine is left to finish and clean up after itself.
func (c *Client) recognize(ctx context.Context, png []byte, pass *Pass) (string, error) {
	done := make(chan recognition, 1)

	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if c.language != "" {
			if err := client.SetLanguage(c.language); err != nil {
				done <- recognition{err: fmt.Errorf("setting language %q: %w", c.language, err)}
				return
			}
		}
		if pass != nil {
			if err := client.SetPageSegMode(gosseract.PageSegMode(pass.Mode)); err != nil {
				done <- recognition{err: fmt.Errorf("setting segmentation mode %s: %w", pass.Mode, err)}
				return
			}
			if c.dpi > 0 {
				if err := client.SetVariable("user_defined_dpi", strconv.Itoa(c.dpi)); err != nil {
					done <- recognition{err: fmt.Errorf("setting density hint: %w", err)}
					return
				}
			}
		}
		if err := client.SetImageFromBytes(png); err != nil {
			done <- recognition{err: fmt.Errorf("setting image: %w", err)}
			return
		}

		text, err := client.Text()
		if err != nil {
			done <- recognition{err: fmt.Errorf("recognition failed: %w", err)}
			return
		}
		done <- recognition{text: strings.TrimSpace(text)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}
