//go:build !ocr

// Package ocr turns page images into text candidates with Tesseract.
//
// This is the stub implementation used when the "ocr" build tag is not
// set: the [Client] reports itself unavailable and every recognition
// call returns ErrOCRNotEnabled. [Engine] behaves normally and resolves
// affected pages through its unavailability path.
//
// To enable real recognition, rebuild with the "ocr" build tag:
//
//	go build -tags ocr
//
// This requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when recognition is attempted but OCR
// support was not compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client is a stub recognizer that reports itself unavailable.
type Client struct{}

// NewClient returns a stub client. The language and dpi arguments are
// accepted for signature parity with the OCR-enabled implementation
// and are ignored.
func NewClient(language string, dpi int) *Client {
	return &Client{}
}

// Available always reports false for the stub client.
func (c *Client) Available() bool {
	return false
}

// Recognize returns ErrOCRNotEnabled.
func (c *Client) Recognize(ctx context.Context, png []byte, pass Pass) (string, error) {
	return "", ErrOCRNotEnabled
}

// RecognizeBare returns ErrOCRNotEnabled.
func (c *Client) RecognizeBare(ctx context.Context, png []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

// Close is a no-op for the stub client. Safe on a nil Client.
func (c *Client) Close() error {
	return nil
}
