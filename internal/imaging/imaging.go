// Package imaging provides low-level pixel helpers shared by the
// preprocessing and rendering packages.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// ToGray converts any image to 8-bit grayscale using the standard
// luminance weights. Images that are already *image.Gray are copied so
// callers can mutate the result without touching the source.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return CloneGray(g)
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// CloneGray returns an independent copy of a grayscale image.
func CloneGray(img *image.Gray) *image.Gray {
	out := image.NewGray(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}

// NewWhite returns a white grayscale image of the given size.
func NewWhite(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// Clamp saturates a float value into the 0-255 pixel range.
func Clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Mean returns the mean luminance of a grayscale image.
// An empty image has mean 0.
func Mean(img *image.Gray) float64 {
	if len(img.Pix) == 0 {
		return 0
	}

	var sum uint64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride : (y-bounds.Min.Y)*img.Stride+bounds.Dx()]
		for _, p := range row {
			sum += uint64(p)
		}
	}

	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// PixelEqual reports whether two images have identical bounds and
// per-pixel color values.
func PixelEqual(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}

	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				return false
			}
		}
	}
	return true
}

// EncodePNG encodes an image as PNG bytes, the interchange format the
// OCR engine accepts.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// White is the background color used when rotation exposes uncovered
// corners.
var White = color.Gray{Y: 255}
