package preprocess

import (
	"image"

	"github.com/tsawler/palimpsest/internal/imaging"
)

// Profile names a preprocessing transformation chain.
type Profile string

const (
	// Standard is the general-purpose chain: grayscale, contrast x2.0,
	// Gaussian blur radius 0.8, sharpen, fixed threshold 180.
	Standard Profile = "standard"
	// HighContrast targets faded scans: grayscale, contrast x2.5,
	// brightness x1.2, sharpness x2.0, no binarization.
	HighContrast Profile = "high_contrast"
	// Document targets clean printed text: grayscale, upscale x1.5,
	// deskew.
	Document Profile = "document"
	// Advanced is the most expensive chain: grayscale, upscale x1.5,
	// contrast x2.0, sharpness x1.5, median denoise, adaptive
	// threshold, deskew.
	Advanced Profile = "advanced"
)

// Valid reports whether p names a known profile.
func (p Profile) Valid() bool {
	switch p {
	case Standard, HighContrast, Document, Advanced:
		return true
	default:
		return false
	}
}

// Tuning constants for the profile chains. These are the
// accuracy-relevant knobs; changing them changes OCR results.
const (
	standardContrast  = 2.0
	standardBlur      = 0.8
	standardThreshold = 180

	highContrastContrast   = 2.5
	highContrastBrightness = 1.2
	highContrastSharpness  = 2.0

	upscaleFactor = 1.5

	advancedContrast        = 2.0
	advancedSharpness       = 1.5
	advancedMedianWindow    = 3
	advancedThresholdOffset = 10
)

// Apply runs the profile's transformation chain on img and returns the
// derived image. The source image is never modified. Unknown profiles
// degrade to plain grayscale conversion. The deskew steps of the
// Document and Advanced chains are skipped when deskewEnabled is
// false.
func Apply(img image.Image, p Profile, deskewEnabled bool) image.Image {
	switch p {
	case Standard:
		g := imaging.ToGray(img)
		g = Contrast(g, standardContrast)
		g = GaussianBlur(g, standardBlur)
		g = Sharpen(g)
		return Threshold(g, standardThreshold)

	case HighContrast:
		g := imaging.ToGray(img)
		g = Contrast(g, highContrastContrast)
		g = Brightness(g, highContrastBrightness)
		return Sharpness(g, highContrastSharpness)

	case Document:
		g := imaging.ToGray(img)
		g = Upscale(g, upscaleFactor)
		if deskewEnabled {
			return DeskewGray(g)
		}
		return g

	case Advanced:
		g := imaging.ToGray(img)
		g = Upscale(g, upscaleFactor)
		g = Contrast(g, advancedContrast)
		g = Sharpness(g, advancedSharpness)
		g = Median(g, advancedMedianWindow)
		g = AdaptiveThreshold(g, advancedThresholdOffset)
		if deskewEnabled {
			return DeskewGray(g)
		}
		return g

	default:
		return imaging.ToGray(img)
	}
}
