// Package preprocess generates preprocessed variants of page images
// tuned for OCR under different document conditions.
//
// A [Profile] names a fixed transformation chain. [Apply] runs the
// chain as a pure function: the source image is never mutated and the
// same input always yields the same output.
//
//	binary := preprocess.Apply(img, preprocess.Standard, false)
//
// # Profiles
//
//   - [Standard] - grayscale, contrast boost, light blur, sharpen,
//     fixed binarization. The general-purpose profile.
//   - [HighContrast] - stronger contrast with brightness and sharpness
//     boosts, left as grayscale. For faded or low-contrast scans.
//   - [Document] - upscaled and deskewed grayscale. For clean printed
//     text where glyph size matters more than binarization.
//   - [Advanced] - upscale, contrast, sharpness, median denoise,
//     adaptive binarization, deskew. The most expensive chain.
//
// # Deskew
//
// [Deskew] estimates page tilt by brute force: it rotates the image
// through candidate angles and keeps the angle whose horizontal
// projection is peakiest (highest standard deviation). It is
// best-effort and never fails; images without detectable line
// structure are returned unchanged.
package preprocess
