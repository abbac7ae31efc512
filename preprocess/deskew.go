package preprocess

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/tsawler/palimpsest/internal/imaging"
)

// Deskew search range: candidate angles in degrees.
const (
	deskewMaxAngle  = 15
	deskewAngleStep = 1
)

// minProjectionPeaks is the minimum number of text-line peaks the
// horizontal projection must show before deskewing is attempted.
const minProjectionPeaks = 2

// Deskew straightens small rotational tilt by brute-force search: the
// image is rotated through every candidate angle and the angle whose
// horizontal projection has the highest standard deviation wins (text
// lines aligned with the raster produce the peakiest projection).
//
// Deskew is best-effort and never fails. Images whose projection shows
// fewer than two detectable peaks (blank pages, uniform fills) are
// returned unchanged, as are images whose best angle is zero.
func Deskew(img image.Image) image.Image {
	if img == nil {
		return img
	}
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return img
	}

	gray := imaging.ToGray(img)
	angle := bestRotation(gray)
	if angle == 0 {
		return img
	}
	return rotate(img, angle)
}

// DeskewGray is the grayscale fast path used by the profile chains.
func DeskewGray(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return img
	}

	gray := compact(img)
	angle := bestRotation(gray)
	if angle == 0 {
		return img
	}
	return rotateGray(gray, angle)
}

// bestRotation returns the winning angle in degrees, or 0 when the
// image has no usable line structure.
func bestRotation(gray *image.Gray) float64 {
	projection := horizontalProjection(gray)
	if countPeaks(projection) < minProjectionPeaks {
		return 0
	}

	bestAngle := 0.0
	bestScore := -1.0
	for angle := -deskewMaxAngle; angle <= deskewMaxAngle; angle += deskewAngleStep {
		candidate := gray
		if angle != 0 {
			candidate = rotateGray(gray, float64(angle))
		}
		score := stddev(horizontalProjection(candidate))
		if score > bestScore {
			bestScore = score
			bestAngle = float64(angle)
		}
	}
	return bestAngle
}

// horizontalProjection sums ink mass (inverted luminance) per row.
// Rows covering text lines score high, gaps between lines score low.
func horizontalProjection(img *image.Gray) []float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	rows := make([]float64, h)
	for y := 0; y < h; y++ {
		var sum float64
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for _, p := range row {
			sum += float64(255 - p)
		}
		rows[y] = sum
	}
	return rows
}

// countPeaks counts local maxima of the smoothed projection that rise
// above mean + 0.5 stddev. A flat projection has no peaks.
func countPeaks(projection []float64) int {
	if len(projection) < 3 {
		return 0
	}

	smoothed := movingAverage(projection, 5)
	mean, sd := meanStddev(smoothed)
	threshold := mean + 0.5*sd
	if sd == 0 {
		return 0
	}

	peaks := 0
	for i := 1; i < len(smoothed)-1; i++ {
		if smoothed[i] > threshold && smoothed[i] > smoothed[i-1] && smoothed[i] >= smoothed[i+1] {
			peaks++
		}
	}
	return peaks
}

func movingAverage(values []float64, window int) []float64 {
	if window < 2 || len(values) < window {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	half := window / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := clampInt(i-half, 0, len(values)-1)
		hi := clampInt(i+half, 0, len(values)-1)
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

func stddev(values []float64) float64 {
	_, sd := meanStddev(values)
	return sd
}

// rotateGray rotates about the image center by degrees, keeping the
// original dimensions and filling exposed corners with white.
func rotateGray(img *image.Gray, degrees float64) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i := range out.Pix {
		out.Pix[i] = imaging.White.Y
	}

	xdraw.BiLinear.Transform(out, rotationMatrix(degrees, w, h), img, img.Bounds(), xdraw.Src, nil)
	return out
}

// rotate is the generic-image variant of rotateGray.
func rotate(img image.Image, degrees float64) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return rotateGray(compact(g), degrees)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(imaging.White), image.Point{}, draw.Src)

	xdraw.BiLinear.Transform(out, rotationMatrix(degrees, w, h), img, b, xdraw.Src, nil)
	return out
}

// rotationMatrix maps source coordinates to destination coordinates,
// rotating by degrees about the image center.
func rotationMatrix(degrees float64, w, h int) f64.Aff3 {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx, cy := float64(w)/2, float64(h)/2

	return f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
}
