package preprocess

import (
	"image"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/tsawler/palimpsest/internal/imaging"
)

// compact returns img if it is zero-origin with a packed stride, or an
// equivalent copy otherwise. The ops below index Pix directly and rely
// on that layout.
func compact(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if b.Min.X == 0 && b.Min.Y == 0 && img.Stride == b.Dx() {
		return img
	}
	return imaging.ToGray(img)
}

// Contrast scales pixel distance from the image mean by factor.
// Factor 1.0 is a no-op; values above 1.0 increase contrast.
func Contrast(img *image.Gray, factor float64) *image.Gray {
	src := compact(img)
	mean := imaging.Mean(src)

	out := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		out.Pix[i] = imaging.Clamp(mean + factor*(float64(p)-mean))
	}
	return out
}

// Brightness multiplies every pixel by factor.
func Brightness(img *image.Gray, factor float64) *image.Gray {
	src := compact(img)

	out := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		out.Pix[i] = imaging.Clamp(factor * float64(p))
	}
	return out
}

// Sharpness blends the image against its 3x3 box blur. Factor 0 yields
// the blur, 1.0 the original, and values above 1.0 exaggerate edges.
func Sharpness(img *image.Gray, factor float64) *image.Gray {
	src := compact(img)
	blur := boxBlur3(src)

	out := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		b := float64(blur.Pix[i])
		out.Pix[i] = imaging.Clamp(b + factor*(float64(p)-b))
	}
	return out
}

// GaussianBlur applies a separable Gaussian blur with the given radius
// acting as the standard deviation. Radius 0 or less returns a copy.
func GaussianBlur(img *image.Gray, radius float64) *image.Gray {
	src := compact(img)
	if radius <= 0 {
		return imaging.CloneGray(src)
	}

	kernel := gaussianKernel(radius)
	return convolveRows(convolveCols(src, kernel), kernel)
}

// gaussianKernel builds a normalized 1D kernel covering two standard
// deviations on either side.
func gaussianKernel(sigma float64) []float64 {
	half := int(math.Ceil(2 * sigma))
	if half < 1 {
		half = 1
	}

	kernel := make([]float64, 2*half+1)
	var sum float64
	for i := -half; i <= half; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+half] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveCols convolves each row with the kernel (horizontal pass).
// Edges replicate the border pixel.
func convolveCols(img *image.Gray, kernel []float64) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	half := len(kernel) / 2

	out := image.NewGray(img.Bounds())
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				sx := clampInt(x+k, 0, w-1)
				acc += kernel[k+half] * float64(row[sx])
			}
			out.Pix[y*out.Stride+x] = imaging.Clamp(acc)
		}
	}
	return out
}

// convolveRows convolves each column with the kernel (vertical pass).
func convolveRows(img *image.Gray, kernel []float64) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	half := len(kernel) / 2

	out := image.NewGray(img.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				sy := clampInt(y+k, 0, h-1)
				acc += kernel[k+half] * float64(img.Pix[sy*img.Stride+x])
			}
			out.Pix[y*out.Stride+x] = imaging.Clamp(acc)
		}
	}
	return out
}

// Sharpen applies the fixed 3x3 edge-enhancement kernel
// [0 -1 0; -1 5 -1; 0 -1 0].
func Sharpen(img *image.Gray) *image.Gray {
	src := compact(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	out := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := float64(src.Pix[y*src.Stride+x])
			up := float64(src.Pix[clampInt(y-1, 0, h-1)*src.Stride+x])
			down := float64(src.Pix[clampInt(y+1, 0, h-1)*src.Stride+x])
			left := float64(src.Pix[y*src.Stride+clampInt(x-1, 0, w-1)])
			right := float64(src.Pix[y*src.Stride+clampInt(x+1, 0, w-1)])
			out.Pix[y*out.Stride+x] = imaging.Clamp(5*center - up - down - left - right)
		}
	}
	return out
}

// boxBlur3 is the 3x3 mean filter used by Sharpness.
func boxBlur3(img *image.Gray) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	out := image.NewGray(img.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for dy := -1; dy <= 1; dy++ {
				sy := clampInt(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					sum += float64(img.Pix[sy*img.Stride+sx])
				}
			}
			out.Pix[y*out.Stride+x] = imaging.Clamp(sum / 9)
		}
	}
	return out
}

// Median applies a median filter with the given square window size.
// Window sizes below 3 return a copy; even sizes round up.
func Median(img *image.Gray, window int) *image.Gray {
	src := compact(img)
	if window < 3 {
		return imaging.CloneGray(src)
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	out := image.NewGray(src.Bounds())
	neighborhood := make([]byte, 0, window*window)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			neighborhood = neighborhood[:0]
			for dy := -half; dy <= half; dy++ {
				sy := clampInt(y+dy, 0, h-1)
				for dx := -half; dx <= half; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					neighborhood = append(neighborhood, src.Pix[sy*src.Stride+sx])
				}
			}
			sort.Slice(neighborhood, func(i, j int) bool { return neighborhood[i] < neighborhood[j] })
			out.Pix[y*out.Stride+x] = neighborhood[len(neighborhood)/2]
		}
	}
	return out
}

// Threshold binarizes the image at the given luminance level: pixels
// above level become white, the rest black.
func Threshold(img *image.Gray, level uint8) *image.Gray {
	src := compact(img)

	out := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		if p > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// AdaptiveThreshold binarizes at the image mean minus offset.
func AdaptiveThreshold(img *image.Gray, offset float64) *image.Gray {
	src := compact(img)
	level := imaging.Mean(src) - offset

	out := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		if float64(p) > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// Upscale resizes the image by factor using Catmull-Rom interpolation.
// Factors of 1.0 or less return a copy.
func Upscale(img *image.Gray, factor float64) *image.Gray {
	src := compact(img)
	if factor <= 1.0 {
		return imaging.CloneGray(src)
	}

	w := int(float64(src.Bounds().Dx())*factor + 0.5)
	h := int(float64(src.Bounds().Dy())*factor + 0.5)
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return out
}

// FitWithin downscales img so its larger dimension does not exceed
// maxDim, preserving aspect ratio. Images already within the limit are
// returned as-is. Color images stay color.
func FitWithin(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	larger := w
	if h > larger {
		larger = h
	}
	if maxDim <= 0 || larger <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(larger)
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	if _, ok := img.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, nw, nh))
		xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
		return out
	}
	out := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
