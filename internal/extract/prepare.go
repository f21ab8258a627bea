package extract

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Region addresses a rectangular band of an image in frame fractions,
// so the same region applies at any capture resolution. Coordinates
// run left to right and top to bottom, each in [0, 1].
type Region struct {
	Left   float64 `json:"left" toml:"left"`
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
}

// DefaultTitleRegion covers the title band of a normalized card image.
func DefaultTitleRegion() Region {
	return Region{Left: 0.08, Top: 0.08, Right: 0.92, Bottom: 0.22}
}

// Valid reports whether the region fractions describe a non-empty
// rectangle inside the unit square.
func (r Region) Valid() bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right <= 1 && r.Bottom <= 1 &&
		r.Left < r.Right && r.Top < r.Bottom
}

// crop extracts the region from img in pixel space.
func crop(img image.Image, r Region) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rect := image.Rect(
		b.Min.X+int(r.Left*w),
		b.Min.Y+int(r.Top*h),
		b.Min.X+int(r.Right*w),
		b.Min.Y+int(r.Bottom*h),
	)
	return imaging.Crop(img, rect)
}

// grayOf converts img to 8-bit grayscale using BT.601 luminance.
func grayOf(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			lum := (299*(r>>8) + 587*(g>>8) + 114*(bb>>8)) / 1000
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(lum)})
		}
	}
	return out
}

// integralImage holds summed-area tables over a grayscale image, one
// for pixel values and one for their squares, enabling constant-time
// window mean and variance queries.
type integralImage struct {
	sum  []float64
	sq   []float64
	w, h int
}

func newIntegralImage(g *image.Gray) *integralImage {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	in := &integralImage{
		sum: make([]float64, (w+1)*(h+1)),
		sq:  make([]float64, (w+1)*(h+1)),
		w:   w,
		h:   h,
	}
	stride := w + 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(g.GrayAt(x, y).Y)
			i := (y+1)*stride + (x + 1)
			in.sum[i] = v + in.sum[i-1] + in.sum[i-stride] - in.sum[i-stride-1]
			in.sq[i] = v*v + in.sq[i-1] + in.sq[i-stride] - in.sq[i-stride-1]
		}
	}
	return in
}

// window returns the mean and standard deviation of the pixel window
// centered at (x, y) with the given radius, clamped to the image.
func (in *integralImage) window(x, y, radius int) (mean, std float64) {
	x0, y0 := x-radius, y-radius
	x1, y1 := x+radius+1, y+radius+1
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > in.w {
		x1 = in.w
	}
	if y1 > in.h {
		y1 = in.h
	}
	stride := in.w + 1
	n := float64((x1 - x0) * (y1 - y0))
	if n == 0 {
		return 0, 0
	}
	s := in.sum[y1*stride+x1] - in.sum[y1*stride+x0] - in.sum[y0*stride+x1] + in.sum[y0*stride+x0]
	q := in.sq[y1*stride+x1] - in.sq[y1*stride+x0] - in.sq[y0*stride+x1] + in.sq[y0*stride+x0]
	mean = s / n
	variance := q/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// enhanceContrast normalizes local contrast across the image. Each
// pixel is re-centered on its neighborhood mean and stretched toward a
// target deviation, which evens out the uneven lighting and foil glare
// a camera frame picks up.
func enhanceContrast(g *image.Gray) *image.Gray {
	const targetStd = 60.0
	const minStd = 8.0

	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	radius := max(w, h) / 8
	if radius < 4 {
		radius = 4
	}

	in := newIntegralImage(g)
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mean, std := in.window(x, y, radius)
			if std < minStd {
				std = minStd
			}
			v := 128 + (float64(g.GrayAt(x, y).Y)-mean)*targetStd/std
			out.SetGray(x, y, color.Gray{Y: clampByte(v)})
		}
	}
	return out
}

// otsuThreshold finds the global threshold that maximizes between-class
// variance over the image histogram.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	total := b.Dx() * b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumBack, weightBack float64
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		weightBack += float64(hist[t])
		if weightBack == 0 {
			continue
		}
		weightFore := float64(total) - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t) * float64(hist[t])
		meanBack := sumBack / weightBack
		meanFore := (sum - sumBack) / weightFore
		between := weightBack * weightFore * (meanBack - meanFore) * (meanBack - meanFore)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// binarize maps pixels above the threshold to white and the rest to
// black.
func binarize(g *image.Gray, threshold uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// adaptiveBinarize thresholds each pixel against its neighborhood mean
// minus a fixed offset, which tolerates lighting gradients a global
// threshold cannot.
func adaptiveBinarize(g *image.Gray, radius int, offset float64) *image.Gray {
	in := newIntegralImage(g)
	b := g.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			mean, _ := in.window(x, y, radius)
			if float64(g.GrayAt(x, y).Y) > mean-offset {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// closeGaps applies a morphological close, filling pinholes in glyph
// strokes that thresholding leaves behind.
func closeGaps(g *image.Gray) *image.Gray {
	return grayOf(effect.Erode(effect.Dilate(g, 1), 1))
}

// upscale enlarges the image threefold with Lanczos resampling. Card
// titles in a camera frame land near the lower bound of what the
// recognizer resolves, and the enlargement measurably lifts accuracy.
func upscale(img image.Image) image.Image {
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*3, b.Dy()*3, imaging.Lanczos)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
