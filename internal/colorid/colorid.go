// Package colorid classifies the frame color of a normalized card
// image.
//
// It is a diagnostic aid, not an authority: the card index is the
// source of truth for color identity, and this package only suggests a
// color for cards whose index entry carries none. The border of the
// card is sampled, averaged in Lab space, and matched against
// reference frame colors by perceptual distance.
package colorid

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// reference frame colors, one per mono-color frame.
var references = []struct {
	code string
	c    colorful.Color
}{
	{"W", mustHex("#E8E2D0")},
	{"U", mustHex("#1E6FA9")},
	{"B", mustHex("#2A2520")},
	{"R", mustHex("#C03A2B")},
	{"G", mustHex("#1E6B3C")},
}

// maxDistance is the Lab distance beyond which no suggestion is made.
// Gold, artifact, and heavily glared frames land out here.
const maxDistance = 0.30

// Suggest samples the border of a normalized card image and returns
// the closest mono-color frame code (W, U, B, R, G). ok is false when
// the border is not close enough to any reference to be worth
// reporting.
func Suggest(img image.Image) (code string, ok bool) {
	avg, sampled := borderAverage(img)
	if !sampled {
		return "", false
	}

	best := ""
	bestDist := maxDistance
	for _, ref := range references {
		if d := avg.DistanceLab(ref.c); d < bestDist {
			best = ref.code
			bestDist = d
		}
	}
	return best, best != ""
}

// borderAverage averages the outer ring of the image in Lab space. The
// ring is 6% of the short edge, skipping the outermost two pixels
// where the warp's border clamp smears.
func borderAverage(img image.Image) (colorful.Color, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	short := w
	if h < short {
		short = h
	}
	ring := short * 6 / 100
	if ring < 2 {
		return colorful.Color{}, false
	}
	const inset = 2

	var sumL, sumA, sumB float64
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := min(x-b.Min.X, b.Max.X-1-x)
			dy := min(y-b.Min.Y, b.Max.Y-1-y)
			d := min(dx, dy)
			if d < inset || d >= inset+ring {
				continue
			}
			c, okc := colorful.MakeColor(img.At(x, y))
			if !okc {
				continue
			}
			l, la, lb := c.Lab()
			sumL += l
			sumA += la
			sumB += lb
			n++
		}
	}
	if n == 0 {
		return colorful.Color{}, false
	}
	return colorful.Lab(sumL/float64(n), sumA/float64(n), sumB/float64(n)), true
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
