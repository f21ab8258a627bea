package geometry

import (
	"image"
	"image/color"
	"math"
)

// homography is a 3x3 projective transform in row-major order.
type homography [9]float64

// apply maps (x, y) through the transform, returning the projected
// coordinates after perspective division.
func (h homography) apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	if math.Abs(w) < 1e-12 {
		return 0, 0
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// solveHomography computes the transform mapping each src[i] to
// dst[i]. With four correspondences the system is exactly determined:
// eight unknowns (h8 fixed at 1) solved by Gaussian elimination with
// partial pivoting. ok is false for degenerate inputs (three collinear
// corners).
func solveHomography(src, dst Quad) (homography, bool) {
	// Each correspondence contributes two rows of the 8x8 system.
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		m[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -dx * sx, -dx * sy, dx}
		m[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -dy * sx, -dy * sy, dy}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-8 {
			return homography{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := m[row][col] / m[col][col]
			for k := col; k < 9; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	var h homography
	for i := 0; i < 8; i++ {
		h[i] = m[i][8] / m[i][i]
	}
	h[8] = 1
	return h, true
}

// warpPerspective rectifies the quadrilateral corners (in canonical
// order) to a width x height image by inverse mapping: the transform is
// solved from canonical space back to the source frame, so every
// output pixel samples exactly one source location bilinearly.
func warpPerspective(src image.Image, corners Quad, width, height int) *image.NRGBA {
	dst := Quad{
		{X: 0, Y: 0},
		{X: float64(width - 1), Y: 0},
		{X: float64(width - 1), Y: float64(height - 1)},
		{X: 0, Y: float64(height - 1)},
	}

	inverse, ok := solveHomography(dst, corners)
	if !ok {
		// Degenerate corners cannot happen for a quad that passed
		// detection, but a black canvas beats a panic if they do.
		return image.NewNRGBA(image.Rect(0, 0, width, height))
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := inverse.apply(float64(x), float64(y))
			out.SetNRGBA(x, y, sampleBilinear(src, sx, sy))
		}
	}
	return out
}

// sampleBilinear interpolates the source image at a fractional
// coordinate, clamping to the image border.
func sampleBilinear(img image.Image, x, y float64) color.NRGBA {
	bounds := img.Bounds()

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	clampPt := func(px, py int) (float64, float64, float64, float64) {
		if px < bounds.Min.X {
			px = bounds.Min.X
		}
		if px > bounds.Max.X-1 {
			px = bounds.Max.X - 1
		}
		if py < bounds.Min.Y {
			py = bounds.Min.Y
		}
		if py > bounds.Max.Y-1 {
			py = bounds.Max.Y - 1
		}
		r, g, b, a := img.At(px, py).RGBA()
		return float64(r >> 8), float64(g >> 8), float64(b >> 8), float64(a >> 8)
	}

	r00, g00, b00, a00 := clampPt(x0, y0)
	r10, g10, b10, a10 := clampPt(x0+1, y0)
	r01, g01, b01, a01 := clampPt(x0, y0+1)
	r11, g11, b11, a11 := clampPt(x0+1, y0+1)

	lerp2 := func(v00, v10, v01, v11 float64) uint8 {
		top := v00*(1-fx) + v10*fx
		bottom := v01*(1-fx) + v11*fx
		return uint8(math.Round(top*(1-fy) + bottom*fy))
	}

	return color.NRGBA{
		R: lerp2(r00, r10, r01, r11),
		G: lerp2(g00, g10, g01, g11),
		B: lerp2(b00, b10, b01, b11),
		A: lerp2(a00, a10, a01, a11),
	}
}
