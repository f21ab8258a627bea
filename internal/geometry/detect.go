package geometry

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// Point is a 2D coordinate in frame pixel space.
type Point struct {
	X float64
	Y float64
}

// Quad is a quadrilateral ordered top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]Point

// Area returns the quadrilateral's area by the shoelace formula.
func (q Quad) Area() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}

// Options controls detection and rectification.
type Options struct {
	// MinAreaFrac is the minimum card area as a fraction of the frame
	// area. Contours smaller than this are ignored. Default 0.1.
	MinAreaFrac float64

	// CanonicalWidth and CanonicalHeight size the rectified output.
	// Defaults 720x1024.
	CanonicalWidth  int
	CanonicalHeight int
}

func (o Options) withDefaults() Options {
	if o.MinAreaFrac <= 0 {
		o.MinAreaFrac = 0.1
	}
	if o.CanonicalWidth <= 0 {
		o.CanonicalWidth = 720
	}
	if o.CanonicalHeight <= 0 {
		o.CanonicalHeight = 1024
	}
	return o
}

// Card is one detected, rectified card.
type Card struct {
	// Corners are the source-frame corners in canonical order.
	Corners Quad

	// Image is the perspective-corrected card at canonical size.
	Image *image.NRGBA
}

// blurSigma smooths sensor noise before edge extraction. Chosen to
// erase texture inside the card art without rounding the card border.
const blurSigma = 2.0

// edgeThreshold is the grayscale gradient magnitude (0-255 scale) at
// which a pixel counts as an edge.
const edgeThreshold = 30.0

// Detect finds the card quadrilateral in frame and rectifies it.
//
// The second return is false when no qualifying quadrilateral exists:
// no contour at all, the largest contour is below the area floor, or
// it does not reduce to four approximately straight sides. Callers
// treat that as "no card presented", not a fault, and there is no
// retry at this layer; rescan policy belongs to the pipeline.
func Detect(frame image.Image, opts Options) (*Card, bool) {
	opts = opts.withDefaults()

	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 4 || height < 4 {
		return nil, false
	}

	blurred := blur.Gaussian(frame, blurSigma)
	edges := edgeMap(blurred)
	contours := findContours(edges, width, height)
	if len(contours) == 0 {
		return nil, false
	}

	largest := contours[0]
	largestArea := hullArea(largest)
	for _, c := range contours[1:] {
		if a := hullArea(c); a > largestArea {
			largest, largestArea = c, a
		}
	}

	quad, ok := approxQuad(largest)
	if !ok {
		return nil, false
	}
	if quad.Area() < opts.MinAreaFrac*float64(width*height) {
		return nil, false
	}

	ordered := orderCorners(quad)
	warped := warpPerspective(frame, ordered, opts.CanonicalWidth, opts.CanonicalHeight)
	return &Card{Corners: ordered, Image: warped}, true
}

// edgeMap marks pixels whose horizontal or vertical grayscale gradient
// exceeds edgeThreshold. Border pixels are never edges.
func edgeMap(img image.Image) [][]bool {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y][x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			dx := math.Abs(gray[y][x] - gray[y][x+1])
			dy := math.Abs(gray[y][x] - gray[y+1][x])
			if dx > edgeThreshold || dy > edgeThreshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// minContourLen discards tiny edge clusters as noise.
const minContourLen = 32

// findContours groups 8-connected edge pixels into contours with an
// iterative flood fill.
func findContours(edges [][]bool, width, height int) [][]Point {
	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var contours [][]Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] || visited[y][x] {
				continue
			}
			contour := floodFill(edges, visited, x, y, width, height)
			if len(contour) >= minContourLen {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

func floodFill(edges, visited [][]bool, startX, startY, width, height int) []Point {
	var contour []Point
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !edges[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		contour = append(contour, Point{X: float64(p.X), Y: float64(p.Y)})

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return contour
}

// approxQuad reduces a contour to a quadrilateral: convex hull first,
// then Douglas-Peucker simplification at 2% of the hull perimeter.
// Returns false when the simplified polygon is not four-sided, which
// covers contours that are not card-like (circles, torn shapes, image
// noise blobs).
func approxQuad(contour []Point) (Quad, bool) {
	hull := convexHull(contour)
	if len(hull) < 4 {
		return Quad{}, false
	}

	simplified := approxPolygon(hull, 0.02*perimeter(hull))
	if len(simplified) != 4 {
		return Quad{}, false
	}
	return Quad{simplified[0], simplified[1], simplified[2], simplified[3]}, true
}

// hullArea measures the area a contour encloses via its convex hull.
// Contours are ranked by enclosed area, not edge-pixel count: a long
// thin noise streak can trace more edge pixels than the card outline
// while enclosing almost nothing.
func hullArea(contour []Point) float64 {
	hull := convexHull(contour)
	if len(hull) < 3 {
		return 0
	}
	var sum float64
	for i := range hull {
		j := (i + 1) % len(hull)
		sum += hull[i].X*hull[j].Y - hull[j].X*hull[i].Y
	}
	return math.Abs(sum) / 2
}

// convexHull computes the convex hull with Andrew's monotone chain,
// returned in counter-clockwise order without the closing point.
func convexHull(points []Point) []Point {
	if len(points) < 3 {
		return nil
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	// Sort by x, then y.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			a, b := sorted[j-1], sorted[j]
			if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
				sorted[j-1], sorted[j] = b, a
			} else {
				break
			}
		}
	}

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var lower []Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func perimeter(poly []Point) float64 {
	var total float64
	for i := range poly {
		j := (i + 1) % len(poly)
		total += math.Hypot(poly[j].X-poly[i].X, poly[j].Y-poly[i].Y)
	}
	return total
}

// approxPolygon simplifies a closed polygon with Douglas-Peucker. The
// curve is split at its two mutually farthest vertices so the closed
// ring can be simplified as two open chains.
func approxPolygon(poly []Point, epsilon float64) []Point {
	if len(poly) <= 4 {
		return poly
	}

	// Anchor the split on the two farthest-apart vertices.
	ai, bi := 0, 1
	best := -1.0
	for i := 0; i < len(poly); i++ {
		for j := i + 1; j < len(poly); j++ {
			d := math.Hypot(poly[j].X-poly[i].X, poly[j].Y-poly[i].Y)
			if d > best {
				best, ai, bi = d, i, j
			}
		}
	}

	first := append([]Point{}, poly[ai:bi+1]...)
	second := append(append([]Point{}, poly[bi:]...), poly[:ai+1]...)

	simpFirst := douglasPeucker(first, epsilon)
	simpSecond := douglasPeucker(second, epsilon)

	// Chain endpoints are shared; drop the duplicates when joining.
	out := append([]Point{}, simpFirst...)
	out = append(out, simpSecond[1:len(simpSecond)-1]...)
	return out
}

func douglasPeucker(chain []Point, epsilon float64) []Point {
	if len(chain) < 3 {
		return chain
	}

	maxDist, maxIdx := 0.0, 0
	a, b := chain[0], chain[len(chain)-1]
	for i := 1; i < len(chain)-1; i++ {
		if d := pointLineDistance(chain[i], a, b); d > maxDist {
			maxDist, maxIdx = d, i
		}
	}

	if maxDist <= epsilon {
		return []Point{a, b}
	}
	left := douglasPeucker(chain[:maxIdx+1], epsilon)
	right := douglasPeucker(chain[maxIdx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func pointLineDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}

// orderCorners arranges four points so index 0 is the top-left, 1 the
// top-right, 2 the bottom-right, and 3 the bottom-left, using the
// coordinate sum/difference rule described in the package docs.
func orderCorners(q Quad) Quad {
	var ordered Quad

	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, p := range q {
		sum := p.X + p.Y
		diff := p.Y - p.X
		if sum < minSum {
			minSum = sum
			ordered[0] = p // top-left
		}
		if sum > maxSum {
			maxSum = sum
			ordered[2] = p // bottom-right
		}
		if diff < minDiff {
			minDiff = diff
			ordered[1] = p // top-right
		}
		if diff > maxDiff {
			maxDiff = diff
			ordered[3] = p // bottom-left
		}
	}
	return ordered
}
