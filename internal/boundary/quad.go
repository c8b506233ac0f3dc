// Package boundary locates the page region in a photographed document and
// exposes it as a quadrilateral with the geometry queries the rest of the
// scan pipeline needs.
package boundary

import (
	"math"

	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// Area ratio limits for a plausible page region relative to the image.
const (
	minAreaRatio = 0.10
	maxAreaRatio = 0.98
)

// Quad is a page boundary: four corners in clockwise order starting at the
// top-left.
type Quad struct {
	TL utils.Point
	TR utils.Point
	BR utils.Point
	BL utils.Point
}

// Corners returns the corners in clockwise order starting at the top-left.
func (q Quad) Corners() [4]utils.Point {
	return [4]utils.Point{q.TL, q.TR, q.BR, q.BL}
}

// Points returns the corners as a slice, for drawing and warping.
func (q Quad) Points() []utils.Point {
	return []utils.Point{q.TL, q.TR, q.BR, q.BL}
}

// Area returns the quad area via the shoelace formula.
func (q Quad) Area() float64 {
	pts := q.Corners()
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(area) / 2
}

// Bounds returns the axis-aligned bounding box of the quad.
func (q Quad) Bounds() utils.Box {
	return utils.BoundingBox(q.Points())
}

// Width returns the average of the top and bottom edge lengths.
func (q Quad) Width() float64 {
	top := math.Hypot(q.TR.X-q.TL.X, q.TR.Y-q.TL.Y)
	bottom := math.Hypot(q.BR.X-q.BL.X, q.BR.Y-q.BL.Y)
	return (top + bottom) / 2
}

// Height returns the average of the left and right edge lengths.
func (q Quad) Height() float64 {
	left := math.Hypot(q.BL.X-q.TL.X, q.BL.Y-q.TL.Y)
	right := math.Hypot(q.BR.X-q.TR.X, q.BR.Y-q.TR.Y)
	return (left + right) / 2
}

// Valid reports whether the quad is a plausible page region for an image of
// the given size: its area ratio must fall within [0.10, 0.98].
func (q Quad) Valid(imgW, imgH int) bool {
	if imgW <= 0 || imgH <= 0 {
		return false
	}
	ratio := q.Area() / (float64(imgW) * float64(imgH))
	return ratio >= minAreaRatio && ratio <= maxAreaRatio
}

// Coverage returns the fraction of the image area the quad covers, clamped
// to [0, 1].
func (q Quad) Coverage(imgW, imgH int) float64 {
	if imgW <= 0 || imgH <= 0 {
		return 0
	}
	return utils.ClampFloat(q.Area()/(float64(imgW)*float64(imgH)), 0, 1)
}

// FoldRatio returns the horizontal position of foldX relative to the quad's
// bounding box, clamped to [0, 1]. A degenerate (zero-width) quad yields 0.5
// so downstream classification treats the fold as central rather than
// exploding.
func (q Quad) FoldRatio(foldX float64) float64 {
	b := q.Bounds()
	if b.Width() <= 0 {
		return 0.5
	}
	return utils.ClampFloat((foldX-b.MinX)/b.Width(), 0, 1)
}

// Angle returns the rotation of the top edge in degrees, in (-90, 90].
func (q Quad) Angle() float64 {
	deg := math.Atan2(q.TR.Y-q.TL.Y, q.TR.X-q.TL.X) * 180 / math.Pi
	if deg <= -90 {
		deg += 180
	} else if deg > 90 {
		deg -= 180
	}
	return deg
}

// orderClockwise maps four rectangle corners (any order) onto TL/TR/BR/BL
// using the coordinate sum/difference heuristic.
func orderClockwise(pts []utils.Point) Quad {
	var q Quad
	if len(pts) != 4 {
		return q
	}
	q.TL = pts[0]
	q.TR = pts[0]
	q.BR = pts[0]
	q.BL = pts[0]
	for _, p := range pts[1:] {
		if p.X+p.Y < q.TL.X+q.TL.Y {
			q.TL = p
		}
		if p.X+p.Y > q.BR.X+q.BR.Y {
			q.BR = p
		}
		if p.X-p.Y > q.TR.X-q.TR.Y {
			q.TR = p
		}
		if p.X-p.Y < q.BL.X-q.BL.Y {
			q.BL = p
		}
	}
	return q
}
