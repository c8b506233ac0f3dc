package boundary

import (
	"container/list"
	"image"

	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

const closingKernel = 5

// component carries the pixel count plus the per-row horizontal extremes of
// one connected region. The extremes are all the convex hull needs, so the
// full pixel set is never stored.
type component struct {
	count int
	minY  int
	maxY  int
	rowLo map[int]int
	rowHi map[int]int
}

func (c *component) points() []utils.Point {
	pts := make([]utils.Point, 0, 2*(c.maxY-c.minY+1))
	for y := c.minY; y <= c.maxY; y++ {
		lo, ok := c.rowLo[y]
		if !ok {
			continue
		}
		hi := c.rowHi[y]
		pts = append(pts, utils.Point{X: float64(lo), Y: float64(y)})
		if hi != lo {
			pts = append(pts, utils.Point{X: float64(hi), Y: float64(y)})
		}
	}
	return pts
}

// Detect locates the page region in img. It returns the boundary quad, the
// rotation angle of its top edge in degrees, and whether a plausible region
// was found. Detection failure is reported through ok=false, never an error.
func Detect(img image.Image) (Quad, float64, bool) {
	if img == nil {
		return Quad{}, 0, false
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 4 || h < 4 {
		return Quad{}, 0, false
	}

	gray := utils.GrayFromImage(img).BoxBlur(2)
	threshold := otsuThreshold(gray)
	mask := binarizeDocument(gray, threshold)
	mask = closeMask(mask, w, h, closingKernel)

	comp := largestComponent(mask, w, h)
	if comp == nil || comp.count == 0 {
		return Quad{}, 0, false
	}

	rect := utils.MinimumAreaRectangle(comp.points())
	if len(rect) != 4 {
		return Quad{}, 0, false
	}
	quad := orderClockwise(rect)
	if !quad.Valid(w, h) {
		return Quad{}, 0, false
	}
	return quad, quad.Angle(), true
}

// largestComponent runs a 4-connected BFS labelling over the mask and keeps
// the component with the most pixels.
func largestComponent(mask []bool, w, h int) *component {
	visited := make([]bool, w*h)
	var best *component

	for y := range h {
		for x := range w {
			idx := y*w + x
			if !mask[idx] || visited[idx] {
				continue
			}
			c := componentBFS(mask, visited, w, h, x, y)
			if best == nil || c.count > best.count {
				best = c
			}
		}
	}
	return best
}

func componentBFS(mask []bool, visited []bool, w, h, startX, startY int) *component {
	c := &component{
		minY:  startY,
		maxY:  startY,
		rowLo: make(map[int]int),
		rowHi: make(map[int]int),
	}
	q := list.New()
	start := startY*w + startX
	q.PushBack(start)
	visited[start] = true

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		c.add(cx, cy)
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if mask[ni] && !visited[ni] {
				visited[ni] = true
				q.PushBack(ni)
			}
		}
	}
	return c
}

func (c *component) add(x, y int) {
	c.count++
	if y < c.minY {
		c.minY = y
	}
	if y > c.maxY {
		c.maxY = y
	}
	if lo, ok := c.rowLo[y]; !ok || x < lo {
		c.rowLo[y] = x
	}
	if hi, ok := c.rowHi[y]; !ok || x > hi {
		c.rowHi[y] = x
	}
}
