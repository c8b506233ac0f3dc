package fold

import (
	"math"
	"sort"

	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// segment is one near-vertical edge run found along a candidate line.
type segment struct {
	x1, y1 int
	x2, y2 int
	length float64
	angle  float64 // absolute off-vertical angle in degrees
	midX   float64 // absolute image x of the segment midpoint
}

// cluster groups segments that share a horizontal position.
type cluster struct {
	segments    []segment
	totalLength float64
}

func (c *cluster) score() float64 {
	return float64(len(c.segments)) + c.totalLength/1000.0
}

// DetectLineCluster finds a fold as a cluster of near-vertical edge
// segments. Edges come from a Sobel gradient, candidate lines from a Hough
// accumulation restricted to MaxAngleDeg off vertical, and segments from
// edge runs along each voted line. Segments are single-linkage clustered by
// midpoint x; the best cluster yields a length-weighted fold position.
func DetectLineCluster(gray *utils.Gray, region Region, p Params) (Candidate, bool) {
	p = p.withDefaults()
	if gray == nil || gray.Width < 8 || gray.Height < 8 {
		return Candidate{}, false
	}
	x0, x1 := region.band(gray.Width, p.CenterSearchRatio)
	bandW := x1 - x0
	if bandW < 4 {
		return Candidate{}, false
	}
	h := gray.Height

	edges := sobelEdges(gray, x0, x1, p.EdgeThreshold)
	lines := voteLines(edges, bandW, h, p)
	if len(lines) == 0 {
		return Candidate{}, false
	}

	maxGap := int(float64(h) * p.MaxGapRatio)
	minLen := float64(h) * p.MinLineLengthRatio
	var segments []segment
	for _, ln := range lines {
		segments = append(segments, traceSegments(edges, bandW, h, x0, ln, maxGap, minLen)...)
	}
	if len(segments) == 0 {
		return Candidate{}, false
	}

	best := bestCluster(segments, p.ClusterWidthRatio*float64(gray.Width))
	if best == nil {
		return Candidate{}, false
	}

	var weightedX, totalLen, angleSum float64
	for _, s := range best.segments {
		weightedX += s.midX * s.length
		totalLen += s.length
		angleSum += s.angle
	}
	n := float64(len(best.segments))
	avgLen := totalLen / n
	avgAngle := angleSum / n

	quality := 0.4*math.Min(n/5, 1) +
		0.4*math.Min(avgLen/float64(h), 1) +
		0.2*(1-avgAngle/p.MaxAngleDeg)

	return Candidate{
		X:       int(math.Round(weightedX / totalLen)),
		Quality: utils.ClampFloat(quality, 0, 1),
		Method:  MethodLineCluster,
	}, true
}

// sobelEdges computes a binary edge mask for the band [x0, x1) using the
// Sobel gradient magnitude.
func sobelEdges(gray *utils.Gray, x0, x1 int, threshold float64) []bool {
	w := x1 - x0
	h := gray.Height
	edges := make([]bool, w*h)
	for y := range h {
		for x := range w {
			gx := gray.At(x0+x+1, y-1) + 2*gray.At(x0+x+1, y) + gray.At(x0+x+1, y+1) -
				gray.At(x0+x-1, y-1) - 2*gray.At(x0+x-1, y) - gray.At(x0+x-1, y+1)
			gy := gray.At(x0+x-1, y+1) + 2*gray.At(x0+x, y+1) + gray.At(x0+x+1, y+1) -
				gray.At(x0+x-1, y-1) - 2*gray.At(x0+x, y-1) - gray.At(x0+x+1, y-1)
			if math.Hypot(gx, gy) >= threshold {
				edges[y*w+x] = true
			}
		}
	}
	return edges
}

// houghLine is a voted near-vertical line x(y) = baseX + y*tan(angle).
type houghLine struct {
	baseX    int // x intercept at y=0, band-relative
	tan      float64
	angleDeg float64
	votes    int
}

// voteLines accumulates edge pixels into (angle, intercept) bins and keeps
// local maxima above the vote threshold.
func voteLines(edges []bool, w, h int, p Params) []houghLine {
	maxA := int(p.MaxAngleDeg)
	nAngles := 2*maxA + 1
	maxShift := int(math.Tan(p.MaxAngleDeg*math.Pi/180)*float64(h)) + 1
	nBins := w + 2*maxShift

	tans := make([]float64, nAngles)
	for i := range nAngles {
		tans[i] = math.Tan(float64(i-maxA) * math.Pi / 180)
	}

	acc := make([][]int, nAngles)
	for i := range acc {
		acc[i] = make([]int, nBins)
	}
	for y := range h {
		for x := range w {
			if !edges[y*w+x] {
				continue
			}
			for i, t := range tans {
				base := int(math.Round(float64(x)-float64(y)*t)) + maxShift
				if base >= 0 && base < nBins {
					acc[i][base]++
				}
			}
		}
	}

	type cell struct{ a, b, votes int }
	var cells []cell
	for a := range nAngles {
		for bIdx := range nBins {
			if acc[a][bIdx] >= p.VoteThreshold {
				cells = append(cells, cell{a, bIdx, acc[a][bIdx]})
			}
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].votes > cells[j].votes })

	// Greedy non-max suppression in (angle, intercept) space.
	const suppress = 2
	var lines []houghLine
	taken := make([]cell, 0, len(cells))
	for _, c := range cells {
		dominated := false
		for _, t := range taken {
			if abs(c.a-t.a) <= suppress && abs(c.b-t.b) <= suppress {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		taken = append(taken, c)
		lines = append(lines, houghLine{
			baseX:    c.b - maxShift,
			tan:      tans[c.a],
			angleDeg: math.Abs(float64(c.a - maxA)),
			votes:    c.votes,
		})
	}
	return lines
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// traceSegments walks a voted line top to bottom and collects edge runs,
// tolerating gaps up to maxGap rows and keeping runs at least minLen long.
func traceSegments(edges []bool, w, h, x0 int, ln houghLine, maxGap int, minLen float64) []segment {
	var segs []segment
	runStart := -1
	lastHit := -1

	flush := func(endY int) {
		if runStart < 0 {
			return
		}
		sx := lineX(ln, runStart)
		ex := lineX(ln, endY)
		length := math.Hypot(float64(ex-sx), float64(endY-runStart))
		if length >= minLen {
			segs = append(segs, segment{
				x1: x0 + sx, y1: runStart,
				x2: x0 + ex, y2: endY,
				length: length,
				angle:  ln.angleDeg,
				midX:   float64(x0) + float64(sx+ex)/2,
			})
		}
		runStart = -1
	}

	for y := range h {
		x := lineX(ln, y)
		hit := false
		// Allow one pixel of jitter around the ideal line.
		for dx := -1; dx <= 1; dx++ {
			if x+dx >= 0 && x+dx < w && edges[y*w+x+dx] {
				hit = true
				break
			}
		}
		switch {
		case hit && runStart < 0:
			runStart = y
			lastHit = y
		case hit:
			lastHit = y
		case runStart >= 0 && y-lastHit > maxGap:
			flush(lastHit)
		}
	}
	flush(lastHit)
	return segs
}

func lineX(ln houghLine, y int) int {
	return ln.baseX + int(math.Round(float64(y)*ln.tan))
}

// bestCluster single-linkage clusters segments along x and returns the
// cluster with the highest count + totalLength/1000 score.
func bestCluster(segments []segment, linkDist float64) *cluster {
	if len(segments) == 0 {
		return nil
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].midX < segments[j].midX })

	var clusters []*cluster
	current := &cluster{}
	for i, s := range segments {
		if i > 0 && s.midX-segments[i-1].midX > linkDist {
			clusters = append(clusters, current)
			current = &cluster{}
		}
		current.segments = append(current.segments, s)
		current.totalLength += s.length
	}
	clusters = append(clusters, current)

	best := clusters[0]
	for _, c := range clusters[1:] {
		if c.score() > best.score() {
			best = c
		}
	}
	return best
}
