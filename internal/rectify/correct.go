package rectify

import (
	"image"
	"math"

	"github.com/dodogabrie/image-processing-leggio/internal/boundary"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// Transform is the forward mapping (source image -> corrected image)
// produced by Correct. It lets detections made in source coordinates, like
// a fold x position, be carried into the corrected image.
type Transform struct {
	forward [9]float64
	Width   int
	Height  int
}

// Apply maps a source coordinate into the corrected image.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return applyHomography(t.forward, x, y)
}

// MapFoldX carries a vertical fold line at foldX through the transform. The
// line's endpoints at the top and bottom of the source are mapped and their
// x coordinates averaged, then clamped to the corrected image width.
func (t Transform) MapFoldX(foldX float64, srcH int) float64 {
	topX, _ := t.Apply(foldX, 0)
	botX, _ := t.Apply(foldX, float64(srcH-1))
	x := (topX + botX) / 2
	return utils.ClampFloat(x, 0, float64(t.Width-1))
}

// Correct warps the page quad onto an axis-aligned rectangle. The output is
// sized from the quad's average edge lengths plus borderPx of margin on
// every side, so content that slightly overruns the detected boundary
// survives. A degenerate quad or unsolvable homography yields ok=false;
// that is a recoverable condition, not an error.
func Correct(img image.Image, quad boundary.Quad, borderPx int) (image.Image, Transform, bool) {
	if img == nil {
		return nil, Transform{}, false
	}
	if borderPx < 0 {
		borderPx = 0
	}

	avgW := quad.Width()
	avgH := quad.Height()
	if avgW <= 1 || avgH <= 1 {
		return nil, Transform{}, false
	}

	dstW := int(math.Round(avgW)) + 2*borderPx
	dstH := int(math.Round(avgH)) + 2*borderPx
	fb := float64(borderPx)

	// Inner rectangle the quad corners land on.
	inner := [4]utils.Point{
		{X: fb, Y: fb},
		{X: fb + avgW - 1, Y: fb},
		{X: fb + avgW - 1, Y: fb + avgH - 1},
		{X: fb, Y: fb + avgH - 1},
	}
	src, ok := quadCorners(quad.Points())
	if !ok {
		return nil, Transform{}, false
	}

	forward, ok := computeHomography(src, inner)
	if !ok {
		return nil, Transform{}, false
	}
	inverse, ok := computeHomography(inner, src)
	if !ok {
		return nil, Transform{}, false
	}

	dst := warpPerspective(img, inverse, dstW, dstH)
	if dst == nil {
		return nil, Transform{}, false
	}
	return dst, Transform{forward: forward, Width: dstW, Height: dstH}, true
}
