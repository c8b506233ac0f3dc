package scanner

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// RenderOverlay draws the detected page boundary and fold line over a copy
// of the source image, for visual inspection of batch runs. Returns nil
// when there is nothing to draw.
func RenderOverlay(img image.Image, res Result) *image.RGBA {
	if img == nil || (!res.HasBoundary && !res.HasFold) {
		return nil
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	if res.HasBoundary {
		green := color.RGBA{G: 255, A: 255}
		utils.DrawPolygon(out, res.Quad.Points(), green, 3)
	}
	if res.HasFold {
		red := color.RGBA{R: 255, A: 255}
		utils.DrawLine(out,
			image.Pt(res.Fold.X, 0),
			image.Pt(res.Fold.X, b.Dy()-1),
			red, 3)
	}
	return out
}
