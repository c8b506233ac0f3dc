package rectify

import (
	"image"
	"image/color"

	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// warpPerspective renders a dstW x dstH image by mapping every destination
// pixel through the dst->src homography and bilinear-sampling the source.
func warpPerspective(src image.Image, dstToSrc [9]float64, dstW, dstH int) *image.RGBA {
	if dstW <= 0 || dstH <= 0 {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	sb := src.Bounds()
	for y := range dstH {
		for x := range dstW {
			sx, sy := applyHomography(dstToSrc, float64(x), float64(y))
			out.Set(x, y, bilinearSample(src, sx+float64(sb.Min.X), sy+float64(sb.Min.Y)))
		}
	}
	return out
}

func bilinearSample(src image.Image, x, y float64) color.Color {
	// Samples outside the source are black.
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.RGBA{0, 0, 0, 255}
	}
	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)
	c00 := toRGBA(src.At(x0, y0))
	c10 := toRGBA(src.At(x1, y0))
	c01 := toRGBA(src.At(x0, y1))
	c11 := toRGBA(src.At(x1, y1))
	r := lerp(lerp(c00.R, c10.R, fx), lerp(c01.R, c11.R, fx), fy)
	g := lerp(lerp(c00.G, c10.G, fx), lerp(c01.G, c11.G, fx), fy)
	bl := lerp(lerp(c00.B, c10.B, fx), lerp(c01.B, c11.B, fx), fy)
	a := lerp(lerp(c00.A, c10.A, fx), lerp(c01.A, c11.A, fx), fy)
	return color.RGBA{uint8(r + 0.5), uint8(g + 0.5), uint8(bl + 0.5), uint8(a + 0.5)}
}

type rgba struct{ R, G, B, A float64 }

func toRGBA(c color.Color) rgba {
	r, g, b, a := c.RGBA()
	return rgba{R: float64(r >> 8), G: float64(g >> 8), B: float64(b >> 8), A: float64(a >> 8)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// quadCorners converts a slice of 4 points to the fixed-size array
// computeHomography wants.
func quadCorners(pts []utils.Point) ([4]utils.Point, bool) {
	var out [4]utils.Point
	if len(pts) != 4 {
		return out, false
	}
	copy(out[:], pts)
	return out, true
}
