package boundary

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// pageOnDesk draws a uniform rectangle of pageCol on a deskCol background.
func pageOnDesk(w, h int, page image.Rectangle, deskCol, pageCol color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if image.Pt(x, y).In(page) {
				img.Set(x, y, pageCol)
			} else {
				img.Set(x, y, deskCol)
			}
		}
	}
	return img
}

func TestDetectBrightPageOnDarkDesk(t *testing.T) {
	img := pageOnDesk(200, 150, image.Rect(20, 15, 180, 135),
		color.RGBA{R: 30, G: 30, B: 30, A: 255},
		color.RGBA{R: 220, G: 220, B: 220, A: 255})

	quad, angle, ok := Detect(img)
	require.True(t, ok)
	assert.InDelta(t, 0.0, angle, 2.0)
	assert.InDelta(t, 20, quad.TL.X, 4)
	assert.InDelta(t, 15, quad.TL.Y, 4)
	assert.InDelta(t, 180, quad.BR.X, 4)
	assert.InDelta(t, 135, quad.BR.Y, 4)
}

func TestDetectDarkCoverOnLightDesk(t *testing.T) {
	img := pageOnDesk(200, 150, image.Rect(30, 20, 170, 130),
		color.RGBA{R: 230, G: 230, B: 230, A: 255},
		color.RGBA{R: 40, G: 40, B: 40, A: 255})

	quad, _, ok := Detect(img)
	require.True(t, ok)
	assert.InDelta(t, 30, quad.TL.X, 4)
	assert.InDelta(t, 170, quad.BR.X, 4)
}

func TestDetectRejectsTinyRegion(t *testing.T) {
	// 5% of the frame is below the plausible area range.
	img := pageOnDesk(200, 200, image.Rect(90, 90, 135, 135),
		color.RGBA{R: 30, G: 30, B: 30, A: 255},
		color.RGBA{R: 220, G: 220, B: 220, A: 255})

	_, _, ok := Detect(img)
	assert.False(t, ok)
}

func TestDetectNilAndTinyImages(t *testing.T) {
	_, _, ok := Detect(nil)
	assert.False(t, ok)

	_, _, ok = Detect(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	assert.False(t, ok)
}

func TestDetectPicksLargestRegion(t *testing.T) {
	img := pageOnDesk(300, 200, image.Rect(40, 30, 260, 170),
		color.RGBA{R: 25, G: 25, B: 25, A: 255},
		color.RGBA{R: 210, G: 210, B: 210, A: 255})
	// A small bright speck away from the page must not win.
	for y := 5; y < 12; y++ {
		for x := 5; x < 12; x++ {
			img.Set(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
		}
	}

	quad, _, ok := Detect(img)
	require.True(t, ok)
	assert.Greater(t, quad.Area(), 0.4*300*200)
}

func TestOtsuThresholdSeparatesBimodal(t *testing.T) {
	g := utils.NewGray(10, 10)
	for i := range g.Pix {
		if i%2 == 0 {
			g.Pix[i] = 40
		} else {
			g.Pix[i] = 210
		}
	}
	th := otsuThreshold(g)
	assert.Greater(t, th, 40.0)
	assert.Less(t, th, 210.0)
}

func TestCloseMaskFillsGap(t *testing.T) {
	w, h := 11, 5
	mask := make([]bool, w*h)
	for y := range h {
		for x := range w {
			if x != 5 { // one-column gap
				mask[y*w+x] = true
			}
		}
	}
	closed := closeMask(mask, w, h, 3)
	assert.True(t, closed[2*w+5], "closing should bridge the gap")
}
