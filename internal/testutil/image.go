// Package testutil builds synthetic document photos for tests: a bright
// page on a dark desk, optionally with a dark spine band where a book fold
// would be.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// DeskColor is the background around the page.
	DeskColor = color.RGBA{R: 35, G: 30, B: 28, A: 255}
	// PageColor is the paper.
	PageColor = color.RGBA{R: 225, G: 222, B: 215, A: 255}
	// SpineColor is the shadow in the book gutter. It sits between desk and
	// paper brightness, like a real gutter shadow under diffuse light.
	SpineColor = color.RGBA{R: 140, G: 135, B: 128, A: 255}
)

// DocumentPhoto renders a w x h photo with the page inset by margin pixels
// on every side. When spineWidth > 0 a vertical spine band of that width is
// drawn centered on spineX (absolute image coordinate).
func DocumentPhoto(w, h, margin, spineX, spineWidth int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	page := image.Rect(margin, margin, w-margin, h-margin)
	half := spineWidth / 2
	for y := range h {
		for x := range w {
			switch {
			case !image.Pt(x, y).In(page):
				img.Set(x, y, DeskColor)
			case spineWidth > 0 && x >= spineX-half && x < spineX+spineWidth-half:
				img.Set(x, y, SpineColor)
			default:
				img.Set(x, y, PageColor)
			}
		}
	}
	return img
}

// FlatPagePhoto renders a photo of a single page without a spine.
func FlatPagePhoto(w, h, margin int) *image.RGBA {
	return DocumentPhoto(w, h, margin, 0, 0)
}

// SaveTempPNG writes img as a PNG under t.TempDir and returns its path.
func SaveTempPNG(t *testing.T, img image.Image, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path) //nolint:gosec // G304: path is inside t.TempDir
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, png.Encode(f, img))
	return path
}
