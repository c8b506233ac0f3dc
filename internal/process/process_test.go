package process

import (
	"image"
	"image/color"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodogabrie/image-processing-leggio/internal/boundary"
	"github.com/dodogabrie/image-processing-leggio/internal/classify"
	"github.com/dodogabrie/image-processing-leggio/internal/fold"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	return img
}

func quadFor(x0, y0, x1, y1 float64) boundary.Quad {
	return boundary.Quad{
		TL: utils.Point{X: x0, Y: y0},
		TR: utils.Point{X: x1, Y: y0},
		BR: utils.Point{X: x1, Y: y1},
		BL: utils.Point{X: x0, Y: y1},
	}
}

func classified(t classify.DocumentType, quad boundary.Quad, foldX int, quality float64) classify.Result {
	return classify.Result{
		Type:        t,
		Quad:        quad,
		HasBoundary: true,
		Fold:        fold.Candidate{X: foldX, Quality: quality, Method: fold.MethodBrightness},
		HasFold:     quality > 0,
		Diagnostics: map[string]any{},
	}
}

func TestForType(t *testing.T) {
	cfg := DefaultConfig()
	assert.IsType(t, &singleProcessor{}, ForType(classify.TypeSingle, cfg))
	assert.IsType(t, &spreadProcessor{}, ForType(classify.TypeBookSpread, cfg))
	assert.IsType(t, &partialProcessor{}, ForType(classify.TypePartialLeft, cfg))
	assert.IsType(t, &partialProcessor{}, ForType(classify.TypePartialRight, cfg))
	assert.IsType(t, &passthroughProcessor{}, ForType(classify.TypeUnknown, cfg))
}

func TestPassthroughKeepsOriginal(t *testing.T) {
	img := testImage(100, 80)
	cls := classify.Result{Type: classify.TypeUnknown,
		Diagnostics: map[string]any{"reason": "no_page_boundary"}}
	res := ForType(classify.TypeUnknown, DefaultConfig()).Process(img, cls)
	assert.False(t, res.Success)
	assert.Equal(t, MethodFallbackOriginal, res.Method)
	assert.Equal(t, "no_page_boundary", res.Reason)
	assert.Same(t, image.Image(img), res.Processed)
}

func TestSingleProcessorCorrects(t *testing.T) {
	img := testImage(400, 300)
	quad := quadFor(50, 40, 349, 259)
	cls := classified(classify.TypeSingle, quad, 0, 0)

	cfg := Config{ContourBorder: 20, FoldBorder: 50, QualityThreshold: 0.6}
	res := ForType(classify.TypeSingle, cfg).Process(img, cls)
	require.True(t, res.Success)
	assert.Equal(t, MethodPerspectiveCorrection, res.Method)
	assert.Equal(t, 299+40, res.Processed.Bounds().Dx())
	assert.Equal(t, 219+40, res.Processed.Bounds().Dy())
	assert.Nil(t, res.Left)
	assert.Nil(t, res.Right)
}

func TestSingleProcessorFallsBackOnDegenerateQuad(t *testing.T) {
	img := testImage(400, 300)
	cls := classified(classify.TypeSingle, boundary.Quad{}, 0, 0)
	res := ForType(classify.TypeSingle, DefaultConfig()).Process(img, cls)
	assert.False(t, res.Success)
	assert.Equal(t, MethodFallbackOriginal, res.Method)
	assert.Equal(t, "perspective_correction_failed", res.Reason)
	assert.Same(t, image.Image(img), res.Processed)
}

func TestSpreadProcessorSplitsAtFold(t *testing.T) {
	img := testImage(1600, 800)
	quad := quadFor(100, 50, 1499, 749)
	cls := classified(classify.TypeBookSpread, quad, 800, 0.9)

	cfg := Config{ContourBorder: 20, FoldBorder: 50, QualityThreshold: 0.6}
	res := ForType(classify.TypeBookSpread, cfg).Process(img, cls)
	require.True(t, res.Success)
	assert.Equal(t, MethodSplitAtFold, res.Method)
	require.NotNil(t, res.Left)
	require.NotNil(t, res.Right)

	w := res.Processed.Bounds().Dx()
	leftW := res.Left.Bounds().Dx()
	rightW := res.Right.Bounds().Dx()
	// Overlap invariant: the halves re-cover the page plus twice the border.
	assert.Equal(t, w+2*cfg.FoldBorder, leftW+rightW)
}

func TestSpreadProcessorLowQualityFoldStaysUnsplit(t *testing.T) {
	img := testImage(1600, 800)
	quad := quadFor(100, 50, 1499, 749)
	cls := classified(classify.TypeBookSpread, quad, 800, 0.3)

	res := ForType(classify.TypeBookSpread, DefaultConfig()).Process(img, cls)
	require.True(t, res.Success)
	assert.Equal(t, MethodNoSplitLowQuality, res.Method)
	assert.Nil(t, res.Left)
	assert.Nil(t, res.Right)
	assert.NotEmpty(t, res.Warnings)
}

func TestSpreadProcessorNoFold(t *testing.T) {
	img := testImage(1600, 800)
	quad := quadFor(100, 50, 1499, 749)
	cls := classified(classify.TypeBookSpread, quad, 0, 0)
	cls.HasFold = false

	res := ForType(classify.TypeBookSpread, DefaultConfig()).Process(img, cls)
	assert.False(t, res.Success)
	assert.Equal(t, "no_fold_detected", res.Reason)
}

func TestSplitOverlapProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	img := testImage(1200, 600)
	quad := quadFor(50, 50, 1149, 549)

	properties.Property("halves cover width plus twice the fold border", prop.ForAll(
		func(foldX int, border int) bool {
			cfg := Config{ContourBorder: 10, FoldBorder: border, QualityThreshold: 0.6}
			cls := classified(classify.TypeBookSpread, quad, foldX, 0.95)
			res := ForType(classify.TypeBookSpread, cfg).Process(img, cls)
			if res.Method != MethodSplitAtFold {
				return true // fold too close to an edge, legitimately unsplit
			}
			w := res.Processed.Bounds().Dx()
			sum := res.Left.Bounds().Dx() + res.Right.Bounds().Dx()
			if border > 0 && sum <= w {
				return false
			}
			return sum <= w+2*border
		},
		gen.IntRange(300, 900),
		gen.IntRange(0, 120),
	))

	properties.TestingRun(t)
}

func TestPartialProcessorCropsOppositeSide(t *testing.T) {
	img := testImage(800, 600)
	quad := quadFor(50, 50, 749, 549)
	cfg := Config{ContourBorder: 0, FoldBorder: 50, QualityThreshold: 0.6}

	left := classified(classify.TypePartialLeft, quad, 60, 0.9)
	res := ForType(classify.TypePartialLeft, cfg).Process(img, left)
	require.True(t, res.Success)
	assert.Equal(t, MethodCropAtFold, res.Method)
	fullW := 699 // corrected width without borders
	assert.InDelta(t, float64(fullW)*0.75, float64(res.Processed.Bounds().Dx()), 1)

	right := classified(classify.TypePartialRight, quad, 740, 0.9)
	res = ForType(classify.TypePartialRight, cfg).Process(img, right)
	require.True(t, res.Success)
	assert.InDelta(t, float64(fullW)*0.75, float64(res.Processed.Bounds().Dx()), 1)
}

func TestPartialProcessorFallsBack(t *testing.T) {
	img := testImage(800, 600)
	cls := classified(classify.TypePartialLeft, boundary.Quad{}, 60, 0.9)
	res := ForType(classify.TypePartialLeft, DefaultConfig()).Process(img, cls)
	assert.False(t, res.Success)
	assert.Equal(t, MethodFallbackOriginal, res.Method)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 150, cfg.ContourBorder)
	assert.Equal(t, 150, cfg.FoldBorder)
	assert.InDelta(t, 0.6, cfg.QualityThreshold, 1e-9)
}
