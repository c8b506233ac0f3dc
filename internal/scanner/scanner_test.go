package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodogabrie/image-processing-leggio/internal/classify"
	"github.com/dodogabrie/image-processing-leggio/internal/process"
	"github.com/dodogabrie/image-processing-leggio/internal/testutil"
)

func TestScanBookSpread(t *testing.T) {
	img := testutil.DocumentPhoto(1920, 1080, 100, 960, 40)
	s := New().WithContourBorder(20).WithFoldBorder(50)

	res := s.Scan(img)
	require.Equal(t, classify.TypeBookSpread, res.Type)
	require.True(t, res.Success)
	assert.Equal(t, process.MethodSplitAtFold, res.Method)
	require.True(t, res.Split())

	ratio, ok := res.Diagnostics["fold_ratio"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 0.05)
	assert.InDelta(t, 960, res.Fold.X, 20)

	w := res.Processed.Bounds().Dx()
	assert.Equal(t, w+2*50, res.Left.Bounds().Dx()+res.Right.Bounds().Dx())
}

func TestScanFlatPageIsSingle(t *testing.T) {
	img := testutil.FlatPagePhoto(960, 720, 60)
	res := New().WithContourBorder(10).Scan(img)

	require.Equal(t, classify.TypeSingle, res.Type)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.True(t, res.Success)
	assert.Equal(t, process.MethodPerspectiveCorrection, res.Method)
	assert.False(t, res.Split())
}

func TestScanPartialLeft(t *testing.T) {
	img := testutil.DocumentPhoto(960, 720, 60, 95, 24)
	res := New().WithContourBorder(10).Scan(img)

	require.Equal(t, classify.TypePartialLeft, res.Type)
	assert.True(t, res.Success)
	assert.Equal(t, process.MethodCropAtFold, res.Method)
	assert.Equal(t, "left", res.Diagnostics["fold_side"])
}

func TestScanPartialRight(t *testing.T) {
	img := testutil.DocumentPhoto(960, 720, 60, 865, 24)
	res := New().WithContourBorder(10).Scan(img)

	require.Equal(t, classify.TypePartialRight, res.Type)
	assert.Equal(t, process.MethodCropAtFold, res.Method)
	assert.Equal(t, "right", res.Diagnostics["fold_side"])
}

func TestScanNilImage(t *testing.T) {
	res := New().Scan(nil)
	assert.Equal(t, classify.TypeUnknown, res.Type)
	assert.False(t, res.Success)
	assert.Equal(t, "nil_image", res.Diagnostics["reason"])
}

func TestScanUniformImageHasNoBoundary(t *testing.T) {
	img := testutil.FlatPagePhoto(200, 200, 0) // page fills the frame
	res := New().Scan(img)
	assert.Equal(t, classify.TypeUnknown, res.Type)
	assert.False(t, res.Success)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, "no_page_boundary", res.Diagnostics["reason"])
}

func TestScanIsIdempotent(t *testing.T) {
	img := testutil.DocumentPhoto(960, 720, 60, 480, 24)
	s := New().WithContourBorder(10).WithFoldBorder(40)

	first := s.Scan(img)
	second := s.Scan(img)

	assert.Equal(t, first.Type, second.Type)
	assert.Equal(t, first.Confidence, second.Confidence) // bitwise
	assert.Equal(t, first.Method, second.Method)
	assert.Equal(t, first.Warnings, second.Warnings)
	assert.Equal(t, first.Fold.X, second.Fold.X)
}

func TestScannerBuilderSetters(t *testing.T) {
	s := New().
		WithQualityThreshold(0.7).
		WithContourBorder(30).
		WithFoldBorder(40).
		WithCenterSearchRatio(0.2).
		WithDebug(true)

	cfg := s.Config()
	assert.InDelta(t, 0.7, cfg.QualityThreshold, 1e-9)
	assert.Equal(t, 30, cfg.ContourBorder)
	assert.Equal(t, 40, cfg.FoldBorder)
	assert.InDelta(t, 0.2, cfg.CenterSearchRatio, 1e-9)
	assert.True(t, cfg.Debug)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.QualityThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ContourBorder = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.CenterSearchRatio = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.JPEGQuality = 101
	assert.Error(t, bad.Validate())
}

func TestRenderOverlay(t *testing.T) {
	img := testutil.DocumentPhoto(400, 300, 30, 200, 12)
	s := New().WithContourBorder(5)
	res := s.Scan(img)
	require.True(t, res.HasBoundary)

	ov := RenderOverlay(img, res)
	require.NotNil(t, ov)
	assert.Equal(t, img.Bounds().Dx(), ov.Bounds().Dx())

	assert.Nil(t, RenderOverlay(nil, res))
	assert.Nil(t, RenderOverlay(img, Result{}))
}

func TestResultString(t *testing.T) {
	res := Result{Type: classify.TypeBookSpread, Confidence: 0.87,
		Method: process.MethodSplitAtFold, Success: true}
	s := res.String()
	assert.Contains(t, s, "book_spread")
	assert.Contains(t, s, "split_at_fold")
	assert.Contains(t, s, "0.87")
}
