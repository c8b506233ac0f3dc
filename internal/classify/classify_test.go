package classify

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodogabrie/image-processing-leggio/internal/boundary"
	"github.com/dodogabrie/image-processing-leggio/internal/fold"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

func pageQuad(x0, y0, x1, y1 float64) boundary.Quad {
	return boundary.Quad{
		TL: utils.Point{X: x0, Y: y0},
		TR: utils.Point{X: x1, Y: y0},
		BR: utils.Point{X: x1, Y: y1},
		BL: utils.Point{X: x0, Y: y1},
	}
}

func TestClassifyNoBoundary(t *testing.T) {
	res := Classify(1920, 1080, boundary.Quad{}, false,
		fold.Candidate{X: 960, Quality: 0.9}, true, DefaultConfig())
	assert.Equal(t, TypeUnknown, res.Type)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, "no_page_boundary", res.Diagnostics["reason"])
}

func TestClassifyNoFoldIsSinglePage(t *testing.T) {
	quad := pageQuad(100, 100, 1800, 1000)
	res := Classify(1920, 1080, quad, true, fold.Candidate{}, false, DefaultConfig())
	assert.Equal(t, TypeSingle, res.Type)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.False(t, res.HasFold)
}

func TestClassifyWeakFoldIsSinglePage(t *testing.T) {
	quad := pageQuad(100, 100, 1800, 1000)
	weak := fold.Candidate{X: 950, Quality: 0.3, Method: fold.MethodBrightness}
	res := Classify(1920, 1080, quad, true, weak, true, DefaultConfig())
	assert.Equal(t, TypeSingle, res.Type)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.Equal(t, "fold_quality_below_threshold", res.Diagnostics["reason"])
}

func TestClassifyCentralFoldIsBookSpread(t *testing.T) {
	quad := pageQuad(100, 100, 1800, 1000)
	cand := fold.Candidate{X: 950, Quality: 0.9, Method: fold.MethodBrightness}
	res := Classify(1920, 1080, quad, true, cand, true, DefaultConfig())
	require.Equal(t, TypeBookSpread, res.Type)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.InDelta(t, 0.5, res.FoldRatio, 0.01)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "brightness_profile", res.Diagnostics["fold_method"])
}

func TestClassifySpreadWithFullFrameBoundaryIsPenalized(t *testing.T) {
	// Boundary covering ~92% of the frame triggers the coverage warning.
	quad := pageQuad(20, 20, 1900, 1060)
	cand := fold.Candidate{X: 960, Quality: 0.9, Method: fold.MethodBrightness}
	res := Classify(1920, 1080, quad, true, cand, true, DefaultConfig())
	require.Equal(t, TypeBookSpread, res.Type)
	assert.InDelta(t, 0.9*0.7, res.Confidence, 1e-9)
	assert.NotEmpty(t, res.Warnings)
}

func TestClassifyEdgeFoldsArePartialSpreads(t *testing.T) {
	quad := pageQuad(0, 0, 1000, 800)

	left := fold.Candidate{X: 50, Quality: 0.85, Method: fold.MethodLineCluster}
	res := Classify(1200, 900, quad, true, left, true, DefaultConfig())
	assert.Equal(t, TypePartialLeft, res.Type)
	assert.Equal(t, "left", res.Diagnostics["fold_side"])
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)

	right := fold.Candidate{X: 950, Quality: 0.85, Method: fold.MethodLineCluster}
	res = Classify(1200, 900, quad, true, right, true, DefaultConfig())
	assert.Equal(t, TypePartialRight, res.Type)
	assert.Equal(t, "right", res.Diagnostics["fold_side"])
}

func TestClassifyAmbiguousFoldPosition(t *testing.T) {
	quad := pageQuad(0, 0, 1000, 800)
	cand := fold.Candidate{X: 300, Quality: 0.8, Method: fold.MethodBrightness} // ratio 0.3
	res := Classify(1200, 900, quad, true, cand, true, DefaultConfig())
	assert.Equal(t, TypeUnknown, res.Type)
	assert.InDelta(t, 0.4, res.Confidence, 1e-9)
	assert.Equal(t, "ambiguous_fold_position", res.Diagnostics["reason"])
}

func TestClassifyZeroConfigUsesDefaults(t *testing.T) {
	quad := pageQuad(100, 100, 1800, 1000)
	cand := fold.Candidate{X: 950, Quality: 0.9}
	res := Classify(1920, 1080, quad, true, cand, true, Config{})
	assert.Equal(t, TypeBookSpread, res.Type)
}

func TestDocumentTypeString(t *testing.T) {
	assert.Equal(t, "single", TypeSingle.String())
	assert.Equal(t, "book_spread", TypeBookSpread.String())
	assert.Equal(t, "partial_left", TypePartialLeft.String())
	assert.Equal(t, "partial_right", TypePartialRight.String())
	assert.Equal(t, "unknown", TypeUnknown.String())
	assert.Equal(t, "unknown", DocumentType(99).String())
}

// Every fold ratio in [0,1] must land in exactly one zone.
func TestZonePartitionIsExhaustiveAndExclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	quad := pageQuad(0, 0, 1000, 800)

	properties.Property("each ratio maps to exactly one type", prop.ForAll(
		func(ratio float64) bool {
			cand := fold.Candidate{X: int(ratio * 1000), Quality: 0.9}
			res := Classify(1200, 900, quad, true, cand, true, DefaultConfig())
			switch res.Type {
			case TypeBookSpread:
				return res.FoldRatio >= 0.4 && res.FoldRatio <= 0.6
			case TypePartialLeft:
				return res.FoldRatio < 0.2
			case TypePartialRight:
				return res.FoldRatio > 0.8
			case TypeUnknown:
				return (res.FoldRatio >= 0.2 && res.FoldRatio < 0.4) ||
					(res.FoldRatio > 0.6 && res.FoldRatio <= 0.8)
			default:
				return false
			}
		},
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
