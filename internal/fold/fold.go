// Package fold estimates the x position of a book fold (the spine shadow)
// inside a rectified document photo. Two independent estimators are
// provided: a brightness-profile trough finder and a near-vertical line
// cluster detector. DetectBest arbitrates between them across the image
// regions where a fold can plausibly sit.
package fold

import (
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// Method identifies which estimator produced a candidate.
type Method string

const (
	MethodBrightness  Method = "brightness_profile"
	MethodLineCluster Method = "line_cluster"
)

// Region restricts the horizontal search band.
type Region int

const (
	RegionCenter Region = iota
	RegionLeft
	RegionRight
)

func (r Region) String() string {
	switch r {
	case RegionLeft:
		return "left"
	case RegionRight:
		return "right"
	default:
		return "center"
	}
}

// Edge band width as a fraction of the image; folds near a page edge sit in
// the outer third.
const edgeBandRatio = 0.33

// Candidate is one fold estimate: an x coordinate in image space with a
// quality score in [0, 1].
type Candidate struct {
	X       int
	Quality float64
	Method  Method
}

// Params tunes both estimators. Zero values are replaced by the defaults
// from DefaultParams.
type Params struct {
	// CenterSearchRatio is the width of the central band as a fraction of
	// the image width.
	CenterSearchRatio float64

	// Brightness profile estimator.
	SampleRows   int     // rows sampled for the profile
	OutlierSigma float64 // row rejection threshold in standard deviations
	SmoothKernel int     // Gaussian kernel size for profile smoothing
	RefineWindow int     // half-width of the parabolic refinement window

	// Line cluster estimator.
	EdgeThreshold      float64 // gradient magnitude threshold
	VoteThreshold      int     // minimum Hough votes for a line
	MaxAngleDeg        float64 // max off-vertical angle considered
	MinLineLengthRatio float64 // min segment length as a fraction of height
	MaxGapRatio        float64 // max gap inside a segment as a fraction of height
	ClusterWidthRatio  float64 // single-linkage distance as a fraction of width
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		CenterSearchRatio:  0.30,
		SampleRows:         40,
		OutlierSigma:       1.5,
		SmoothKernel:       11,
		RefineWindow:       15,
		EdgeThreshold:      150,
		VoteThreshold:      80,
		MaxAngleDeg:        15,
		MinLineLengthRatio: 0.4,
		MaxGapRatio:        0.1,
		ClusterWidthRatio:  0.02,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.CenterSearchRatio <= 0 {
		p.CenterSearchRatio = d.CenterSearchRatio
	}
	if p.SampleRows <= 0 {
		p.SampleRows = d.SampleRows
	}
	if p.OutlierSigma <= 0 {
		p.OutlierSigma = d.OutlierSigma
	}
	if p.SmoothKernel <= 0 {
		p.SmoothKernel = d.SmoothKernel
	}
	if p.RefineWindow <= 0 {
		p.RefineWindow = d.RefineWindow
	}
	if p.EdgeThreshold <= 0 {
		p.EdgeThreshold = d.EdgeThreshold
	}
	if p.VoteThreshold <= 0 {
		p.VoteThreshold = d.VoteThreshold
	}
	if p.MaxAngleDeg <= 0 {
		p.MaxAngleDeg = d.MaxAngleDeg
	}
	if p.MinLineLengthRatio <= 0 {
		p.MinLineLengthRatio = d.MinLineLengthRatio
	}
	if p.MaxGapRatio <= 0 {
		p.MaxGapRatio = d.MaxGapRatio
	}
	if p.ClusterWidthRatio <= 0 {
		p.ClusterWidthRatio = d.ClusterWidthRatio
	}
	return p
}

// band returns the half-open column range [x0, x1) searched for the region.
func (r Region) band(width int, centerRatio float64) (int, int) {
	w := float64(width)
	switch r {
	case RegionLeft:
		return 0, int(w * edgeBandRatio)
	case RegionRight:
		return int(w * (1 - edgeBandRatio)), width
	default:
		half := centerRatio / 2
		x0 := int(w * (0.5 - half))
		x1 := int(w * (0.5 + half))
		return utils.ClampInt(x0, 0, width), utils.ClampInt(x1, 0, width)
	}
}

// DetectBest runs both estimators over the center, left and right bands and
// returns the highest-quality candidate. ok=false when no estimator finds a
// fold anywhere.
func DetectBest(gray *utils.Gray, p Params) (Candidate, bool) {
	p = p.withDefaults()
	best := Candidate{Quality: -1}
	found := false
	for _, region := range []Region{RegionCenter, RegionLeft, RegionRight} {
		if c, ok := DetectBrightness(gray, region, p); ok && c.Quality > best.Quality {
			best = c
			found = true
		}
		if c, ok := DetectLineCluster(gray, region, p); ok && c.Quality > best.Quality {
			best = c
			found = true
		}
	}
	if !found {
		return Candidate{}, false
	}
	return best, true
}
