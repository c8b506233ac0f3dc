// Package classify decides what kind of document a photo shows, based on
// the detected page boundary and fold candidate: a single page, an open book
// spread, or a partial spread where the fold sits near a page edge.
package classify

import (
	"github.com/dodogabrie/image-processing-leggio/internal/boundary"
	"github.com/dodogabrie/image-processing-leggio/internal/fold"
)

// DocumentType is the classified layout of a scanned photo.
type DocumentType int

const (
	TypeUnknown DocumentType = iota
	TypeSingle
	TypeBookSpread
	TypePartialLeft
	TypePartialRight
)

func (t DocumentType) String() string {
	switch t {
	case TypeSingle:
		return "single"
	case TypeBookSpread:
		return "book_spread"
	case TypePartialLeft:
		return "partial_left"
	case TypePartialRight:
		return "partial_right"
	default:
		return "unknown"
	}
}

// Fold position zones, as fractions of the page width.
const (
	partialLow = 0.2
	spreadLow  = 0.4
	spreadHigh = 0.6
	partialHigh = 0.8
)

const (
	// coverageWarnThreshold marks boundaries that swallow nearly the whole
	// frame; those usually mean the desk was detected instead of the page.
	coverageWarnThreshold = 0.85
	spreadCoveragePenalty = 0.7

	singleConfidence = 0.8
	ambiguousPenalty = 0.5
)

// Config tunes classification.
type Config struct {
	// QualityThreshold is the minimum fold quality for the fold to count;
	// weaker candidates demote the photo to a single page.
	QualityThreshold float64
}

// DefaultConfig returns the tuned classification defaults.
func DefaultConfig() Config {
	return Config{QualityThreshold: 0.6}
}

// Result is the classification outcome with everything downstream
// processing and reporting needs.
type Result struct {
	Type       DocumentType
	Confidence float64

	Quad        boundary.Quad
	HasBoundary bool

	Fold      fold.Candidate
	HasFold   bool
	FoldRatio float64

	Warnings    []string
	Diagnostics map[string]any
}

// Classify applies the zone policy: a fold in the central band makes a book
// spread, a fold hugging either edge makes a partial spread, anything in
// between is ambiguous. Without a valid boundary nothing can be said;
// without a usable fold the photo is a single page.
func Classify(imgW, imgH int, quad boundary.Quad, quadOK bool,
	cand fold.Candidate, candOK bool, cfg Config,
) Result {
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = DefaultConfig().QualityThreshold
	}

	diag := map[string]any{}
	res := Result{Type: TypeUnknown, Diagnostics: diag}

	if !quadOK {
		res.Reason("no_page_boundary")
		return res
	}
	res.Quad = quad
	res.HasBoundary = true

	b := quad.Bounds()
	diag["page_width"] = b.Width()
	diag["page_center_x"] = b.MinX + b.Width()/2
	diag["page_coverage"] = quad.Coverage(imgW, imgH)

	if !candOK || cand.Quality < cfg.QualityThreshold {
		res.Type = TypeSingle
		res.Confidence = singleConfidence
		if candOK {
			res.recordFold(quad, cand)
			diag["reason"] = "fold_quality_below_threshold"
		}
		return res
	}

	res.recordFold(quad, cand)
	ratio := res.FoldRatio
	coverage := quad.Coverage(imgW, imgH)

	switch {
	case ratio >= spreadLow && ratio <= spreadHigh:
		res.Type = TypeBookSpread
		res.Confidence = cand.Quality
		if coverage >= coverageWarnThreshold {
			res.Warnings = append(res.Warnings,
				"page region covers most of the frame; boundary may be unreliable")
			res.Confidence *= spreadCoveragePenalty
		}
	case ratio < partialLow:
		res.Type = TypePartialLeft
		res.Confidence = cand.Quality
		diag["fold_side"] = "left"
	case ratio > partialHigh:
		res.Type = TypePartialRight
		res.Confidence = cand.Quality
		diag["fold_side"] = "right"
	default:
		res.Type = TypeUnknown
		res.Confidence = cand.Quality * ambiguousPenalty
		res.Reason("ambiguous_fold_position")
	}
	return res
}

// Reason records why classification came up empty or ambiguous.
func (r *Result) Reason(reason string) {
	r.Diagnostics["reason"] = reason
}

func (r *Result) recordFold(quad boundary.Quad, cand fold.Candidate) {
	r.Fold = cand
	r.HasFold = true
	r.FoldRatio = quad.FoldRatio(float64(cand.X))
	r.Diagnostics["fold_x"] = cand.X
	r.Diagnostics["fold_quality"] = cand.Quality
	r.Diagnostics["fold_method"] = string(cand.Method)
	r.Diagnostics["fold_ratio"] = r.FoldRatio
}
