// Package process turns a classified document photo into output pages:
// perspective-corrected singles, split book spreads, and cropped partial
// spreads. Processors degrade to the original image instead of failing.
package process

import (
	"image"

	"github.com/dodogabrie/image-processing-leggio/internal/classify"
)

// Processing method names reported in results.
const (
	MethodPerspectiveCorrection = "perspective_correction"
	MethodSplitAtFold           = "split_at_fold"
	MethodNoSplitLowQuality     = "no_split_low_quality"
	MethodCropAtFold            = "crop_at_fold"
	MethodFallbackOriginal      = "fallback_original"
)

// partialKeepRatio is the fraction of the corrected page kept when cropping
// a partial spread on the side opposite the fold.
const partialKeepRatio = 0.75

// Config tunes the processors.
type Config struct {
	// ContourBorder is the margin in pixels kept around the corrected page.
	ContourBorder int
	// FoldBorder is the overlap in pixels each half keeps past the fold
	// when splitting a spread.
	FoldBorder int
	// QualityThreshold is the minimum fold quality required to split.
	QualityThreshold float64
}

// DefaultConfig returns the tuned processing defaults.
func DefaultConfig() Config {
	return Config{
		ContourBorder:    150,
		FoldBorder:       150,
		QualityThreshold: 0.6,
	}
}

// Result is the outcome of processing one photo. Processed always holds an
// image; on failure it is the untouched original and Reason says why.
type Result struct {
	Processed image.Image
	Left      image.Image
	Right     image.Image
	Success   bool
	Method    string
	Warnings  []string
	Reason    string
}

// Processor produces output pages for one document type.
type Processor interface {
	Process(img image.Image, cls classify.Result) Result
}

// ForType returns the processor for a classified document type.
func ForType(t classify.DocumentType, cfg Config) Processor {
	switch t {
	case classify.TypeSingle:
		return &singleProcessor{cfg: cfg}
	case classify.TypeBookSpread:
		return &spreadProcessor{cfg: cfg}
	case classify.TypePartialLeft, classify.TypePartialRight:
		return &partialProcessor{cfg: cfg}
	default:
		return &passthroughProcessor{}
	}
}

// passthroughProcessor returns the original image untouched, for photos
// that could not be classified.
type passthroughProcessor struct{}

func (p *passthroughProcessor) Process(img image.Image, cls classify.Result) Result {
	reason := "unclassified_document"
	if r, ok := cls.Diagnostics["reason"].(string); ok {
		reason = r
	}
	return Result{
		Processed: img,
		Method:    MethodFallbackOriginal,
		Reason:    reason,
	}
}

func fallback(img image.Image, reason string) Result {
	return Result{
		Processed: img,
		Method:    MethodFallbackOriginal,
		Reason:    reason,
	}
}
