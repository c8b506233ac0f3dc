package process

import (
	"image"

	"github.com/dodogabrie/image-processing-leggio/internal/classify"
	"github.com/dodogabrie/image-processing-leggio/internal/rectify"
)

// singleProcessor perspective-corrects a single page.
type singleProcessor struct {
	cfg Config
}

func (p *singleProcessor) Process(img image.Image, cls classify.Result) Result {
	if !cls.HasBoundary {
		return fallback(img, "no_page_boundary")
	}
	corrected, _, ok := rectify.Correct(img, cls.Quad, p.cfg.ContourBorder)
	if !ok {
		return fallback(img, "perspective_correction_failed")
	}
	return Result{
		Processed: corrected,
		Success:   true,
		Method:    MethodPerspectiveCorrection,
	}
}
