package process

import (
	"image"

	"github.com/dodogabrie/image-processing-leggio/internal/classify"
	"github.com/dodogabrie/image-processing-leggio/internal/rectify"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// partialProcessor handles photos where the fold hugs a page edge: the
// visible page is corrected and the sliver beyond the fold cropped away by
// keeping a fixed fraction on the opposite side.
type partialProcessor struct {
	cfg Config
}

func (p *partialProcessor) Process(img image.Image, cls classify.Result) Result {
	if !cls.HasBoundary {
		return fallback(img, "no_page_boundary")
	}
	corrected, _, ok := rectify.Correct(img, cls.Quad, p.cfg.ContourBorder)
	if !ok {
		return fallback(img, "perspective_correction_failed")
	}

	w := corrected.Bounds().Dx()
	h := corrected.Bounds().Dy()
	keep := int(float64(w) * partialKeepRatio)
	if keep < 1 {
		keep = 1
	}

	var crop image.Rectangle
	if cls.Type == classify.TypePartialLeft {
		// Fold on the left: the page content is the right side.
		crop = image.Rect(w-keep, 0, w, h)
	} else {
		crop = image.Rect(0, 0, keep, h)
	}

	return Result{
		Processed: utils.CropImageRect(corrected, crop),
		Success:   true,
		Method:    MethodCropAtFold,
	}
}
