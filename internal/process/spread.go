package process

import (
	"image"
	"math"

	"github.com/dodogabrie/image-processing-leggio/internal/classify"
	"github.com/dodogabrie/image-processing-leggio/internal/rectify"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// spreadProcessor corrects an open book spread and splits it at the fold
// into overlapping left and right pages.
type spreadProcessor struct {
	cfg Config
}

func (p *spreadProcessor) Process(img image.Image, cls classify.Result) Result {
	if !cls.HasBoundary {
		return fallback(img, "no_page_boundary")
	}
	corrected, tr, ok := rectify.Correct(img, cls.Quad, p.cfg.ContourBorder)
	if !ok {
		return fallback(img, "perspective_correction_failed")
	}
	if !cls.HasFold {
		return fallback(img, "no_fold_detected")
	}

	if cls.Fold.Quality < p.cfg.QualityThreshold {
		return Result{
			Processed: corrected,
			Success:   true,
			Method:    MethodNoSplitLowQuality,
			Warnings:  []string{"fold quality below split threshold; keeping spread unsplit"},
		}
	}

	srcB := img.Bounds()
	foldX := tr.MapFoldX(float64(cls.Fold.X), srcB.Dy())
	w := corrected.Bounds().Dx()
	h := corrected.Bounds().Dy()
	border := p.cfg.FoldBorder

	// Overlapping halves: each page keeps border pixels past the fold so
	// gutter content is never lost.
	leftEnd := utils.ClampInt(int(math.Round(foldX))+border, 0, w)
	rightStart := utils.ClampInt(int(math.Round(foldX))-border, 0, w)

	left := utils.CropImageRect(corrected, image.Rect(0, 0, leftEnd, h))
	right := utils.CropImageRect(corrected, image.Rect(rightStart, 0, w, h))
	if left.Bounds().Dx() == 0 || right.Bounds().Dx() == 0 {
		return Result{
			Processed: corrected,
			Success:   true,
			Method:    MethodNoSplitLowQuality,
			Warnings:  []string{"fold too close to the page edge; keeping spread unsplit"},
		}
	}

	return Result{
		Processed: corrected,
		Left:      left,
		Right:     right,
		Success:   true,
		Method:    MethodSplitAtFold,
	}
}
