// Package scanner ties the scan pipeline together: boundary detection, fold
// estimation, classification and processing, with a never-failing Scan entry
// point and parallel multi-file support.
package scanner

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/dodogabrie/image-processing-leggio/internal/boundary"
	"github.com/dodogabrie/image-processing-leggio/internal/classify"
	"github.com/dodogabrie/image-processing-leggio/internal/fold"
	"github.com/dodogabrie/image-processing-leggio/internal/process"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// Scanner runs the document scan pipeline. Construct with New and tune with
// the WithX setters, which return the scanner for chaining.
type Scanner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Scanner with default configuration.
func New() *Scanner {
	return &Scanner{cfg: DefaultConfig(), logger: slog.Default()}
}

// WithConfig replaces the whole configuration.
func (s *Scanner) WithConfig(cfg Config) *Scanner {
	s.cfg = cfg
	return s
}

// WithQualityThreshold sets the minimum usable fold quality.
func (s *Scanner) WithQualityThreshold(v float64) *Scanner {
	s.cfg.QualityThreshold = v
	return s
}

// WithContourBorder sets the margin kept around the corrected page.
func (s *Scanner) WithContourBorder(px int) *Scanner {
	s.cfg.ContourBorder = px
	return s
}

// WithFoldBorder sets the overlap kept past the fold when splitting.
func (s *Scanner) WithFoldBorder(px int) *Scanner {
	s.cfg.FoldBorder = px
	return s
}

// WithCenterSearchRatio sets the central fold search band width.
func (s *Scanner) WithCenterSearchRatio(r float64) *Scanner {
	s.cfg.CenterSearchRatio = r
	return s
}

// WithDebug toggles per-stage debug logging.
func (s *Scanner) WithDebug(d bool) *Scanner {
	s.cfg.Debug = d
	return s
}

// WithLogger sets the logger used for debug tracing.
func (s *Scanner) WithLogger(l *slog.Logger) *Scanner {
	if l != nil {
		s.logger = l
	}
	return s
}

// Config returns a copy of the current configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Scan runs the full pipeline on one image. It never returns an error: any
// failure, including a panic in a pipeline stage, degrades to an unknown
// document carrying the original image.
func (s *Scanner) Scan(img image.Image) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan panicked", "panic", fmt.Sprint(r))
			res = Result{
				Type:      classify.TypeUnknown,
				Processed: img,
				Method:    process.MethodFallbackOriginal,
				Diagnostics: map[string]any{
					"reason": "internal_panic",
					"panic":  fmt.Sprint(r),
				},
			}
		}
		res.Duration = time.Since(start)
	}()

	if img == nil {
		return Result{
			Type:        classify.TypeUnknown,
			Method:      process.MethodFallbackOriginal,
			Diagnostics: map[string]any{"reason": "nil_image"},
		}
	}
	b := img.Bounds()

	quad, angle, quadOK := boundary.Detect(img)
	if s.cfg.Debug {
		s.logger.Debug("boundary detection",
			"found", quadOK, "angle", angle, "width", b.Dx(), "height", b.Dy())
	}

	// The fold is searched inside the page region only; otherwise the
	// page/desk boundary shows up as a spurious dark trough.
	foldSrc := img
	offsetX := 0
	if quadOK {
		rect := quad.Bounds().ToRect(b)
		// Inset past any boundary overshoot so the page edge itself cannot
		// register as a trough.
		inset := rect.Dx() / 100
		if rect.Dy()/100 < inset {
			inset = rect.Dy() / 100
		}
		if inset < 4 {
			inset = 4
		}
		rect = rect.Inset(inset)
		if rect.Dx() > 0 && rect.Dy() > 0 {
			foldSrc = utils.CropImageRect(img, rect)
			offsetX = rect.Min.X - b.Min.X
		}
	}
	gray := utils.GrayFromImage(foldSrc)
	cand, candOK := fold.DetectBest(gray, fold.Params{CenterSearchRatio: s.cfg.CenterSearchRatio})
	if candOK {
		cand.X += offsetX
	}
	if s.cfg.Debug {
		s.logger.Debug("fold detection",
			"found", candOK, "x", cand.X, "quality", cand.Quality, "method", cand.Method)
	}

	cls := classify.Classify(b.Dx(), b.Dy(), quad, quadOK, cand, candOK,
		classify.Config{QualityThreshold: s.cfg.QualityThreshold})
	if s.cfg.Debug {
		s.logger.Debug("classification",
			"type", cls.Type.String(), "confidence", cls.Confidence, "fold_ratio", cls.FoldRatio)
	}

	pr := process.ForType(cls.Type, process.Config{
		ContourBorder:    s.cfg.ContourBorder,
		FoldBorder:       s.cfg.FoldBorder,
		QualityThreshold: s.cfg.QualityThreshold,
	}).Process(img, cls)

	res = Result{
		Type:        cls.Type,
		Confidence:  cls.Confidence,
		Quad:        cls.Quad,
		HasBoundary: cls.HasBoundary,
		Fold:        cls.Fold,
		HasFold:     cls.HasFold,
		Processed:   pr.Processed,
		Left:        pr.Left,
		Right:       pr.Right,
		Success:     pr.Success,
		Method:      pr.Method,
		Warnings:    mergeWarnings(cls.Warnings, pr.Warnings),
		Diagnostics: cls.Diagnostics,
	}
	if quadOK {
		res.Diagnostics["page_angle"] = angle
	}
	if pr.Reason != "" {
		res.Diagnostics["reason"] = pr.Reason
	}
	return res
}

// ScanFile loads an image from disk and scans it. I/O and decode problems
// are real errors; everything past loading degrades inside Scan.
func (s *Scanner) ScanFile(path string) (Result, error) {
	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return Result{}, fmt.Errorf("load %s: %w", path, err)
	}
	if s.cfg.Debug {
		s.logger.Debug("loaded image",
			"path", meta.Path, "format", meta.Format,
			"width", meta.Width, "height", meta.Height)
	}
	return s.Scan(img), nil
}

func mergeWarnings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
