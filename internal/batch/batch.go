// Package batch scans many document photos in one run: file discovery,
// parallel scanning, output saving and report formatting.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// Run discovers, scans and saves a batch of document photos.
func Run(ctx context.Context, args []string, cfg *Config) (*Result, error) {
	files, err := discoverImageFiles(args, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	var progress scanner.ProgressCallback
	if cfg.ShowProgress && !cfg.Quiet {
		progress = scanner.NewConsoleProgressCallback(os.Stderr, "Scanning: ")
	}

	sc := scanner.New().WithConfig(cfg.Scanner)

	start := time.Now()
	results, err := sc.ScanFilesParallel(ctx, files, cfg.Workers, progress)
	if err != nil {
		return nil, fmt.Errorf("batch scan failed: %w", err)
	}

	saved := make(map[string][]string)
	for _, fr := range results {
		if fr.Err != nil {
			continue
		}
		if cfg.OutputDir != "" {
			paths, saveErr := saveOutputs(fr, cfg.OutputDir, cfg.Scanner.JPEGQuality)
			if saveErr != nil {
				slog.Warn("failed to save scan output", "file", fr.Path, "error", saveErr)
			} else {
				saved[fr.Path] = paths
			}
		}
		if cfg.OverlayDir != "" {
			saveOverlay(fr, cfg.OverlayDir)
		}
	}

	return &Result{
		Files:       results,
		Saved:       saved,
		Duration:    time.Since(start),
		WorkerCount: cfg.Workers,
	}, nil
}

// saveOutputs writes the processed pages for one input into outputDir,
// named after the input file.
func saveOutputs(fr scanner.FileResult, outputDir string, quality int) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, err
	}
	base := filepath.Base(fr.Path)
	ext := filepath.Ext(base)
	// JPEG output regardless of input format.
	dest := filepath.Join(outputDir, strings.TrimSuffix(base, ext)+".jpg")
	return fr.Result.Save(dest, quality)
}

// saveOverlay renders and writes a detection overlay next to the outputs.
// Overlay failures are not fatal to the batch.
func saveOverlay(fr scanner.FileResult, overlayDir string) {
	img, _, err := utils.LoadImage(fr.Path)
	if err != nil {
		return
	}
	ov := scanner.RenderOverlay(img, fr.Result)
	if ov == nil {
		return
	}
	if err := os.MkdirAll(overlayDir, 0o750); err != nil {
		return
	}
	base := filepath.Base(fr.Path)
	outPath := filepath.Join(overlayDir, strings.TrimSuffix(base, filepath.Ext(base))+"_overlay.png")
	if f, err := os.Create(outPath); err == nil { //nolint:gosec
		// G304: outPath constructed from the overlay-dir flag, expected user input
		_ = png.Encode(f, ov)
		_ = f.Close()
	}
}
