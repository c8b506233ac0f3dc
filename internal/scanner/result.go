package scanner

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dodogabrie/image-processing-leggio/internal/boundary"
	"github.com/dodogabrie/image-processing-leggio/internal/classify"
	"github.com/dodogabrie/image-processing-leggio/internal/fold"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// Default file names used when saving into a directory.
const (
	defaultPageName      = "page.jpg"
	defaultLeftPageName  = "page_left.jpg"
	defaultRightPageName = "page_right.jpg"
)

// Result is the outcome of scanning one photo.
type Result struct {
	Type       classify.DocumentType
	Confidence float64

	Quad        boundary.Quad
	HasBoundary bool
	Fold        fold.Candidate
	HasFold     bool

	// Processed is always set (the original image on failure). Left and
	// Right are set only when a spread was split.
	Processed image.Image
	Left      image.Image
	Right     image.Image

	Success     bool
	Method      string
	Warnings    []string
	Diagnostics map[string]any
	Duration    time.Duration
}

// Split reports whether the scan produced separate left and right pages.
func (r Result) Split() bool {
	return r.Left != nil && r.Right != nil
}

// String returns a one-line summary.
func (r Result) String() string {
	status := "ok"
	if !r.Success {
		status = "failed"
	}
	return fmt.Sprintf("%s (confidence %.2f, %s, %s)",
		r.Type, r.Confidence, r.Method, status)
}

// Save writes the scan outputs to dest with the given JPEG quality. When
// dest is a directory (existing, trailing separator, or no extension) the
// default page names are used; otherwise dest names the file and split
// pages get _left/_right suffixes before the extension. Returns the paths
// written.
func (r Result) Save(dest string, quality int) ([]string, error) {
	if r.Processed == nil {
		return nil, fmt.Errorf("nothing to save for %s", dest)
	}
	if dest == "" {
		return nil, fmt.Errorf("empty destination")
	}

	if r.Split() {
		leftPath, rightPath := splitPaths(dest)
		if err := utils.SaveImage(r.Left, leftPath, quality); err != nil {
			return nil, fmt.Errorf("save left page: %w", err)
		}
		if err := utils.SaveImage(r.Right, rightPath, quality); err != nil {
			return nil, fmt.Errorf("save right page: %w", err)
		}
		return []string{leftPath, rightPath}, nil
	}

	path := dest
	if isDirDest(dest) {
		path = filepath.Join(dest, defaultPageName)
	}
	if err := utils.SaveImage(r.Processed, path, quality); err != nil {
		return nil, fmt.Errorf("save page: %w", err)
	}
	return []string{path}, nil
}

func isDirDest(dest string) bool {
	if strings.HasSuffix(dest, string(os.PathSeparator)) || strings.HasSuffix(dest, "/") {
		return true
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return true
	}
	return filepath.Ext(dest) == ""
}

func splitPaths(dest string) (string, string) {
	if isDirDest(dest) {
		return filepath.Join(dest, defaultLeftPageName), filepath.Join(dest, defaultRightPageName)
	}
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)
	return base + "_left" + ext, base + "_right" + ext
}
