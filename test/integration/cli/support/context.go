// Package support holds the shared state and step definitions for the
// integration feature suite.
package support

import (
	"fmt"
	"image"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/dodogabrie/image-processing-leggio/internal/batch"
	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
	"github.com/dodogabrie/image-processing-leggio/internal/testutil"
)

// TestContext holds the state shared by the steps of one scenario.
type TestContext struct {
	TempDir string

	// Scan state
	ImagePath  string
	ScanResult scanner.Result

	// Batch state
	BatchDir    string
	BatchResult *batch.Result
	BatchErr    error

	// Server state
	HTTPServer       *httptest.Server
	LastStatusCode   int
	LastResponseBody string
}

// NewTestContext creates a new test context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "leggio-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{TempDir: tempDir}, nil
}

// Cleanup removes all temporary artifacts created during the scenario.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	return os.RemoveAll(testCtx.TempDir)
}

// writeFixture renders a synthetic document photo into the temp directory.
func (testCtx *TestContext) writeFixture(name string, img image.Image) (string, error) {
	path := filepath.Join(testCtx.TempDir, name)
	f, err := os.Create(path) //nolint:gosec // G304: path is inside the scenario temp dir
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return path, nil
}

func (testCtx *TestContext) spreadPhoto() image.Image {
	return testutil.DocumentPhoto(480, 360, 30, 240, 12)
}

func (testCtx *TestContext) singlePagePhoto() image.Image {
	return testutil.FlatPagePhoto(480, 360, 30)
}
