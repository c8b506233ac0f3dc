package support

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/dodogabrie/image-processing-leggio/internal/batch"
	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
)

// RegisterBatchSteps registers the batch scan step definitions.
func (testCtx *TestContext) RegisterBatchSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a directory with (\d+) document photos$`, testCtx.aDirectoryWithDocumentPhotos)
	sc.Step(`^I batch scan the directory with (\d+) workers$`, testCtx.iBatchScanTheDirectory)
	sc.Step(`^all files are scanned successfully$`, testCtx.allFilesAreScannedSuccessfully)
	sc.Step(`^the output directory contains (\d+) page files$`, testCtx.theOutputDirectoryContainsPageFiles)
	sc.Step(`^the batch report in "([^"]*)" format mentions "([^"]*)"$`, testCtx.theBatchReportMentions)
}

func (testCtx *TestContext) aDirectoryWithDocumentPhotos(count int) error {
	dir := filepath.Join(testCtx.TempDir, "captures")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	for i := range count {
		name := filepath.Join("captures", fmt.Sprintf("page_%02d.png", i))
		// Alternate spreads and single pages.
		img := testCtx.singlePagePhoto()
		if i%2 == 0 {
			img = testCtx.spreadPhoto()
		}
		if _, err := testCtx.writeFixture(name, img); err != nil {
			return err
		}
	}
	testCtx.BatchDir = dir
	return nil
}

func (testCtx *TestContext) iBatchScanTheDirectory(workers int) error {
	cfg := &batch.Config{
		Scanner:   scanner.DefaultConfig(),
		OutputDir: filepath.Join(testCtx.TempDir, "out"),
		Workers:   workers,
		Quiet:     true,
	}
	testCtx.BatchResult, testCtx.BatchErr = batch.Run(context.Background(), []string{testCtx.BatchDir}, cfg)
	return nil
}

func (testCtx *TestContext) allFilesAreScannedSuccessfully() error {
	if testCtx.BatchErr != nil {
		return fmt.Errorf("batch run failed: %w", testCtx.BatchErr)
	}
	for _, f := range testCtx.BatchResult.Files {
		if f.Err != nil {
			return fmt.Errorf("file %s failed: %w", f.Path, f.Err)
		}
		if !f.Result.Success {
			return fmt.Errorf("file %s did not succeed: %s", f.Path, f.Result.Method)
		}
	}
	return nil
}

func (testCtx *TestContext) theOutputDirectoryContainsPageFiles(expected int) error {
	entries, err := os.ReadDir(filepath.Join(testCtx.TempDir, "out"))
	if err != nil {
		return err
	}
	if len(entries) != expected {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return fmt.Errorf("expected %d page files, got %d: %v", expected, len(entries), names)
	}
	return nil
}

func (testCtx *TestContext) theBatchReportMentions(format, needle string) error {
	if testCtx.BatchErr != nil {
		return fmt.Errorf("batch run failed: %w", testCtx.BatchErr)
	}
	out, err := testCtx.BatchResult.FormatResults(format)
	if err != nil {
		return err
	}
	if !strings.Contains(out, needle) {
		return fmt.Errorf("report does not mention %q:\n%s", needle, out)
	}
	return nil
}
