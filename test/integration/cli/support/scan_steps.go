package support

import (
	"fmt"
	"image"

	"github.com/cucumber/godog"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
	"github.com/dodogabrie/image-processing-leggio/internal/testutil"
)

// RegisterScanSteps registers the single-photo scan step definitions.
func (testCtx *TestContext) RegisterScanSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a photographed book spread$`, testCtx.aPhotographedBookSpread)
	sc.Step(`^a photographed single page$`, testCtx.aPhotographedSinglePage)
	sc.Step(`^a capture without a document$`, testCtx.aCaptureWithoutADocument)
	sc.Step(`^I scan the photo$`, testCtx.iScanThePhoto)
	sc.Step(`^the document type is "([^"]*)"$`, testCtx.theDocumentTypeIs)
	sc.Step(`^the scan succeeds$`, testCtx.theScanSucceeds)
	sc.Step(`^the scan produces (\d+) page images?$`, testCtx.theScanProducesPages)
	sc.Step(`^the processing method is "([^"]*)"$`, testCtx.theProcessingMethodIs)
}

func (testCtx *TestContext) aPhotographedBookSpread() error {
	path, err := testCtx.writeFixture("spread.png", testCtx.spreadPhoto())
	testCtx.ImagePath = path
	return err
}

func (testCtx *TestContext) aPhotographedSinglePage() error {
	path, err := testCtx.writeFixture("flat.png", testCtx.singlePagePhoto())
	testCtx.ImagePath = path
	return err
}

func (testCtx *TestContext) aCaptureWithoutADocument() error {
	img := image.NewRGBA(image.Rect(0, 0, 480, 360))
	for y := range 360 {
		for x := range 480 {
			img.Set(x, y, testutil.DeskColor)
		}
	}
	path, err := testCtx.writeFixture("empty.png", img)
	testCtx.ImagePath = path
	return err
}

func (testCtx *TestContext) iScanThePhoto() error {
	res, err := scanner.New().ScanFile(testCtx.ImagePath)
	if err != nil {
		return err
	}
	testCtx.ScanResult = res
	return nil
}

func (testCtx *TestContext) theDocumentTypeIs(expected string) error {
	if got := testCtx.ScanResult.Type.String(); got != expected {
		return fmt.Errorf("expected document type %q, got %q", expected, got)
	}
	return nil
}

func (testCtx *TestContext) theScanSucceeds() error {
	if !testCtx.ScanResult.Success {
		return fmt.Errorf("scan did not succeed: method=%s warnings=%v",
			testCtx.ScanResult.Method, testCtx.ScanResult.Warnings)
	}
	return nil
}

func (testCtx *TestContext) theScanProducesPages(expected int) error {
	got := 1
	if testCtx.ScanResult.Split() {
		got = 2
	}
	if testCtx.ScanResult.Processed == nil {
		got = 0
	}
	if got != expected {
		return fmt.Errorf("expected %d page images, got %d", expected, got)
	}
	return nil
}

func (testCtx *TestContext) theProcessingMethodIs(expected string) error {
	if testCtx.ScanResult.Method != expected {
		return fmt.Errorf("expected method %q, got %q", expected, testCtx.ScanResult.Method)
	}
	return nil
}
