package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/cucumber/godog"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
	"github.com/dodogabrie/image-processing-leggio/internal/server"
)

// RegisterServerSteps registers the HTTP server step definitions.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a running scan server$`, testCtx.aRunningScanServer)
	sc.Step(`^I upload the photo to the scan endpoint$`, testCtx.iUploadThePhotoToTheScanEndpoint)
	sc.Step(`^I request the "([^"]*)" endpoint$`, testCtx.iRequestTheEndpoint)
	sc.Step(`^the response status is (\d+)$`, testCtx.theResponseStatusIs)
	sc.Step(`^the response reports document type "([^"]*)"$`, testCtx.theResponseReportsDocumentType)
	sc.Step(`^the response body contains "([^"]*)"$`, testCtx.theResponseBodyContains)
}

func (testCtx *TestContext) aRunningScanServer() error {
	srv, err := server.NewServer(server.Config{
		MaxUploadMB:    10,
		TimeoutSec:     30,
		OverlayEnabled: true,
		Scanner:        scanner.DefaultConfig(),
	})
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPServer = httptest.NewServer(mux)
	return nil
}

func (testCtx *TestContext) iUploadThePhotoToTheScanEndpoint() error {
	data, err := os.ReadFile(testCtx.ImagePath)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "photo.png")
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := http.Post(testCtx.HTTPServer.URL+"/scan", mw.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) iRequestTheEndpoint(path string) error {
	resp, err := http.Get(testCtx.HTTPServer.URL + path)
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastStatusCode = resp.StatusCode
	testCtx.LastResponseBody = string(body)
	return nil
}

func (testCtx *TestContext) theResponseStatusIs(expected int) error {
	if testCtx.LastStatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s",
			expected, testCtx.LastStatusCode, testCtx.LastResponseBody)
	}
	return nil
}

func (testCtx *TestContext) theResponseReportsDocumentType(expected string) error {
	var resp server.ScanResponse
	if err := json.Unmarshal([]byte(testCtx.LastResponseBody), &resp); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if resp.Result == nil {
		return fmt.Errorf("response has no result: %s", testCtx.LastResponseBody)
	}
	if resp.Result.Type != expected {
		return fmt.Errorf("expected document type %q, got %q", expected, resp.Result.Type)
	}
	return nil
}

func (testCtx *TestContext) theResponseBodyContains(needle string) error {
	if !strings.Contains(testCtx.LastResponseBody, needle) {
		return fmt.Errorf("response body does not contain %q", needle)
	}
	return nil
}
