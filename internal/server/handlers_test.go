package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
	"github.com/dodogabrie/image-processing-leggio/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(Config{
		MaxUploadMB:    10,
		TimeoutSec:     30,
		OverlayEnabled: true,
		Scanner:        scanner.DefaultConfig(),
	})
	require.NoError(t, err)
	return srv
}

func multipartImage(t *testing.T, fieldName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(fieldName, "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func encodeTestPhoto(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.DocumentPhoto(480, 360, 30, 240, 12)))
	return buf.Bytes()
}

func TestHealthHandler(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.healthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	srv.healthHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScanHandler(t *testing.T) {
	srv := testServer(t)
	body, contentType := multipartImage(t, "image", encodeTestPhoto(t))

	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "book_spread", resp.Result.Type)
	assert.True(t, resp.Result.Split)
	require.Len(t, resp.Result.Pages, 2)
	assert.Equal(t, "page_left", resp.Result.Pages[0].Name)

	// The pages decode back to PNG.
	raw, err := base64.StdEncoding.DecodeString(resp.Result.Pages[0].PNG)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestScanHandlerWithoutPages(t *testing.T) {
	srv := testServer(t)
	body, contentType := multipartImage(t, "image", encodeTestPhoto(t))

	req := httptest.NewRequest(http.MethodPost, "/scan?pages=0", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Empty(t, resp.Result.Pages)
}

func TestScanHandlerNoFile(t *testing.T) {
	srv := testServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "No image file")
}

func TestScanHandlerInvalidImage(t *testing.T) {
	srv := testServer(t)
	body, contentType := multipartImage(t, "image", []byte("not a png"))

	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanHandlerMethodNotAllowed(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scan", nil)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScanHandlerOverlay(t *testing.T) {
	srv := testServer(t)
	body, contentType := multipartImage(t, "image", encodeTestPhoto(t))

	req := httptest.NewRequest(http.MethodPost, "/scan?format=overlay", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestScanHandlerOverlayDisabled(t *testing.T) {
	srv, err := NewServer(Config{
		MaxUploadMB: 10,
		TimeoutSec:  30,
		Scanner:     scanner.DefaultConfig(),
	})
	require.NoError(t, err)

	body, contentType := multipartImage(t, "image", encodeTestPhoto(t))
	req := httptest.NewRequest(http.MethodPost, "/scan?format=overlay", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewServerRejectsBadConfig(t *testing.T) {
	bad := scanner.DefaultConfig()
	bad.QualityThreshold = 2
	_, err := NewServer(Config{MaxUploadMB: 10, Scanner: bad})
	assert.Error(t, err)
}

func TestSetupRoutes(t *testing.T) {
	srv := testServer(t)
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = metricsResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
