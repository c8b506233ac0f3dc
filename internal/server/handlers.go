package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}

// scanHandler processes a single uploaded document photo.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		scanRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	res := s.scanner.Scan(img)
	scanRequestsTotal.WithLabelValues("http", "success").Inc()
	scanDuration.WithLabelValues("http").Observe(res.Duration.Seconds())
	documentTypesTotal.WithLabelValues(res.Type.String()).Inc()

	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	if format == "overlay" {
		s.handleOverlayOutput(w, img, res)
		return
	}

	includePages := r.FormValue("pages") != "0"
	result, err := buildScanResult(res, includePages)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to encode pages: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ScanResponse{Success: true, Result: result}); err != nil {
		slog.Error("failed to encode scan response", "error", err)
	}
}

// handleOverlayOutput renders the detected boundary and fold over the input.
func (s *Server) handleOverlayOutput(w http.ResponseWriter, img image.Image, res scanner.Result) {
	if !s.overlayEnabled {
		http.Error(w, "overlay output disabled", http.StatusForbidden)
		return
	}

	ov := scanner.RenderOverlay(img, res)
	if ov == nil {
		http.Error(w, "nothing detected to overlay", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_ = png.Encode(w, ov)
}

// buildScanResult converts a scan outcome into its JSON shape, optionally
// attaching the output pages as base64 PNG.
func buildScanResult(res scanner.Result, includePages bool) (*ScanResult, error) {
	result := &ScanResult{
		Type:        res.Type.String(),
		Confidence:  res.Confidence,
		Method:      res.Method,
		Split:       res.Split(),
		Warnings:    res.Warnings,
		Diagnostics: res.Diagnostics,
	}
	result.Processing.TotalTimeMs = res.Duration.Milliseconds()

	if !includePages {
		return result, nil
	}

	if res.Split() {
		left, err := encodePage("page_left", res.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodePage("page_right", res.Right)
		if err != nil {
			return nil, err
		}
		result.Pages = []PageImage{left, right}
	} else if res.Processed != nil {
		page, err := encodePage("page", res.Processed)
		if err != nil {
			return nil, err
		}
		result.Pages = []PageImage{page}
	}
	return result, nil
}

func encodePage(name string, img image.Image) (PageImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return PageImage{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return PageImage{
		Name: name,
		PNG:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ScanResponse{
		Success: false,
		Error:   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
