// Package server exposes the scan pipeline over HTTP: a multipart scan
// endpoint, health and Prometheus metrics, and a WebSocket channel for
// streaming batch progress.
package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	scanner        *scanner.Scanner
	maxUploadMB    int64
	timeoutSec     int
	overlayEnabled bool
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	MaxUploadMB    int64
	TimeoutSec     int
	OverlayEnabled bool
	Scanner        scanner.Config
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// PageImage is one output page, PNG-encoded and base64 wrapped for JSON.
type PageImage struct {
	Name string `json:"name"`
	PNG  string `json:"png"`
}

// ScanResult is the JSON shape of a completed scan.
type ScanResult struct {
	Type        string         `json:"type"`
	Confidence  float64        `json:"confidence"`
	Method      string         `json:"method"`
	Split       bool           `json:"split"`
	Warnings    []string       `json:"warnings,omitempty"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
	Pages       []PageImage    `json:"pages,omitempty"`
	Processing  struct {
		TotalTimeMs int64 `json:"total_time_ms"`
	} `json:"processing"`
}

// ScanResponse wraps a scan result or error for the HTTP API.
type ScanResponse struct {
	Success bool        `json:"success"`
	Result  *ScanResult `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer creates a new scan server instance.
func NewServer(config Config) (*Server, error) {
	if err := config.Scanner.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scanner config: %w", err)
	}
	return &Server{
		scanner:        scanner.New().WithConfig(config.Scanner),
		maxUploadMB:    config.MaxUploadMB,
		timeoutSec:     config.TimeoutSec,
		overlayEnabled: config.OverlayEnabled,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.requestMiddleware(s.healthHandler))
	mux.HandleFunc("/scan", s.requestMiddleware(s.scanHandler))
	mux.HandleFunc("/ws/batch", s.batchWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
