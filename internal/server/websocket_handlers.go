package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are left to the reverse proxy.
		return true
	},
}

// WebSocketScanRequest is a scan request sent over the batch WebSocket.
// Type "image" carries one photo inline; type "batch" names server-local
// files to scan with the worker pool.
type WebSocketScanRequest struct {
	Type     string   `json:"type"` // "image" or "batch"
	Image    []byte   `json:"image,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Paths    []string `json:"paths,omitempty"`
	Workers  int      `json:"workers,omitempty"`
}

// WebSocketScanResponse is a progress or result message sent to the client.
type WebSocketScanResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Progress  float64     `json:"progress,omitempty"`
	File      string      `json:"file,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// wsConnWriter serializes writes to one WebSocket connection, so progress
// callbacks and the handler loop can both send.
type wsConnWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConnWriter) WriteMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(messageType, data)
}

// batchWebSocketHandler handles WebSocket connections for streaming scans.
func (s *Server) batchWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	writer := &wsConnWriter{conn: conn}

	// Keep the connection alive across long batch runs.
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				writer.mu.Lock()
				err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
				writer.mu.Unlock()
				if err != nil {
					return
				}
			case <-stopPing:
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, writer, data)
		}
	}
}

func (s *Server) handleWebSocketMessage(ctx context.Context, writer *wsConnWriter, data []byte) {
	var req WebSocketScanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(writer, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	s.sendWebSocketResponse(writer, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "processing",
		Progress:  0.0,
		RequestID: requestID,
	})

	switch req.Type {
	case "image":
		s.processWebSocketImage(writer, req, requestID)
	case "batch":
		s.processWebSocketBatch(ctx, writer, req, requestID)
	default:
		s.sendWebSocketError(writer, "invalid_request", "Unsupported request type: "+req.Type)
	}
}

// processWebSocketImage scans one inline photo.
func (s *Server) processWebSocketImage(writer *wsConnWriter, req WebSocketScanRequest, requestID string) {
	if len(req.Image) == 0 {
		s.sendWebSocketError(writer, "invalid_request", "No image data provided")
		return
	}

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		scanRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(writer, "processing_error", fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	res := s.scanner.Scan(img)
	scanRequestsTotal.WithLabelValues("websocket", "success").Inc()
	scanDuration.WithLabelValues("websocket").Observe(res.Duration.Seconds())
	documentTypesTotal.WithLabelValues(res.Type.String()).Inc()

	result, err := buildScanResult(res, true)
	if err != nil {
		s.sendWebSocketError(writer, "processing_error", fmt.Sprintf("Failed to encode pages: %v", err))
		return
	}

	s.sendWebSocketResponse(writer, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "completed",
		Progress:  1.0,
		File:      req.Filename,
		Result:    result,
		RequestID: requestID,
	})
}

// processWebSocketBatch scans server-local files, streaming per-file progress.
func (s *Server) processWebSocketBatch(ctx context.Context, writer *wsConnWriter,
	req WebSocketScanRequest, requestID string,
) {
	if len(req.Paths) == 0 {
		s.sendWebSocketError(writer, "invalid_request", "No file paths provided")
		return
	}

	progress := &wsProgressCallback{server: s, writer: writer, requestID: requestID}
	results, err := s.scanner.ScanFilesParallel(ctx, req.Paths, req.Workers, progress)
	if err != nil {
		scanRequestsTotal.WithLabelValues("websocket_batch", "error").Inc()
		s.sendWebSocketError(writer, "processing_error", fmt.Sprintf("Batch scan failed: %v", err))
		return
	}
	scanRequestsTotal.WithLabelValues("websocket_batch", "success").Inc()

	summaries := make([]WebSocketScanResponse, 0, len(results))
	for _, fr := range results {
		msg := WebSocketScanResponse{Type: "file_result", File: fr.Path}
		if fr.Err != nil {
			msg.Status = "error"
			msg.Error = fr.Err.Error()
		} else {
			msg.Status = "completed"
			documentTypesTotal.WithLabelValues(fr.Result.Type.String()).Inc()
			// Pages are omitted for batch results, which can be large.
			result, buildErr := buildScanResult(fr.Result, false)
			if buildErr == nil {
				msg.Result = result
			}
		}
		summaries = append(summaries, msg)
	}

	for _, msg := range summaries {
		msg.RequestID = requestID
		s.sendWebSocketResponse(writer, msg)
	}

	s.sendWebSocketResponse(writer, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "completed",
		Progress:  1.0,
		RequestID: requestID,
	})
}

// wsProgressCallback streams worker-pool progress over the WebSocket.
type wsProgressCallback struct {
	server    *Server
	writer    *wsConnWriter
	requestID string
}

func (p *wsProgressCallback) OnStart(total int) {}

func (p *wsProgressCallback) OnProgress(current, total int) {
	if total == 0 {
		return
	}
	p.server.sendWebSocketResponse(p.writer, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "processing",
		Progress:  float64(current) / float64(total),
		RequestID: p.requestID,
	})
}

func (p *wsProgressCallback) OnComplete() {}

func (p *wsProgressCallback) OnError(current int, err error) {
	slog.Warn("batch file failed", "index", current, "error", err)
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(writer *wsConnWriter, response WebSocketScanResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("failed to marshal WebSocket response", "error", err)
		return
	}
	if err := writer.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(writer *wsConnWriter, errorType, message string) {
	s.sendWebSocketResponse(writer, WebSocketScanResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
