package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestWebSocket(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/batch"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readResponses(t *testing.T, conn *websocket.Conn) []WebSocketScanResponse {
	t.Helper()
	var msgs []WebSocketScanResponse
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg WebSocketScanResponse
		require.NoError(t, json.Unmarshal(data, &msg))
		msgs = append(msgs, msg)
		if msg.Status == "completed" && msg.Type == "scan_response" {
			return msgs
		}
		if msg.Status == "error" {
			return msgs
		}
	}
}

func TestWebSocketImageScan(t *testing.T) {
	conn := dialTestWebSocket(t, testServer(t))

	req := WebSocketScanRequest{
		Type:     "image",
		Image:    encodeTestPhoto(t),
		Filename: "photo.png",
	}
	require.NoError(t, conn.WriteJSON(req))

	msgs := readResponses(t, conn)
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "processing", msgs[0].Status)

	last := msgs[len(msgs)-1]
	require.Equal(t, "completed", last.Status)
	assert.Equal(t, "photo.png", last.File)
	require.NotNil(t, last.Result)

	result, ok := last.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "book_spread", result["type"])
}

func TestWebSocketBatchScan(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.png"),
	}
	data := encodeTestPhoto(t)
	for _, p := range paths {
		require.NoError(t, os.WriteFile(p, data, 0o600))
	}

	conn := dialTestWebSocket(t, testServer(t))
	require.NoError(t, conn.WriteJSON(WebSocketScanRequest{
		Type:    "batch",
		Paths:   paths,
		Workers: 2,
	}))

	msgs := readResponses(t, conn)

	var fileResults int
	for _, msg := range msgs {
		if msg.Type == "file_result" {
			fileResults++
			assert.Equal(t, "completed", msg.Status)
			assert.Contains(t, paths, msg.File)
		}
	}
	assert.Equal(t, 2, fileResults)
	assert.Equal(t, "completed", msgs[len(msgs)-1].Status)
}

func TestWebSocketInvalidRequestType(t *testing.T) {
	conn := dialTestWebSocket(t, testServer(t))
	require.NoError(t, conn.WriteJSON(WebSocketScanRequest{Type: "pdf"}))

	msgs := readResponses(t, conn)
	last := msgs[len(msgs)-1]
	assert.Equal(t, "error", last.Status)
	assert.Equal(t, "invalid_request", last.ErrorType)
}

func TestWebSocketMalformedJSON(t *testing.T) {
	conn := dialTestWebSocket(t, testServer(t))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))

	msgs := readResponses(t, conn)
	last := msgs[len(msgs)-1]
	assert.Equal(t, "error", last.Status)
	assert.Equal(t, "invalid_request", last.ErrorType)
}

func TestWebSocketImageNoData(t *testing.T) {
	conn := dialTestWebSocket(t, testServer(t))
	require.NoError(t, conn.WriteJSON(WebSocketScanRequest{Type: "image"}))

	msgs := readResponses(t, conn)
	last := msgs[len(msgs)-1]
	assert.Equal(t, "error", last.Status)
}
