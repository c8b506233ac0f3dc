package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dodogabrie/image-processing-leggio/internal/server"
)

// serveCmd starts the HTTP scan server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scan server",
	Long: `Start an HTTP server exposing the scan pipeline.

Endpoints:
  POST /scan      multipart image upload, returns the scan result as JSON
  GET  /health    health check
  GET  /metrics   Prometheus metrics
  GET  /ws/batch  WebSocket channel for streaming scans

Examples:
  leggio serve
  leggio serve --host 0.0.0.0 --port 9090
  leggio serve --max-upload-size 100`,
	SilenceUsage: true,
	RunE:         runServeCommand,
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}
	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}
	maxUpload := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUpload, _ = cmd.Flags().GetInt("max-upload-size")
	}
	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}
	overlayEnabled := cfg.Server.OverlayEnabled
	if cmd.Flags().Changed("overlay") {
		overlayEnabled, _ = cmd.Flags().GetBool("overlay")
	}

	scanServer, err := server.NewServer(server.Config{
		Host:           host,
		Port:           port,
		MaxUploadMB:    int64(maxUpload),
		TimeoutSec:     timeout,
		OverlayEnabled: overlayEnabled,
		Scanner:        scannerConfigFromFlags(cfg, cmd),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	mux := http.NewServeMux()
	scanServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		slog.Info("starting scan server", "host", host, "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	slog.Info("graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Bool("overlay", true, "enable overlay PNG output on /scan")

	addScannerFlags(serveCmd)
}
