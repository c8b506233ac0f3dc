package cmd

import (
	"encoding/json"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// scanCmd scans a single photographed document.
var scanCmd = &cobra.Command{
	Use:   "scan [image]",
	Short: "Scan one photographed document into clean page images",
	Long: `Scan a single photo: detect the page boundary and the book fold,
classify the document and write the corrected page (or the split left and
right pages for a book spread).

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  leggio scan photo.jpg
  leggio scan photo.jpg -o pages/
  leggio scan photo.jpg -o page.jpg --format json
  leggio scan photo.jpg --overlay debug.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runScanCommand,
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	sc := scannerConfigFromFlags(cfg, cmd)
	if err := sc.Validate(); err != nil {
		return err
	}

	res, err := scanner.New().WithConfig(sc).ScanFile(args[0])
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	var saved []string
	if output != "" {
		saved, err = res.Save(output, sc.JPEGQuality)
		if err != nil {
			return fmt.Errorf("failed to save pages: %w", err)
		}
	}

	if overlayPath, _ := cmd.Flags().GetString("overlay"); overlayPath != "" {
		if err := writeOverlay(args[0], res, overlayPath); err != nil {
			return fmt.Errorf("failed to write overlay: %w", err)
		}
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	return printScanResult(cmd, res, saved, format)
}

func printScanResult(cmd *cobra.Command, res scanner.Result, saved []string, format string) error {
	switch format {
	case "", "text":
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), res)
		for _, w := range res.Warnings {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", w)
		}
		for _, p := range saved {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  saved: %s\n", p)
		}
		return nil
	case "json":
		report := struct {
			Type        string         `json:"type"`
			Confidence  float64        `json:"confidence"`
			Success     bool           `json:"success"`
			Method      string         `json:"method"`
			Split       bool           `json:"split"`
			Warnings    []string       `json:"warnings,omitempty"`
			Diagnostics map[string]any `json:"diagnostics,omitempty"`
			Saved       []string       `json:"saved,omitempty"`
			DurationMS  int64          `json:"duration_ms"`
		}{
			Type:        res.Type.String(),
			Confidence:  res.Confidence,
			Success:     res.Success,
			Method:      res.Method,
			Split:       res.Split(),
			Warnings:    res.Warnings,
			Diagnostics: res.Diagnostics,
			Saved:       saved,
			DurationMS:  res.Duration.Milliseconds(),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeOverlay(inputPath string, res scanner.Result, overlayPath string) error {
	img, _, err := utils.LoadImage(inputPath)
	if err != nil {
		return err
	}
	ov := scanner.RenderOverlay(img, res)
	if ov == nil {
		return fmt.Errorf("nothing detected to overlay")
	}
	f, err := os.Create(overlayPath) //nolint:gosec // G304: path comes from the --overlay flag
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, ov)
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "output file or directory for the scanned pages")
	scanCmd.Flags().StringP("format", "f", "text", "report format: text, json")
	scanCmd.Flags().String("overlay", "", "write a detection overlay PNG to this path")
	addScannerFlags(scanCmd)
}
