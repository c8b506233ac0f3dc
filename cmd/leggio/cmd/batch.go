package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dodogabrie/image-processing-leggio/internal/batch"
	"github.com/dodogabrie/image-processing-leggio/internal/config"
)

// batchCmd processes many photos in parallel.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Scan multiple photographed documents in parallel",
	Long: `Scan many photos with a parallel worker pool. Directories are
expanded to the image files they contain; spreads are split into left and
right pages automatically.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  leggio batch captures/*.jpg --output-dir pages/
  leggio batch captures/ --recursive --workers 8
  leggio batch captures/ --format json --output results.json
  leggio batch captures/ --overlay-dir overlays/ --progress`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig maps the resolved configuration to batch.Config.
// Changed CLI flags win over config file values.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	bc := &batch.Config{
		Scanner: scannerConfigFromFlags(cfg, cmd),
	}

	bc.OutputDir = cfg.Output.Dir
	if cmd.Flags().Changed("output-dir") {
		bc.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}

	bc.OverlayDir = cfg.Output.OverlayDir
	if cmd.Flags().Changed("overlay-dir") {
		bc.OverlayDir, _ = cmd.Flags().GetString("overlay-dir")
	}

	bc.Format = cfg.Output.Format
	if cmd.Flags().Changed("format") {
		bc.Format, _ = cmd.Flags().GetString("format")
	}

	bc.OutputFile = cfg.Output.File
	if cmd.Flags().Changed("output") {
		bc.OutputFile, _ = cmd.Flags().GetString("output")
	}

	bc.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		bc.Workers, _ = cmd.Flags().GetInt("workers")
	}

	bc.Recursive = cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	}

	// Discovery and progress settings are CLI-only.
	bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	bc.ShowProgress, _ = cmd.Flags().GetBool("progress")
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")

	return bc
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	bc := configToBatchConfig(cfg, cmd)

	if err := bc.Scanner.Validate(); err != nil {
		return err
	}

	if !bc.Quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Processing %d arguments...\n", len(args))
	}

	result, err := batch.Run(cmd.Context(), args, bc)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if err := result.SaveResults(bc.Format, bc.OutputFile, bc.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		result.PrintStats(bc.Quiet)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("output-dir", "", "directory to save the scanned pages")
	batchCmd.Flags().String("overlay-dir", "", "directory to save detection overlay images")
	batchCmd.Flags().StringP("format", "f", "text", "report format: text, json")
	batchCmd.Flags().StringP("output", "o", "", "report file (default: stdout)")

	batchCmd.Flags().IntP("workers", "w", 0,
		fmt.Sprintf("number of parallel workers (default: %d)", runtime.NumCPU()))

	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include", nil, "file patterns to include")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")

	batchCmd.Flags().Bool("progress", false, "show progress bar")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
	batchCmd.Flags().Bool("stats", false, "show processing statistics")

	addScannerFlags(batchCmd)
}
