package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
)

// Config holds all configuration for a batch scan run.
type Config struct {
	// Scanner carries the pipeline tuning used for every file.
	Scanner scanner.Config

	// OutputDir receives the processed pages, one file (or a _left/_right
	// pair) per input, named after the input file. Empty disables saving.
	OutputDir string

	// OverlayDir receives debug overlays with the detected boundary and
	// fold drawn over each input. Empty disables overlays.
	OverlayDir string

	// Format selects the report format: "text" or "json".
	Format string

	// OutputFile receives the report instead of stdout when set.
	OutputFile string

	// Workers is the parallel worker count (0 = all CPUs).
	Workers int

	// File discovery settings.
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings.
	ShowProgress bool
	Quiet        bool
}

// Result holds the outcome of a batch run.
type Result struct {
	Files       []scanner.FileResult
	Saved       map[string][]string // input path -> written output paths
	Duration    time.Duration
	WorkerCount int
}

// FormatResults renders the report in the requested format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatResults(r, format)
}

// SaveResults writes the formatted report to outputFile, or stdout when
// outputFile is empty.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
		return nil
	}
	_, _ = fmt.Fprint(os.Stdout, output)
	return nil
}

// PrintStats prints processing statistics to stdout.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	succeeded, failed := r.tally()
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total files: %d\n", len(r.Files))
	_, _ = fmt.Fprintf(os.Stdout, "  Succeeded: %d\n", succeeded)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed: %d\n", failed)
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if n := len(r.Files); n > 0 {
		avg := r.Duration / time.Duration(n)
		_, _ = fmt.Fprintf(os.Stdout, "  Avg per file: %v\n", avg.Round(time.Millisecond))
		_, _ = fmt.Fprintf(os.Stdout, "  Throughput: %.1f files/sec\n",
			float64(n)/r.Duration.Seconds())
	}
}

func (r *Result) tally() (succeeded, failed int) {
	for _, f := range r.Files {
		if f.Err == nil && f.Result.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
