package batch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// fileReport is the JSON shape for one scanned file.
type fileReport struct {
	Path        string         `json:"path"`
	Type        string         `json:"type"`
	Confidence  float64        `json:"confidence"`
	Success     bool           `json:"success"`
	Method      string         `json:"method,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
	Saved       []string       `json:"saved,omitempty"`
	Error       string         `json:"error,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
}

func formatResults(r *Result, format string) (string, error) {
	switch format {
	case "", "text":
		return formatText(r), nil
	case "json":
		return formatJSON(r)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatText(r *Result) string {
	var sb strings.Builder
	for _, f := range r.Files {
		if f.Err != nil {
			fmt.Fprintf(&sb, "%s: error: %v\n", f.Path, f.Err)
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", f.Path, f.Result)
		for _, w := range f.Result.Warnings {
			fmt.Fprintf(&sb, "  warning: %s\n", w)
		}
		for _, p := range r.Saved[f.Path] {
			fmt.Fprintf(&sb, "  saved: %s\n", p)
		}
	}
	succeeded, failed := r.tally()
	fmt.Fprintf(&sb, "\n%d files, %d succeeded, %d failed in %v\n",
		len(r.Files), succeeded, failed, r.Duration.Round(time.Millisecond))
	return sb.String()
}

func formatJSON(r *Result) (string, error) {
	reports := make([]fileReport, 0, len(r.Files))
	for _, f := range r.Files {
		rep := fileReport{
			Path:       f.Path,
			Type:       f.Result.Type.String(),
			Confidence: f.Result.Confidence,
			Success:    f.Err == nil && f.Result.Success,
			Method:     f.Result.Method,
			Warnings:   f.Result.Warnings,
			Saved:      r.Saved[f.Path],
			DurationMS: f.Result.Duration.Milliseconds(),
		}
		if f.Err != nil {
			rep.Error = f.Err.Error()
		} else {
			rep.Diagnostics = f.Result.Diagnostics
		}
		reports = append(reports, rep)
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(data) + "\n", nil
}
