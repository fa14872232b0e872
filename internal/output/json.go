package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dotcommander/classlint/internal/cli"
	"github.com/dotcommander/classlint/internal/scoring"
	"github.com/dotcommander/classlint/internal/types"
)

// Version is reported in machine-readable output headers.
var Version = "dev"

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	quiet      bool
	indent     bool
	outputFile string
	out        io.Writer
	now        func() time.Time
}

// NewJSONFormatter creates a new JSONFormatter. An empty outputFile or "-"
// writes to stdout.
func NewJSONFormatter(quiet bool, indent bool, outputFile string) *JSONFormatter {
	return &JSONFormatter{
		quiet:      quiet,
		indent:     indent,
		outputFile: outputFile,
		out:        os.Stdout,
		now:        time.Now,
	}
}

// WithWriter redirects stdout output to w.
func (f *JSONFormatter) WithWriter(w io.Writer) *JSONFormatter {
	f.out = w
	return f
}

// Format formats the lint summary as JSON
func (f *JSONFormatter) Format(summary *cli.LintSummary) error {
	report := JSONReport{
		Header: JSONHeader{
			Tool:      "classlint",
			Version:   Version,
			Preset:    summary.Preset,
			Timestamp: f.now().Format(time.RFC3339),
		},
		Summary: JSONSummary{
			TotalFiles:       summary.TotalFiles,
			SuccessfulFiles:  summary.SuccessfulFiles,
			FailedFiles:      summary.FailedFiles,
			TotalErrors:      summary.TotalErrors,
			TotalWarnings:    summary.TotalWarnings,
			TotalSuggestions: summary.TotalSuggestions,
			BaselineIgnored:  summary.BaselineIgnored,
			AverageScore:     summary.AverageScore,
			Duration:         time.Duration(summary.Duration * int64(time.Millisecond)).String(),
		},
		Results: make([]JSONResult, len(summary.Results)),
	}

	for i := range summary.Results {
		result := &summary.Results[i]
		violations := result.Violations
		if violations == nil {
			violations = []types.Violation{}
		}
		report.Results[i] = JSONResult{
			File:       result.File,
			Page:       result.Page,
			ScanID:     result.ReportID,
			Success:    result.Success(),
			Elements:   result.Elements,
			CacheHit:   result.CacheHit,
			Duration:   result.Duration,
			Error:      result.LoadError,
			Ignored:    result.Ignored,
			Score:      result.Score,
			Violations: violations,
		}
	}

	var jsonBytes []byte
	var err error
	if f.indent {
		jsonBytes, err = json.MarshalIndent(report, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	return writeOutput(f.out, f.outputFile, append(jsonBytes, '\n'))
}

// JSONReport represents the complete JSON report structure
type JSONReport struct {
	Header  JSONHeader   `json:"header"`
	Summary JSONSummary  `json:"summary"`
	Results []JSONResult `json:"results"`
}

// JSONHeader contains report metadata
type JSONHeader struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Preset    string `json:"preset,omitempty"`
	Timestamp string `json:"timestamp"`
}

// JSONSummary contains summary statistics
type JSONSummary struct {
	TotalFiles       int    `json:"total_files"`
	SuccessfulFiles  int    `json:"successful_files"`
	FailedFiles      int    `json:"failed_files"`
	TotalErrors      int    `json:"total_errors"`
	TotalWarnings    int    `json:"total_warnings"`
	TotalSuggestions int    `json:"total_suggestions"`
	BaselineIgnored  int    `json:"baseline_ignored,omitempty"`
	AverageScore     int    `json:"average_score"`
	Duration         string `json:"duration"`
}

// JSONResult represents a single page's linting result
type JSONResult struct {
	File       string                `json:"file"`
	Page       string                `json:"page"`
	ScanID     string                `json:"scan_id,omitempty"`
	Success    bool                  `json:"success"`
	Elements   int                   `json:"elements"`
	CacheHit   bool                  `json:"cache_hit,omitempty"`
	Duration   int64                 `json:"duration_ms,omitempty"`
	Error      string                `json:"error,omitempty"`
	Ignored    int                   `json:"ignored,omitempty"`
	Score      *scoring.QualityScore `json:"score,omitempty"`
	Violations []types.Violation     `json:"violations"`
}

// writeOutput writes content to outputFile, or to w when outputFile is
// empty or "-".
func writeOutput(w io.Writer, outputFile string, content []byte) error {
	if outputFile != "" && outputFile != "-" {
		if err := os.WriteFile(outputFile, content, 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", outputFile, err)
		}
		return nil
	}
	_, err := w.Write(content)
	return err
}
