// Package cli holds the result types of a lint run shared by the
// orchestrator and the output formatters.
package cli

import (
	"time"

	"github.com/dotcommander/classlint/internal/scoring"
	"github.com/dotcommander/classlint/internal/types"
)

// PageResult is the outcome of linting one export file.
type PageResult struct {
	File       string
	Page       string
	ReportID   string
	Generation uint64
	Elements   int
	CacheHit   bool
	Violations []types.Violation
	// Ignored counts violations suppressed by the baseline.
	Ignored int
	// LoadError is set when the export could not be read or validated.
	LoadError string
	Duration  int64 // milliseconds
	// Score is nil when the page could not be loaded.
	Score *scoring.QualityScore
}

// Count returns the number of violations at severity sev.
func (r *PageResult) Count(sev types.Severity) int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == sev {
			n++
		}
	}
	return n
}

// Success reports whether the page loaded and has no error violations.
func (r *PageResult) Success() bool {
	return r.LoadError == "" && r.Count(types.SeverityError) == 0
}

// LintSummary summarizes a lint run over one or more pages.
type LintSummary struct {
	ProjectRoot      string
	Preset           string
	StartTime        time.Time
	TotalFiles       int
	SuccessfulFiles  int
	FailedFiles      int
	TotalErrors      int
	TotalWarnings    int
	TotalSuggestions int
	BaselineIgnored  int
	// AverageScore is the mean score of the scored pages, 0 when none were.
	AverageScore int
	Duration     int64
	Results          []PageResult
}

// Add appends r and updates the totals.
func (s *LintSummary) Add(r PageResult) {
	s.Results = append(s.Results, r)
	s.Recalculate()
}

// Recalculate recomputes the totals from Results.
func (s *LintSummary) Recalculate() {
	s.TotalFiles = len(s.Results)
	s.SuccessfulFiles, s.FailedFiles = 0, 0
	s.TotalErrors, s.TotalWarnings, s.TotalSuggestions = 0, 0, 0
	s.BaselineIgnored = 0
	scored, total := 0, 0
	for i := range s.Results {
		r := &s.Results[i]
		if r.Score != nil {
			scored++
			total += r.Score.Overall
		}
		s.TotalErrors += r.Count(types.SeverityError)
		s.TotalWarnings += r.Count(types.SeverityWarning)
		s.TotalSuggestions += r.Count(types.SeveritySuggestion)
		s.BaselineIgnored += r.Ignored
		if r.Success() {
			s.SuccessfulFiles++
		} else {
			s.FailedFiles++
		}
	}
	s.AverageScore = 0
	if scored > 0 {
		s.AverageScore = total / scored
	}
}

// HasFailures reports whether any page failed to load or carries a
// violation at or above failOn.
func (s *LintSummary) HasFailures(failOn types.Severity) bool {
	for i := range s.Results {
		r := &s.Results[i]
		if r.LoadError != "" {
			return true
		}
		for _, v := range r.Violations {
			if v.Severity.Rank() >= failOn.Rank() {
				return true
			}
		}
	}
	return false
}
