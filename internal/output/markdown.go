package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dotcommander/classlint/internal/cli"
	"github.com/dotcommander/classlint/internal/scoring"
	"github.com/dotcommander/classlint/internal/types"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	quiet      bool
	verbose    bool
	outputFile string
	out        io.Writer
	now        func() time.Time
}

// NewMarkdownFormatter creates a new MarkdownFormatter
func NewMarkdownFormatter(quiet, verbose bool, outputFile string) *MarkdownFormatter {
	return &MarkdownFormatter{
		quiet:      quiet,
		verbose:    verbose,
		outputFile: outputFile,
		out:        os.Stdout,
		now:        time.Now,
	}
}

// WithWriter redirects stdout output to w.
func (f *MarkdownFormatter) WithWriter(w io.Writer) *MarkdownFormatter {
	f.out = w
	return f
}

// Format formats the lint summary as Markdown
func (f *MarkdownFormatter) Format(summary *cli.LintSummary) error {
	var builder strings.Builder

	builder.WriteString("# Classlint Report\n\n")
	builder.WriteString(fmt.Sprintf("**Generated:** %s\n\n", f.now().Format("2006-01-02 15:04:05")))
	if summary.ProjectRoot != "" {
		builder.WriteString(fmt.Sprintf("**Project:** %s\n\n", summary.ProjectRoot))
	}
	if summary.Preset != "" {
		builder.WriteString(fmt.Sprintf("**Preset:** `%s`\n\n", summary.Preset))
	}
	builder.WriteString(strings.Repeat("-", 50) + "\n\n")

	builder.WriteString("## Summary\n\n")
	builder.WriteString("| Metric | Count |\n")
	builder.WriteString("|--------|-------|\n")
	builder.WriteString(fmt.Sprintf("| Pages Scanned | %d |\n", summary.TotalFiles))
	builder.WriteString(fmt.Sprintf("| Successful | %d |\n", summary.SuccessfulFiles))
	builder.WriteString(fmt.Sprintf("| Failed | %d |\n", summary.FailedFiles))
	builder.WriteString(fmt.Sprintf("| Errors | %d |\n", summary.TotalErrors))
	builder.WriteString(fmt.Sprintf("| Warnings | %d |\n", summary.TotalWarnings))
	builder.WriteString(fmt.Sprintf("| Suggestions | %d |\n", summary.TotalSuggestions))
	if summary.BaselineIgnored > 0 {
		builder.WriteString(fmt.Sprintf("| Baseline Ignored | %d |\n", summary.BaselineIgnored))
	}
	if hasScores(summary) {
		builder.WriteString(fmt.Sprintf("| Average Score | %d (%s) |\n", summary.AverageScore, scoring.TierFromScore(summary.AverageScore)))
	}
	builder.WriteString("\n")

	builder.WriteString("## Detailed Results\n\n")

	if summary.TotalFiles == 0 {
		builder.WriteString("*No site exports found to lint.*\n\n")
	} else {
		if summary.TotalFiles > 1 {
			builder.WriteString("### Pages\n\n")
			for _, result := range summary.Results {
				fileName := strings.TrimPrefix(result.File, "./")
				builder.WriteString(fmt.Sprintf("- [%s](#%s)\n", fileName, createAnchor(fileName)))
			}
			builder.WriteString("\n")
		}

		for i := range summary.Results {
			result := &summary.Results[i]
			if !f.verbose && len(result.Violations) == 0 && result.LoadError == "" {
				continue
			}

			fileName := strings.TrimPrefix(result.File, "./")
			builder.WriteString(fmt.Sprintf("### %s\n\n", fileName))
			builder.WriteString(fmt.Sprintf("Status: %s\n\n", getStatusEmoji(result.Success())))
			builder.WriteString(fmt.Sprintf("Page: `%s`\n\n", result.Page))

			if result.LoadError != "" {
				builder.WriteString(fmt.Sprintf("> %s\n\n", result.LoadError))
				continue
			}

			for _, sev := range []types.Severity{types.SeverityError, types.SeverityWarning, types.SeveritySuggestion} {
				writeSection(&builder, sev, result.Violations)
			}
		}
	}

	builder.WriteString("## Conclusion\n\n")
	if summary.FailedFiles == 0 {
		builder.WriteString("✓ All pages passed!\n")
	} else {
		builder.WriteString(fmt.Sprintf("✗ %d pages failed\n", summary.FailedFiles))
	}

	return writeOutput(f.out, f.outputFile, []byte(builder.String()))
}

var sectionTitles = map[types.Severity]string{
	types.SeverityError:      "Errors",
	types.SeverityWarning:    "Warnings",
	types.SeveritySuggestion: "Suggestions",
}

func writeSection(builder *strings.Builder, sev types.Severity, violations []types.Violation) {
	var lines []string
	for _, v := range violations {
		if v.Severity != sev {
			continue
		}
		line := fmt.Sprintf("- **%s** - %s `[%s]`", location(v), v.Message, v.RuleID)
		if v.Fix != nil {
			line += fmt.Sprintf(" (fix: %s)", describeFix(v.Fix))
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	builder.WriteString(fmt.Sprintf("#### %s\n\n", sectionTitles[sev]))
	builder.WriteString(strings.Join(lines, "\n"))
	builder.WriteString("\n\n")
}

func location(v types.Violation) string {
	switch {
	case v.ClassName != "":
		return fmt.Sprintf("%s .%s", v.ElementID, v.ClassName)
	case v.ElementID != "":
		return v.ElementID
	default:
		return "page"
	}
}

// getStatusEmoji returns an emoji for the status
func getStatusEmoji(success bool) string {
	if success {
		return "✅"
	}
	return "❌"
}

// createAnchor creates a markdown-safe anchor
func createAnchor(text string) string {
	anchor := strings.ToLower(text)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.ReplaceAll(anchor, ".", "")
	anchor = strings.ReplaceAll(anchor, "/", "-")
	return anchor
}

func hasScores(summary *cli.LintSummary) bool {
	for i := range summary.Results {
		if summary.Results[i].Score != nil {
			return true
		}
	}
	return false
}
