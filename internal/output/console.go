package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/classlint/internal/cli"
	"github.com/dotcommander/classlint/internal/scoring"
	"github.com/dotcommander/classlint/internal/types"
)

// ConsoleFormatter formats output for console display
type ConsoleFormatter struct {
	quiet    bool
	verbose  bool
	colorize bool
	out      io.Writer
}

// NewConsoleFormatter creates a new ConsoleFormatter writing to stdout.
func NewConsoleFormatter(quiet, verbose bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		quiet:    quiet,
		verbose:  verbose,
		colorize: true,
		out:      os.Stdout,
	}
}

// WithWriter redirects output to w.
func (f *ConsoleFormatter) WithWriter(w io.Writer) *ConsoleFormatter {
	f.out = w
	return f
}

// WithColor toggles lipgloss styling.
func (f *ConsoleFormatter) WithColor(on bool) *ConsoleFormatter {
	f.colorize = on
	return f
}

// Format formats the lint summary for console output
func (f *ConsoleFormatter) Format(summary *cli.LintSummary) error {
	if f.quiet {
		// Only show exit code in quiet mode
		return nil
	}

	f.printPageResults(summary)
	f.printSummary(summary)
	f.printConclusion(summary)
	return nil
}

func (f *ConsoleFormatter) style(color string) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// printPageResults prints results for each page
func (f *ConsoleFormatter) printPageResults(summary *cli.LintSummary) {
	for i := range summary.Results {
		result := &summary.Results[i]
		hasIssues := len(result.Violations) > 0 || result.LoadError != ""
		if !hasIssues && !f.verbose {
			continue
		}

		status, color := "✓", "10" // green
		switch {
		case !result.Success():
			status, color = "✗", "9" // red
		case len(result.Violations) > 0:
			status, color = "⚠", "3" // yellow
		}

		label := result.File
		if result.Page != "" && result.Page != result.File {
			label = fmt.Sprintf("%s (%s)", result.File, result.Page)
		}
		fmt.Fprintf(f.out, "%s %s\n", f.style(color).Render(status), label)

		if result.LoadError != "" {
			fmt.Fprintf(f.out, "    ✘ %s\n", result.LoadError)
			continue
		}
		for _, v := range result.Violations {
			f.printViolation(v)
		}
		if f.verbose {
			cache := ""
			if result.CacheHit {
				cache = ", cached"
			}
			score := ""
			if result.Score != nil {
				score = fmt.Sprintf(", score %d (%s)", result.Score.Overall, result.Score.Tier)
			}
			fmt.Fprintf(f.out, "    %s\n", f.style("8").Render(
				fmt.Sprintf("%d elements, scan %s%s%s", result.Elements, result.ReportID, cache, score)))
		}
	}
}

// printViolation prints a violation with appropriate styling
func (f *ConsoleFormatter) printViolation(v types.Violation) {
	var prefix string
	var style lipgloss.Style
	switch v.Severity {
	case types.SeverityError:
		prefix, style = "    ✘ ", f.style("9") // red
	case types.SeverityWarning:
		prefix, style = "    ⚠ ", f.style("3") // yellow
	default:
		prefix, style = "    💡 ", f.style("7") // gray
	}

	fmt.Fprintf(f.out, "%s%s: %s %s\n", prefix, style.Render(location(v)), v.Message,
		f.style("8").Render("["+v.RuleID+"]"))

	if f.verbose && v.Fix != nil {
		fmt.Fprintf(f.out, "        fix: %s\n", describeFix(v.Fix))
	}
}

// printSummary prints the summary statistics
func (f *ConsoleFormatter) printSummary(summary *cli.LintSummary) {
	if summary.FailedFiles == 0 && summary.TotalWarnings == 0 && summary.TotalSuggestions == 0 {
		return
	}

	duration := time.Since(summary.StartTime)
	if summary.StartTime.IsZero() {
		duration = 0
	}
	fmt.Fprintf(f.out, "\n%d/%d passed, %d errors, %d warnings, %d suggestions (%v)\n",
		summary.SuccessfulFiles, summary.TotalFiles,
		summary.TotalErrors, summary.TotalWarnings, summary.TotalSuggestions,
		duration.Round(time.Millisecond))
	if summary.BaselineIgnored > 0 {
		fmt.Fprintf(f.out, "%d known violations ignored by baseline\n", summary.BaselineIgnored)
	}
	if f.verbose && hasScores(summary) {
		fmt.Fprintf(f.out, "Average score: %d (%s)\n", summary.AverageScore, scoring.TierFromScore(summary.AverageScore))
	}
}

// printConclusion prints the conclusion message
func (f *ConsoleFormatter) printConclusion(summary *cli.LintSummary) {
	if summary.FailedFiles != 0 || summary.TotalWarnings != 0 || summary.TotalSuggestions != 0 {
		return
	}
	if len(summary.Results) > 0 && f.verbose {
		fmt.Fprintln(f.out)
	}
	msg := fmt.Sprintf("✓ All %d pages passed", summary.TotalFiles)
	if f.colorize {
		msg = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render(msg)
	}
	fmt.Fprintln(f.out, msg)
}

// describeFix renders a fix suggestion as one line.
func describeFix(fix *types.Fix) string {
	switch fix.Kind {
	case types.FixRename:
		return fmt.Sprintf("rename to %q", fix.Replacement)
	case types.FixReplace:
		return fmt.Sprintf("replace with %q", fix.Replacement)
	case types.FixReorder:
		return fmt.Sprintf("reorder as %v", fix.Classes)
	case types.FixRemove:
		return fmt.Sprintf("remove %v", fix.Classes)
	default:
		return fix.Description
	}
}
