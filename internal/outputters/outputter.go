package outputters

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dotcommander/classlint/internal/cli"
	"github.com/dotcommander/classlint/internal/config"
	"github.com/dotcommander/classlint/internal/output"
)

// Formatter renders a lint summary.
type Formatter interface {
	Format(summary *cli.LintSummary) error
}

// FormatterFactory creates a formatter by format name.
type FormatterFactory interface {
	CreateFormatter(format string) (Formatter, error)
}

// DefaultFormatterFactory builds the console, json and markdown formatters
// from configuration.
type DefaultFormatterFactory struct {
	config *config.Config
	out    io.Writer
}

// CreateFormatter implements FormatterFactory.
func (f *DefaultFormatterFactory) CreateFormatter(format string) (Formatter, error) {
	switch format {
	case "console":
		return output.NewConsoleFormatter(f.config.Quiet, f.config.Verbose).WithWriter(f.out), nil
	case "json":
		return output.NewJSONFormatter(f.config.Quiet, true, f.config.Output).WithWriter(f.out), nil
	case "markdown":
		return output.NewMarkdownFormatter(f.config.Quiet, f.config.Verbose, f.config.Output).WithWriter(f.out), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Outputter handles output formatting
type Outputter struct {
	config  *config.Config
	factory FormatterFactory
}

// NewOutputter creates a new Outputter writing to stdout
func NewOutputter(config *config.Config) *Outputter {
	return NewOutputterTo(config, os.Stdout)
}

// NewOutputterTo creates an Outputter whose stdout output goes to w.
func NewOutputterTo(config *config.Config, w io.Writer) *Outputter {
	return &Outputter{
		config:  config,
		factory: &DefaultFormatterFactory{config: config, out: w},
	}
}

// Format formats the lint summary using the configured format
func (o *Outputter) Format(summary *cli.LintSummary, format string) error {
	if summary.StartTime.IsZero() {
		summary.StartTime = time.Now()
	}
	if summary.ProjectRoot == "" {
		summary.ProjectRoot = o.config.Root
	}

	formatter, err := o.factory.CreateFormatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(summary)
}
