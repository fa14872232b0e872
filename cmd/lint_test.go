package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/classlint/internal/baseline"
	"github.com/dotcommander/classlint/internal/output"
)

func parseReport(t *testing.T, stdout string) output.JSONReport {
	t.Helper()
	var report output.JSONReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report), stdout)
	return report
}

func TestLint_JSONReport(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "pages/home.site.json", homeExport)
	writeExport(t, root, "pages/broken.site.json", brokenExport)

	res := execute(t, "--root", root, "--format", "json", "-o", "-")
	assert.Equal(t, 1, res.code, res.stderr)

	report := parseReport(t, res.stdout)
	assert.Equal(t, "classlint", report.Header.Tool)
	assert.Equal(t, "lumos", report.Header.Preset)
	assert.Equal(t, 2, report.Summary.TotalFiles)
	assert.GreaterOrEqual(t, report.Summary.TotalErrors, 1)
}

func TestLint_ExplicitFiles(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "home.site.json", homeExport)
	broken := writeExport(t, root, "broken.site.json", brokenExport)

	res := execute(t, "--root", root, "--format", "json", "-o", "-", broken)
	report := parseReport(t, res.stdout)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "broken", report.Results[0].Page)
}

func TestLint_InvalidConfiguration(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "home.site.json", homeExport)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"json without output", []string{"--format", "json"}, "output file is required"},
		{"bad fail-on", []string{"--fail-on", "fatal"}, "invalid fail-on level"},
		{"unknown preset", []string{"--preset", "bootstrap"}, "unknown preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, append([]string{"--root", root}, tt.args...)...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestLint_Baseline(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "broken.site.json", brokenExport)

	res := execute(t, "--root", root, "--format", "json", "-o", "-")
	assert.Equal(t, 1, res.code)

	res = execute(t, "--root", root, "--baseline-create")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Baseline created")
	assert.FileExists(t, filepath.Join(root, baseline.DefaultPath))

	res = execute(t, "--root", root, "--baseline", "--format", "json", "-o", "-")
	assert.Equal(t, 0, res.code, res.stderr)
	report := parseReport(t, res.stdout)
	assert.Zero(t, report.Summary.TotalErrors)
	assert.Positive(t, report.Summary.BaselineIgnored)
}

func TestLint_WatchRejectsBaselineCreate(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "home.site.json", homeExport)

	res := execute(t, "--root", root, "--watch", "--baseline-create")
	assert.Equal(t, 1, res.code)
	assert.NotEmpty(t, res.stderr)
}

func TestLint_GitFlagConflicts(t *testing.T) {
	root := t.TempDir()
	home := writeExport(t, root, "home.site.json", homeExport)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"staged and diff", []string{"--staged", "--diff"}, "mutually exclusive"},
		{"staged with files", []string{"--staged", home}, "cannot be combined"},
		{"diff with watch", []string{"--diff", "--watch"}, "--watch cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, append([]string{"--root", root}, tt.args...)...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}
