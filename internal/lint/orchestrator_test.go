package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/classlint/internal/cli"
	"github.com/dotcommander/classlint/internal/config"
	"github.com/dotcommander/classlint/internal/discovery"
	"github.com/dotcommander/classlint/internal/output"
	"github.com/dotcommander/classlint/internal/preset"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/ruleset"
	"github.com/dotcommander/classlint/internal/types"
)

const homeExport = `{
  "page": "home",
  "elements": [
    {"id": "m", "tagName": "main", "classes": ["page_main"], "childrenIds": ["s"]},
    {"id": "s", "tagName": "section", "classes": ["section_hero"], "childrenIds": ["h"]},
    {"id": "h", "tagName": "h1", "classes": ["hero_title"]}
  ],
  "styles": [
    {"id": "st1", "name": "page_main", "order": 1},
    {"id": "st2", "name": "section_hero", "order": 2},
    {"id": "st3", "name": "hero_title", "order": 3}
  ]
}`

const brokenExport = `{
  "page": "broken",
  "elements": [
    {"id": "d", "tagName": "div", "classes": ["is-dark"]}
  ],
  "styles": [
    {"id": "st1", "name": "is-dark", "order": 1, "isCombo": true}
  ]
}`

func writeExport(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(root string) *config.Config {
	return &config.Config{
		Root:        root,
		Preset:      preset.IDLumos,
		Include:     discovery.DefaultInclude,
		Format:      "json",
		Output:      "-",
		FailOn:      "error",
		Breakpoint:  "main",
		Concurrency: 2,
		RulesFile:   ".classlint-rules.json",
		Roles:       config.RolesConfig{Threshold: 0.6},
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, opts OrchestratorConfig) (*Orchestrator, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	o, err := NewOrchestrator(cfg, opts)
	require.NoError(t, err)
	return o, &stdout
}

func ruleIDs(vs []types.Violation) []string {
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.RuleID)
	}
	return ids
}

func resultFor(t *testing.T, s *cli.LintSummary, page string) cli.PageResult {
	t.Helper()
	for _, r := range s.Results {
		if r.Page == page {
			return r
		}
	}
	t.Fatalf("no result for page %q", page)
	return cli.PageResult{}
}

func TestNewOrchestrator_UnknownPreset(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Preset = "bootstrap"
	_, err := NewOrchestrator(cfg, OrchestratorConfig{})
	assert.ErrorIs(t, err, preset.ErrUnknownPreset)
}

func TestRun_DiscoversAndReports(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "pages/home.site.json", homeExport)
	writeExport(t, root, "pages/broken.site.json", brokenExport)
	writeExport(t, root, "pages/notes.json", `{"elements": []}`)

	o, stdout := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.TotalFiles)
	assert.Equal(t, "lumos", result.Summary.Preset)
	assert.True(t, result.HasFailures)

	broken := resultFor(t, result.Summary, "broken")
	assert.Equal(t, "pages/broken.site.json", broken.File)
	assert.NotEmpty(t, broken.ReportID)
	assert.Equal(t, 1, broken.Elements)
	assert.Contains(t, ruleIDs(broken.Violations), ruleset.SingleMain)
	assert.Contains(t, ruleIDs(broken.Violations), ruleset.ComboRequiresBase)

	home := resultFor(t, result.Summary, "home")
	assert.NotContains(t, ruleIDs(home.Violations), ruleset.SingleMain)

	var report output.JSONReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Len(t, report.Results, 2)
}

func TestRun_SecondRunHitsCache(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "home.site.json", homeExport)

	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{})
	first, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Summary.Results[0].CacheHit)

	second, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Summary.Results[0].CacheHit)
	assert.Greater(t, second.Summary.Results[0].Generation, first.Summary.Results[0].Generation)

	// Changed content misses the cache
	writeExport(t, root, "home.site.json", brokenExport)
	third, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, third.Summary.Results[0].CacheHit)
	assert.Equal(t, "broken", third.Summary.Results[0].Page)
}

func TestRun_StoredRuleConfiguration(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "broken.site.json", brokenExport)
	cfg := testConfig(root)

	o, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{})
	off := false
	require.NoError(t, o.Registry().UpdateRuleConfiguration(ruleset.SingleMain, rules.Update{Enabled: &off}))
	warn := types.SeverityWarning
	require.NoError(t, o.Registry().UpdateRuleConfiguration(ruleset.ComboRequiresBase, rules.Update{Severity: &warn}))
	require.NoError(t, o.Store().Save(o.Registry(), preset.IDLumos))

	fresh, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{})
	result, err := fresh.Run(context.Background())
	require.NoError(t, err)

	vs := result.Summary.Results[0].Violations
	assert.NotContains(t, ruleIDs(vs), ruleset.SingleMain)
	for _, v := range vs {
		if v.RuleID == ruleset.ComboRequiresBase {
			assert.Equal(t, types.SeverityWarning, v.Severity)
		}
	}
}

func TestRun_ReloadRulesAppliesOnCacheHit(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "broken.site.json", brokenExport)
	cfg := testConfig(root)

	o, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{})
	first, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, ruleIDs(first.Summary.Results[0].Violations), ruleset.SingleMain)

	off := false
	other, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{})
	require.NoError(t, other.Registry().UpdateRuleConfiguration(ruleset.SingleMain, rules.Update{Enabled: &off}))
	require.NoError(t, other.Store().Save(other.Registry(), preset.IDLumos))

	require.NoError(t, o.ReloadRules())
	second, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Summary.Results[0].CacheHit)
	assert.NotContains(t, ruleIDs(second.Summary.Results[0].Violations), ruleset.SingleMain)
}

func TestRun_Baseline(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "broken.site.json", brokenExport)
	cfg := testConfig(root)

	creator, stdout := newTestOrchestrator(t, cfg, OrchestratorConfig{CreateBaseline: true})
	created, err := creator.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, created.HasFailures)
	assert.Positive(t, created.BaselineCreated)
	assert.Contains(t, stdout.String(), "Baseline created")
	assert.FileExists(t, filepath.Join(root, ".classlintbaseline.json"))

	user, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{UseBaseline: true})
	result, err := user.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.HasFailures)
	assert.Zero(t, result.Summary.TotalErrors)
	assert.Equal(t, created.BaselineCreated, result.Summary.BaselineIgnored)

	// Without the flag the baseline is not applied
	plain, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{})
	result, err = plain.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.HasFailures)
}

func TestRun_ExplicitFiles(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "home.site.json", homeExport)
	broken := writeExport(t, root, "exports/broken.json", brokenExport)

	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{Files: []string{broken}})
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Summary.Results, 1)
	assert.Equal(t, "exports/broken.json", result.Summary.Results[0].File)

	missing, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{Files: []string{filepath.Join(root, "nope.json")}})
	_, err = missing.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_InvalidExportIsReported(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "bad.site.json", `{"elements": [{"id": ""}]}`)
	writeExport(t, root, "home.site.json", homeExport)

	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	bad := resultFor(t, result.Summary, "bad.site.json")
	assert.NotEmpty(t, bad.LoadError)
	assert.True(t, result.HasFailures)
	assert.GreaterOrEqual(t, result.Summary.FailedFiles, 1)
}

func TestRun_FailOn(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "broken.site.json", brokenExport)

	cfg := testConfig(root)
	o, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{})
	off := false
	require.NoError(t, o.Registry().UpdateRuleConfiguration(ruleset.SingleMain, rules.Update{Enabled: &off}))
	warn := types.SeverityWarning
	require.NoError(t, o.Registry().UpdateRuleConfiguration(ruleset.ComboRequiresBase, rules.Update{Severity: &warn}))

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Summary.TotalErrors)
	assert.Positive(t, result.Summary.TotalWarnings)
	assert.False(t, result.HasFailures)

	cfg.FailOn = "warning"
	result, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.HasFailures)
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	path := writeExport(t, root, "home.site.json", homeExport)

	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{})
	report, snap, err := o.Scan(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 3, report.Elements)
	assert.Equal(t, types.RoleMain, snap.Roles["m"])
	assert.Len(t, snap.Elements, 3)
}

func TestRun_EmptyFileListLintsNothing(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "broken.site.json", brokenExport)

	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{Files: []string{}})
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Summary.TotalFiles)
	assert.False(t, result.HasFailures)
}

func TestRun_ScoresLoadedPages(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "broken.site.json", brokenExport)
	writeExport(t, root, "garbage.site.json", `{"elements": [`)

	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	broken := resultFor(t, result.Summary, "broken")
	require.NotNil(t, broken.Score)
	assert.Less(t, broken.Score.Overall, 100)

	garbage := resultFor(t, result.Summary, "garbage.site.json")
	assert.NotEmpty(t, garbage.LoadError)
	assert.Nil(t, garbage.Score)
	assert.Equal(t, broken.Score.Overall, result.Summary.AverageScore)
}
