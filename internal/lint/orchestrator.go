// Package lint provides the core linting orchestration logic.
package lint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/classlint/internal/baseline"
	"github.com/dotcommander/classlint/internal/cli"
	"github.com/dotcommander/classlint/internal/config"
	"github.com/dotcommander/classlint/internal/cue"
	"github.com/dotcommander/classlint/internal/discovery"
	"github.com/dotcommander/classlint/internal/lintctx"
	"github.com/dotcommander/classlint/internal/outputters"
	"github.com/dotcommander/classlint/internal/preset"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/scoring"
	"github.com/dotcommander/classlint/internal/source"
	"github.com/dotcommander/classlint/internal/types"
)

// OrchestratorConfig holds configuration for the lint orchestrator.
type OrchestratorConfig struct {
	UseBaseline    bool
	CreateBaseline bool
	BaselinePath   string
	// Files restricts the run to these exports instead of discovery.
	// Nil discovers; an empty non-nil slice lints nothing.
	Files  []string
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// Orchestrator coordinates a lint run over the site exports of a project.
// Engines are kept per file so repeated runs hit the scan cache.
type Orchestrator struct {
	cfg       *config.Config
	opts      OrchestratorConfig
	preset    *preset.Preset
	registry  *rules.Registry
	store     *rules.Store
	validator *cue.Validator
	discovery *discovery.FileDiscovery
	scorer    *scoring.PageScorer
	logger    *slog.Logger

	mu    sync.Mutex
	pages map[string]*page
}

// page is the long-lived scan state of one export file.
type page struct {
	host   *siteHost
	engine *lintctx.Engine
}

// Result holds the outcome of a lint run.
type Result struct {
	Summary         *cli.LintSummary
	HasFailures     bool
	BaselineCreated int
}

// NewOrchestrator creates a new lint orchestrator. It resolves the preset
// and loads stored rule configuration.
func NewOrchestrator(cfg *config.Config, opts OrchestratorConfig) (*Orchestrator, error) {
	p, err := preset.Lookup(cfg.Preset)
	if err != nil {
		return nil, err
	}
	reg, err := p.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("error building rule registry: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.BaselinePath == "" {
		opts.BaselinePath = cfg.Baseline
	}
	if opts.BaselinePath == "" {
		opts.BaselinePath = baseline.DefaultPath
	}

	validator := cue.NewValidator()
	if err := validator.LoadSchemas(); err != nil {
		return nil, fmt.Errorf("error loading schemas: %w", err)
	}

	o := &Orchestrator{
		cfg:       cfg,
		opts:      opts,
		preset:    p,
		registry:  reg,
		store:     rules.NewStore(resolve(cfg.Root, cfg.RulesFile), opts.Logger),
		validator: validator,
		discovery: discovery.NewFileDiscovery(cfg.Root, cfg.Include, cfg.Exclude, cfg.FollowSymlinks),
		logger:    opts.Logger,
		pages:     make(map[string]*page),
	}
	o.scorer = scoring.NewPageScorer(o.categoryOf)
	if err := o.ReloadRules(); err != nil {
		return nil, err
	}
	return o, nil
}

// Registry returns the rule registry used by every scan.
func (o *Orchestrator) Registry() *rules.Registry {
	return o.registry
}

// Store returns the rule configuration store.
func (o *Orchestrator) Store() *rules.Store {
	return o.store
}

// Preset returns the active preset.
func (o *Orchestrator) Preset() *preset.Preset {
	return o.preset
}

// ReloadRules re-reads the stored rule configuration.
func (o *Orchestrator) ReloadRules() error {
	o.registry.ResetToDefaults()
	skipped, err := o.store.Load(o.registry)
	if err != nil {
		return err
	}
	if len(skipped) > 0 && !o.cfg.Quiet {
		fmt.Fprintf(o.opts.Stderr, "Warning: ignoring unknown rules in %s: %v\n", o.store.Path, skipped)
	}
	return nil
}

// Run executes the full lint workflow.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	files, err := o.files()
	if err != nil {
		return nil, err
	}
	o.forget(files)

	baselineFile := resolve(o.cfg.Root, o.opts.BaselinePath)
	b, err := o.loadBaseline(baselineFile)
	if err != nil && !o.cfg.Quiet {
		fmt.Fprintf(o.opts.Stderr, "Warning: Failed to load baseline: %v\n", err)
	}

	results := make([]cli.PageResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, o.cfg.Concurrency))
	for i, f := range files {
		g.Go(func() error {
			results[i] = o.lintFile(gctx, f)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &cli.LintSummary{
		ProjectRoot: o.cfg.Root,
		Preset:      o.preset.ID,
		StartTime:   start,
	}
	var issues []baseline.Issue
	for _, r := range results {
		if o.opts.CreateBaseline {
			for _, v := range r.Violations {
				issues = append(issues, baseline.Issue{Page: r.Page, Violation: v})
			}
		} else if o.opts.UseBaseline && b != nil {
			r.Violations, r.Ignored = b.Filter(r.Page, r.Violations)
		}
		if r.LoadError == "" {
			score := o.scorer.Score(r.Violations)
			r.Score = &score
		}
		summary.Results = append(summary.Results, r)
	}
	summary.Recalculate()
	summary.Duration = time.Since(start).Milliseconds()

	result := &Result{
		Summary:     summary,
		HasFailures: summary.HasFailures(types.Severity(o.cfg.FailOn)),
	}

	if o.opts.CreateBaseline {
		n, err := o.saveBaseline(issues, baselineFile)
		if err != nil {
			return nil, err
		}
		// When creating baseline, exit successfully to accept current state
		result.BaselineCreated = n
		result.HasFailures = false
		return result, nil
	}

	if err := outputters.NewOutputterTo(o.cfg, o.opts.Stdout).Format(summary, o.cfg.Format); err != nil {
		return nil, fmt.Errorf("error formatting output: %w", err)
	}
	return result, nil
}

// Scan lints one export file and returns the engine's report with the
// cached snapshot it was computed from.
func (o *Orchestrator) Scan(ctx context.Context, path string) (*lintctx.Report, *lintctx.Snapshot, error) {
	abs, err := discovery.ValidateFilePath(path)
	if err != nil {
		return nil, nil, err
	}
	site, err := source.Load(abs, o.validator)
	if err != nil {
		return nil, nil, err
	}
	p := o.pageFor(abs, site)
	report, err := p.engine.ScanPage(ctx)
	if err != nil && !errors.Is(err, lintctx.ErrStaleScan) {
		return nil, nil, err
	}
	return report, p.engine.Cached(), nil
}

// files returns the exports to lint, sorted by relative path.
func (o *Orchestrator) files() ([]discovery.File, error) {
	if o.opts.Files == nil {
		files, err := o.discovery.DiscoverFiles()
		if err != nil {
			return nil, fmt.Errorf("error discovering site exports: %w", err)
		}
		return files, nil
	}

	files := make([]discovery.File, 0, len(o.opts.Files))
	for _, path := range o.opts.Files {
		abs, err := discovery.ValidateFilePath(path)
		if err != nil {
			return nil, err
		}
		format, err := discovery.DetectFormat(abs)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(o.cfg.Root, abs)
		if err != nil {
			rel = abs
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		files = append(files, discovery.File{Path: abs, RelPath: filepath.ToSlash(rel), Size: info.Size(), Format: format})
	}
	return files, nil
}

func (o *Orchestrator) lintFile(ctx context.Context, f discovery.File) cli.PageResult {
	res := cli.PageResult{File: f.RelPath, Page: f.RelPath}

	site, err := source.Load(f.Path, o.validator)
	if err != nil {
		o.logger.Warn("cannot load export", "path", f.Path, "error", err)
		res.LoadError = err.Error()
		return res
	}
	res.Page = site.Page()

	report, err := o.pageFor(f.Path, site).engine.ScanPage(ctx)
	switch {
	case errors.Is(err, lintctx.ErrStaleScan):
		o.logger.Debug("stale scan", "path", f.Path, "generation", report.Generation)
	case err != nil:
		res.LoadError = err.Error()
		return res
	}

	res.ReportID = report.ID
	res.Generation = report.Generation
	res.Elements = report.Elements
	res.CacheHit = report.CacheHit
	res.Violations = report.Violations
	res.Duration = report.Duration.Milliseconds()
	return res
}

// pageFor returns the engine for path, pointing its host at site.
func (o *Orchestrator) pageFor(path string, site *source.Site) *page {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.pages[path]; ok {
		p.host.swap(site)
		return p
	}
	host := newSiteHost(site)
	p := &page{
		host: host,
		engine: lintctx.New(o.preset, o.registry, host, host, lintctx.Options{
			Breakpoint:  o.cfg.Breakpoint,
			Concurrency: o.cfg.Concurrency,
			Threshold:   o.cfg.Roles.Threshold,
			Logger:      o.logger.With("path", path),
		}),
	}
	o.pages[path] = p
	return p
}

// forget drops engines of files that are no longer linted.
func (o *Orchestrator) forget(files []discovery.File) {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f.Path] = true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for path := range o.pages {
		if !keep[path] {
			delete(o.pages, path)
		}
	}
}

// loadBaseline loads the baseline file if baseline mode is enabled.
func (o *Orchestrator) loadBaseline(baselineFile string) (*baseline.Baseline, error) {
	if !o.opts.UseBaseline || o.opts.CreateBaseline {
		return nil, nil
	}
	if _, err := os.Stat(baselineFile); err != nil {
		return nil, nil // File doesn't exist, not an error
	}
	return baseline.LoadBaseline(baselineFile)
}

// saveBaseline creates and saves a new baseline from the collected issues.
func (o *Orchestrator) saveBaseline(issues []baseline.Issue, baselineFile string) (int, error) {
	b := baseline.CreateBaseline(issues)
	b.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := b.SaveBaseline(baselineFile); err != nil {
		return 0, fmt.Errorf("failed to save baseline: %w", err)
	}
	if !o.cfg.Quiet {
		fmt.Fprintf(o.opts.Stdout, "Baseline created: %s (%d issues)\n", baselineFile, len(b.Fingerprints))
	}
	return len(b.Fingerprints), nil
}

func (o *Orchestrator) categoryOf(ruleID string) string {
	if rule, ok := o.registry.Rule(ruleID); ok {
		return rule.Info().Category
	}
	return ""
}

// resolve joins a relative path onto root.
func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
