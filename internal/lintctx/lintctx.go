// Package lintctx orchestrates one scan: it fetches elements and styles
// from the host, builds the graph, roles and style index once per content
// signature, and runs the rules.
package lintctx

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/classlint/internal/graph"
	"github.com/dotcommander/classlint/internal/preset"
	"github.com/dotcommander/classlint/internal/roles"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/runner"
	"github.com/dotcommander/classlint/internal/styleindex"
	"github.com/dotcommander/classlint/internal/types"
)

// ErrStaleScan is returned with a report when a newer scan started before
// this one finished. The report is complete but its context was not cached.
var ErrStaleScan = errors.New("scan superseded by a newer scan")

// DefaultConcurrency bounds concurrent host calls.
const DefaultConcurrency = 8

// Options configure an Engine.
type Options struct {
	Breakpoint  string
	Concurrency int
	// Threshold overrides the preset's role threshold when positive.
	Threshold float64
	Logger    *slog.Logger
}

// Snapshot is the derived state of one page, rebuilt only when its
// signature changes.
type Snapshot struct {
	Signature   string
	Elements    []types.ElementSnapshot
	Styles      []types.StyleDefinition
	Graph       *graph.Graph
	Roles       map[string]types.Role
	Assignments []roles.Assignment
	// ElementStyles holds each element's applied classes by Order.
	ElementStyles map[string][]types.AppliedClass
	Maps          *styleindex.Maps
}

// Report is the result of one scan.
type Report struct {
	ID         string                `json:"id"`
	Generation uint64                `json:"generation"`
	Stale      bool                  `json:"stale,omitempty"`
	ElementID  string                `json:"elementId,omitempty"`
	CacheHit   bool                  `json:"cacheHit"`
	Elements   int                   `json:"elements"`
	Violations []types.Violation     `json:"violations"`
	Roles      map[string]types.Role `json:"roles,omitempty"`
	Duration   time.Duration         `json:"duration"`
}

// Engine scans one page source. Scans may overlap; the newest scan wins
// the cache.
type Engine struct {
	preset   *preset.Preset
	registry *rules.Registry
	runner   *runner.Runner
	roles    *roles.Service
	index    *styleindex.Index
	elements ElementSource
	styles   StyleSource
	opts     Options
	logger   *slog.Logger

	generation atomic.Uint64

	mu     sync.Mutex
	cached *Snapshot
}

// New creates an Engine for p whose rule configuration lives in reg.
func New(p *preset.Preset, reg *rules.Registry, es ElementSource, ss StyleSource, opts Options) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Breakpoint == "" {
		opts.Breakpoint = "main"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		preset:   p,
		registry: reg,
		runner:   p.Runner(reg, logger),
		roles:    p.RoleService(opts.Threshold, logger),
		index:    styleindex.New(),
		elements: es,
		styles:   ss,
		opts:     opts,
		logger:   logger,
	}
}

// Invalidate drops the cached snapshot and style index.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.cached = nil
	e.mu.Unlock()
	e.index.Invalidate()
}

// Cached returns the cached snapshot, or nil.
func (e *Engine) Cached() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cached
}

// Generation returns the number of scans started.
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

// ScanPage lints every element and the page as a whole.
func (e *Engine) ScanPage(ctx context.Context) (*Report, error) {
	return e.scan(ctx, "")
}

// ScanElement lints a single element. Roles still come from the whole page.
func (e *Engine) ScanElement(ctx context.Context, elementID string) (*Report, error) {
	return e.scan(ctx, elementID)
}

func (e *Engine) scan(ctx context.Context, elementID string) (*Report, error) {
	start := time.Now()
	gen := e.generation.Add(1)
	report := &Report{ID: uuid.NewString(), Generation: gen, ElementID: elementID}

	snap, hit, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	report.CacheHit = hit
	report.Elements = len(snap.Elements)
	report.Roles = snap.Roles

	rc := &rules.RuleContext{Styles: snap.Styles, Maps: snap.Maps, Grammar: e.preset.Grammar}
	pageClasses := make(map[string][]string, len(snap.Elements))
	for _, el := range snap.Elements {
		pageClasses[el.ID] = el.Classes
	}

	violations := []types.Violation{}
	for _, el := range snap.Elements {
		if elementID != "" && el.ID != elementID {
			continue
		}
		violations = append(violations, e.runner.RunElement(runner.ElementInput{
			ElementID:   el.ID,
			Classes:     snap.ElementStyles[el.ID],
			Role:        snap.Roles[el.ID],
			Roles:       snap.Roles,
			Graph:       snap.Graph,
			PageClasses: pageClasses,
			Context:     rc,
		})...)
	}
	if elementID == "" {
		violations = append(violations, e.runner.RunPage(&rules.PageContext{
			Elements:       snap.Elements,
			Roles:          snap.Roles,
			Graph:          snap.Graph,
			Grammar:        e.preset.Grammar,
			MainCandidates: roles.MainCandidates(snap.Assignments),
		})...)
	}
	report.Violations = violations
	report.Duration = time.Since(start)

	if !e.commit(gen, snap) {
		report.Stale = true
		e.logger.Debug("discarding stale scan", "generation", gen, "latest", e.generation.Load())
		return report, ErrStaleScan
	}
	return report, nil
}

// commit stores snap unless a newer scan started.
func (e *Engine) commit(gen uint64, snap *Snapshot) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation.Load() {
		return false
	}
	e.cached = snap
	return true
}

// snapshot fetches host data and returns the cached snapshot when the
// signature is unchanged.
func (e *Engine) snapshot(ctx context.Context) (*Snapshot, bool, error) {
	elements, applied, parents := e.fetchElements(ctx)
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	styles := e.fetchStyles(ctx)
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	sig := Signature(elements, applied, parents, styleindex.HashStyles(styles))
	if cached := e.Cached(); cached != nil && cached.Signature == sig {
		return cached, true, nil
	}

	g := graph.New(parents, elements)
	result := e.roles.Detect(elements, g)
	maps := e.index.Build(styles)

	byName := make(map[string]map[string]any, len(styles))
	for _, s := range styles {
		byName[s.Name] = s.Properties
	}
	for id, classes := range applied {
		for i := range classes {
			if len(classes[i].Properties) == 0 {
				classes[i].Properties = byName[classes[i].Name]
			}
		}
		applied[id] = classes
	}

	return &Snapshot{
		Signature:     sig,
		Elements:      elements,
		Styles:        styles,
		Graph:         g,
		Roles:         result.Roles,
		Assignments:   result.Assignments,
		ElementStyles: applied,
		Maps:          maps,
	}, false, nil
}

type elementData struct {
	children []string
	applied  []types.AppliedClass
}

// fetchElements loads every element with its children and applied classes.
// A failed call leaves that element without data.
func (e *Engine) fetchElements(ctx context.Context) ([]types.ElementSnapshot, map[string][]types.AppliedClass, map[string]string) {
	elements, err := e.elements.Elements(ctx)
	if err != nil {
		e.logger.Warn("could not fetch elements", "error", err)
		elements = nil
	}

	data := make([]elementData, len(elements))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range elements {
		id := elements[i].ID
		g.Go(func() error {
			children, err := e.elements.Children(gctx, id)
			if err != nil {
				e.logger.Warn("could not fetch children", "element", id, "error", err)
				children = nil
			}
			classes, err := e.elements.AppliedClasses(gctx, id)
			if err != nil {
				e.logger.Warn("could not fetch applied classes", "element", id, "error", err)
				classes = nil
			}
			data[i] = elementData{children: children, applied: classes}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.ElementSnapshot, len(elements))
	applied := make(map[string][]types.AppliedClass, len(elements))
	parents := make(map[string]string)
	for i, el := range elements {
		snap := el
		snap.ChildrenIDs = append([]string(nil), data[i].children...)
		classes := append([]types.AppliedClass(nil), data[i].applied...)
		sort.SliceStable(classes, func(a, b int) bool { return classes[a].Order < classes[b].Order })
		snap.Classes = make([]string, len(classes))
		for j, c := range classes {
			snap.Classes[j] = c.Name
		}
		for _, child := range snap.ChildrenIDs {
			if _, seen := parents[child]; !seen {
				parents[child] = el.ID
			}
		}
		applied[el.ID] = classes
		out[i] = snap
	}
	for i := range out {
		out[i].ParentID = parents[out[i].ID]
	}
	return out, applied, parents
}

// fetchStyles loads every style with its properties at the configured
// breakpoint. A failed property call leaves that style without properties.
func (e *Engine) fetchStyles(ctx context.Context) []types.StyleDefinition {
	styles, err := e.styles.Styles(ctx)
	if err != nil {
		e.logger.Warn("could not fetch styles", "error", err)
		return nil
	}
	out := append([]types.StyleDefinition(nil), styles...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range out {
		if len(out[i].Properties) > 0 || out[i].ID == "" {
			continue
		}
		g.Go(func() error {
			props, err := e.styles.Properties(gctx, out[i].ID, e.opts.Breakpoint)
			if err != nil {
				e.logger.Warn("could not fetch style properties", "style", out[i].Name, "error", err)
				return nil
			}
			out[i].Properties = props
			return nil
		})
	}
	_ = g.Wait()
	return out
}
