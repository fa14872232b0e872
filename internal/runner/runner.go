// Package runner executes registered rules against one element or one page
// and normalizes their results into violations.
package runner

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/dotcommander/classlint/internal/grammar"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/types"
)

// ElementInput is everything the runner needs to lint one element.
type ElementInput struct {
	ElementID string
	// Classes may arrive in any order; they are evaluated by Order.
	Classes     []types.AppliedClass
	Role        types.Role
	Roles       map[string]types.Role
	Graph       rules.GraphView
	PageClasses map[string][]string
	Context     *rules.RuleContext
}

// Runner dispatches enabled rules by shape.
type Runner struct {
	registry *rules.Registry
	grammar  grammar.Grammar
	logger   *slog.Logger
}

// New creates a Runner. A nil logger discards output.
func New(reg *rules.Registry, g grammar.Grammar, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{registry: reg, grammar: g, logger: logger}
}

// Grammar returns the grammar classes are parsed with.
func (r *Runner) Grammar() grammar.Grammar {
	return r.grammar
}

// Classify parses and orders applied classes.
func (r *Runner) Classify(elementID string, applied []types.AppliedClass) []rules.ClassInput {
	sorted := append([]types.AppliedClass(nil), applied...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	out := make([]rules.ClassInput, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, rules.ClassInput{
			AppliedClass: c,
			Parsed:       r.grammar.Parse(c.Name),
			ElementID:    elementID,
		})
	}
	return out
}

// RunElement executes every enabled element rule against in.
func (r *Runner) RunElement(in ElementInput) []types.Violation {
	classes := r.Classify(in.ElementID, in.Classes)
	if len(classes) == 0 {
		return nil
	}
	kinds := make(map[types.ClassKind]bool, len(classes))
	for _, c := range classes {
		kinds[c.Parsed.Kind] = true
	}
	ec := &rules.ElementContext{
		ElementID:   in.ElementID,
		Classes:     classes,
		Role:        in.Role,
		Roles:       in.Roles,
		Graph:       in.Graph,
		Grammar:     r.grammar,
		PageClasses: in.PageClasses,
	}
	rc := in.Context
	if rc == nil {
		rc = &rules.RuleContext{}
	}
	if rc.Grammar == nil {
		rc.Grammar = r.grammar
	}

	n := normalizer{element: in.ElementID, classes: classes}
	var out []types.Violation
	for _, rule := range r.registry.EnabledRules() {
		meta := rule.Info()
		if !targetsAny(meta, kinds) {
			continue
		}
		cfg, ok := r.registry.Configuration(meta.ID)
		if !ok {
			continue
		}

		switch rv := rule.(type) {
		case *rules.NamingRule:
			for i := range classes {
				c := classes[i]
				if !meta.Targets(c.Parsed.Kind) {
					continue
				}
				if v, ok := r.naming(rv, c, cfg.CustomSettings); ok {
					out = append(out, n.normalize(v, meta, cfg, &c))
				}
			}
		case *rules.PropertyRule:
			for i := range classes {
				c := classes[i]
				if !meta.Targets(c.Parsed.Kind) {
					continue
				}
				vs := r.guard(meta.ID, in.ElementID, func() ([]types.Violation, error) {
					return rv.Analyze(c, rc, cfg.CustomSettings)
				})
				for _, v := range vs {
					out = append(out, n.normalize(v, meta, cfg, &c))
				}
			}
		case *rules.StructureRule:
			vs := r.guard(meta.ID, in.ElementID, func() ([]types.Violation, error) {
				return rv.AnalyzeElement(ec, cfg.CustomSettings)
			})
			for _, v := range vs {
				out = append(out, n.normalize(v, meta, cfg, nil))
			}
		case *rules.CompositionRule:
			vs := r.guard(meta.ID, in.ElementID, func() ([]types.Violation, error) {
				return rv.AnalyzeElement(ec, cfg.CustomSettings)
			})
			for _, v := range vs {
				out = append(out, n.normalize(v, meta, cfg, nil))
			}
		case *rules.PageRule:
			// dispatched by RunPage
		}
	}
	return out
}

// RunPage executes every enabled page rule.
func (r *Runner) RunPage(pc *rules.PageContext) []types.Violation {
	if pc.Grammar == nil {
		pc.Grammar = r.grammar
	}
	classes := make(map[string][]string, len(pc.Elements))
	for _, el := range pc.Elements {
		classes[el.ID] = el.Classes
	}

	var out []types.Violation
	for _, rule := range r.registry.EnabledPageRules() {
		meta := rule.Info()
		cfg, ok := r.registry.Configuration(meta.ID)
		if !ok {
			continue
		}
		vs := r.guard(meta.ID, "", func() ([]types.Violation, error) {
			return rule.AnalyzePage(pc, cfg.CustomSettings)
		})
		for _, v := range vs {
			n := normalizer{element: v.ElementID}
			if v.ElementID != "" {
				n.classes = r.Classify(v.ElementID, applied(classes[v.ElementID]))
			}
			out = append(out, n.normalize(v, meta, cfg, nil))
		}
	}
	return out
}

// naming runs Evaluate, or Test when Evaluate is nil.
func (r *Runner) naming(rule *rules.NamingRule, c rules.ClassInput, settings rules.Settings) (v types.Violation, found bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("rule panicked", "rule", rule.ID, "element", c.ElementID, "class", c.Name, "error", rec)
			found = false
		}
	}()

	if rule.Evaluate != nil {
		res := rule.Evaluate(c.Name, c.Parsed, settings)
		if res == nil {
			return types.Violation{}, false
		}
		return *res, true
	}
	if rule.Test(c.Name, c.Parsed) {
		return types.Violation{}, false
	}
	return types.Violation{
		Message: fmt.Sprintf("Class %q does not satisfy %s", c.Name, rule.Name),
	}, true
}

// guard runs fn, absorbing errors and panics as zero violations.
func (r *Runner) guard(ruleID, elementID string, fn func() ([]types.Violation, error)) (out []types.Violation) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("rule panicked", "rule", ruleID, "element", elementID, "error", rec)
			out = nil
		}
	}()
	vs, err := fn()
	if err != nil {
		r.logger.Warn("rule failed", "rule", ruleID, "element", elementID, "error", err)
		return nil
	}
	return vs
}

func targetsAny(meta *rules.Meta, kinds map[types.ClassKind]bool) bool {
	if len(meta.TargetClassTypes) == 0 {
		return true
	}
	for _, k := range meta.TargetClassTypes {
		if kinds[k] {
			return true
		}
	}
	return false
}

func applied(names []string) []types.AppliedClass {
	out := make([]types.AppliedClass, len(names))
	for i, n := range names {
		out[i] = types.AppliedClass{Name: n, Order: i}
	}
	return out
}
