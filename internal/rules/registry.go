package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dotcommander/classlint/internal/types"
)

// Sentinel errors.
var (
	ErrDuplicateRule = errors.New("rule already registered")
	ErrUnknownRule   = errors.New("unknown rule")
	ErrInvalidRule   = errors.New("invalid rule")
)

// Configuration is the effective configuration of one rule.
type Configuration struct {
	RuleID         string         `json:"ruleId"`
	Enabled        bool           `json:"enabled"`
	Severity       types.Severity `json:"severity"`
	CustomSettings Settings       `json:"customSettings"`
}

// Update is a partial configuration change. Nil fields are left alone;
// CustomSettings is deep-merged into the existing settings.
type Update struct {
	Enabled        *bool
	Severity       *types.Severity
	CustomSettings map[string]any
}

// Registry holds rule definitions and their configuration. It is an
// explicit value: construct one per session and pass it where needed.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	byID    map[string]Rule
	configs map[string]*Configuration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]Rule),
		configs: make(map[string]*Configuration),
	}
}

// DefaultConfiguration computes a rule's configuration from its defaults
// and its schema defaults.
func DefaultConfiguration(rule Rule) Configuration {
	meta := rule.Info()
	sev := meta.Severity
	if !sev.Valid() {
		sev = types.SeverityWarning
	}
	return Configuration{
		RuleID:         meta.ID,
		Enabled:        meta.Enabled,
		Severity:       sev,
		CustomSettings: meta.Config.Defaults(),
	}
}

// Register adds rule and seeds its default configuration.
func (r *Registry) Register(rule Rule) error {
	if rule == nil || rule.Info().ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRule)
	}
	if err := validateShape(rule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := rule.Info().ID
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, id)
	}
	r.byID[id] = rule
	r.order = append(r.order, id)
	cfg := DefaultConfiguration(rule)
	r.configs[id] = &cfg
	return nil
}

// MustRegister registers rules and panics on error. Intended for built-in
// rule sets assembled at startup.
func (r *Registry) MustRegister(rules ...Rule) {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
}

func validateShape(rule Rule) error {
	id := rule.Info().ID
	switch v := rule.(type) {
	case *NamingRule:
		if v.Test == nil && v.Evaluate == nil {
			return fmt.Errorf("%w: naming rule %s needs Test or Evaluate", ErrInvalidRule, id)
		}
	case *PropertyRule:
		if v.Analyze == nil {
			return fmt.Errorf("%w: property rule %s needs Analyze", ErrInvalidRule, id)
		}
	case *StructureRule:
		if v.AnalyzeElement == nil {
			return fmt.Errorf("%w: structure rule %s needs AnalyzeElement", ErrInvalidRule, id)
		}
	case *CompositionRule:
		if v.AnalyzeElement == nil {
			return fmt.Errorf("%w: composition rule %s needs AnalyzeElement", ErrInvalidRule, id)
		}
	case *PageRule:
		if v.AnalyzePage == nil {
			return fmt.Errorf("%w: page rule %s needs AnalyzePage", ErrInvalidRule, id)
		}
	}
	return nil
}

// Rule returns a rule by id.
func (r *Registry) Rule(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.byID[id]
	return rule, ok
}

// Rules returns every rule in registration order.
func (r *Registry) Rules() []Rule {
	return r.filter(func(Rule) bool { return true })
}

// ElementRules returns rules dispatched per element, in registration order.
func (r *Registry) ElementRules() []Rule {
	return r.filter(func(rule Rule) bool { return rule.Type() != TypePage })
}

// PageRules returns rules dispatched once per page.
func (r *Registry) PageRules() []*PageRule {
	var out []*PageRule
	for _, rule := range r.filter(func(rule Rule) bool { return rule.Type() == TypePage }) {
		out = append(out, rule.(*PageRule))
	}
	return out
}

// RulesByClassType returns rules that target kind.
func (r *Registry) RulesByClassType(kind types.ClassKind) []Rule {
	return r.filter(func(rule Rule) bool { return rule.Info().Targets(kind) })
}

// RulesByCategory returns rules in category.
func (r *Registry) RulesByCategory(category string) []Rule {
	return r.filter(func(rule Rule) bool { return rule.Info().Category == category })
}

// RulesByType returns rules of one shape.
func (r *Registry) RulesByType(t Type) []Rule {
	return r.filter(func(rule Rule) bool { return rule.Type() == t })
}

// EnabledRules returns enabled element rules in registration order.
func (r *Registry) EnabledRules() []Rule {
	return r.filter(func(rule Rule) bool {
		return rule.Type() != TypePage && r.configs[rule.Info().ID].Enabled
	})
}

// EnabledPageRules returns enabled page rules in registration order.
func (r *Registry) EnabledPageRules() []*PageRule {
	var out []*PageRule
	for _, rule := range r.filter(func(rule Rule) bool {
		return rule.Type() == TypePage && r.configs[rule.Info().ID].Enabled
	}) {
		out = append(out, rule.(*PageRule))
	}
	return out
}

func (r *Registry) filter(keep func(Rule) bool) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rule
	for _, id := range r.order {
		if rule := r.byID[id]; keep(rule) {
			out = append(out, rule)
		}
	}
	return out
}

// Categories returns the distinct rule categories, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	for _, rule := range r.Rules() {
		seen[rule.Info().Category] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Configuration returns a copy of the effective configuration of id.
func (r *Registry) Configuration(id string) (Configuration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	if !ok {
		return Configuration{}, false
	}
	return copyConfiguration(cfg), true
}

// Configurations returns copies of every configuration in registration order.
func (r *Registry) Configurations() []Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Configuration, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, copyConfiguration(r.configs[id]))
	}
	return out
}

// UpdateRuleConfiguration applies u to the configuration of id. Custom
// settings are deep-merged, then pruned against the rule's schema.
func (r *Registry) UpdateRuleConfiguration(id string, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.configs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRule, id)
	}
	if u.Severity != nil {
		if !u.Severity.Valid() {
			return fmt.Errorf("invalid severity %q for rule %s", *u.Severity, id)
		}
		cfg.Severity = *u.Severity
	}
	if u.Enabled != nil {
		cfg.Enabled = *u.Enabled
	}
	if len(u.CustomSettings) > 0 {
		schema := r.byID[id].Info().Config
		merged := mergeSettings(map[string]any(cloneSettings(cfg.CustomSettings)), u.CustomSettings)
		cfg.CustomSettings = schema.Prune(merged)
	}
	return nil
}

// ResetToDefaults restores every rule's default configuration.
func (r *Registry) ResetToDefaults() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rule := range r.byID {
		cfg := DefaultConfiguration(rule)
		r.configs[id] = &cfg
	}
}

// ResetRule restores one rule's default configuration.
func (r *Registry) ResetRule(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRule, id)
	}
	cfg := DefaultConfiguration(rule)
	r.configs[id] = &cfg
	return nil
}

func copyConfiguration(cfg *Configuration) Configuration {
	out := *cfg
	out.CustomSettings = cloneSettings(cfg.CustomSettings)
	return out
}
