// Package preset bundles a grammar, role detectors and a rule set into a
// named naming methodology.
package preset

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dotcommander/classlint/internal/grammar"
	"github.com/dotcommander/classlint/internal/roles"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/ruleset"
	"github.com/dotcommander/classlint/internal/runner"
)

// ErrUnknownPreset is returned by Lookup for ids no preset registers.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset ids.
const (
	IDLumos       = "lumos"
	IDClientFirst = "client-first"
)

// Preset is one naming methodology. Exactly one is active per scan.
type Preset struct {
	ID          string
	Name        string
	Description string
	Grammar     grammar.Grammar
	Detectors   []roles.Detector
	RoleConfig  roles.Config
	Rules       []rules.Rule
}

var constructors = map[string]func() *Preset{
	IDLumos:       Lumos,
	IDClientFirst: ClientFirst,
}

// Lumos returns the Lumos preset.
func Lumos() *Preset {
	return &Preset{
		ID:          IDLumos,
		Name:        "Lumos",
		Description: "u- utilities, is- combos, c- components and type_element custom classes",
		Grammar:     grammar.NewCached(grammar.NewLumos(), grammar.DefaultCacheSize),
		Detectors:   roles.Detectors(roles.LumosHints()),
		RoleConfig:  roles.DefaultConfig(),
		Rules:       ruleset.All(),
	}
}

// ClientFirst returns the Client-First preset.
func ClientFirst() *Preset {
	return &Preset{
		ID:          IDClientFirst,
		Name:        "Client-First",
		Description: "folder_element custom classes, dash utilities and is- combos",
		Grammar:     grammar.NewCached(grammar.NewClientFirst(), grammar.DefaultCacheSize),
		Detectors:   roles.Detectors(roles.ClientFirstHints()),
		RoleConfig:  roles.DefaultConfig(),
		Rules:       ruleset.All(),
	}
}

// Lookup returns a fresh preset by id.
func Lookup(id string) (*Preset, error) {
	ctor, ok := constructors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, id, IDs())
	}
	return ctor(), nil
}

// IDs returns the registered preset ids, sorted.
func IDs() []string {
	ids := make([]string, 0, len(constructors))
	for id := range constructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewRegistry returns a registry holding the preset's rules.
func (p *Preset) NewRegistry() (*rules.Registry, error) {
	reg := rules.NewRegistry()
	for _, r := range p.Rules {
		if err := reg.Register(r); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.ID, err)
		}
	}
	return reg, nil
}

// RoleService returns a role detection service for the preset. A positive
// threshold overrides the preset's.
func (p *Preset) RoleService(threshold float64, logger *slog.Logger) *roles.Service {
	cfg := p.RoleConfig
	if threshold > 0 {
		cfg.Threshold = threshold
	}
	return roles.NewService(p.Grammar, p.Detectors, cfg, logger)
}

// Runner returns a rule runner over reg using the preset's grammar.
func (p *Preset) Runner(reg *rules.Registry, logger *slog.Logger) *runner.Runner {
	return runner.New(reg, p.Grammar, logger)
}
