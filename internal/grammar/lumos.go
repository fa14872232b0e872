package grammar

import (
	"strings"

	"github.com/dotcommander/classlint/internal/types"
)

// Lumos classifies class names with explicit prefixes: "u-" utilities,
// "is-" combos, "c-" components and underscore-delimited custom classes
// such as "hero_wrap" or "card_title".
type Lumos struct{}

// NewLumos returns the Lumos grammar.
func NewLumos() *Lumos { return &Lumos{} }

// ID implements Grammar.
func (*Lumos) ID() string { return "lumos" }

// Prefixes implements Grammar.
func (*Lumos) Prefixes() Prefixes {
	return Prefixes{Utility: "u-", Combo: "is-", Component: "c-"}
}

// CustomFirstRequired implements Grammar.
func (*Lumos) CustomFirstRequired() bool { return true }

// Parse implements Grammar.
func (g *Lumos) Parse(className string) ParsedClass {
	raw := strings.TrimSpace(className)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return unknown(className)
	}

	p := g.Prefixes()
	switch {
	case strings.HasPrefix(raw, p.Utility) && len(raw) > len(p.Utility):
		return prefixed(raw, p.Utility, types.KindUtility)
	case strings.HasPrefix(raw, p.Combo) && len(raw) > len(p.Combo):
		return prefixed(raw, p.Combo, types.KindCombo)
	case strings.HasPrefix(raw, p.Component) && len(raw) > len(p.Component):
		return prefixed(raw, p.Component, types.KindComponent)
	}

	if strings.Contains(raw, "_") {
		tokens := splitNonEmpty(raw, "_")
		if len(tokens) == 0 {
			return unknown(className)
		}
		pc := ParsedClass{
			Raw:          raw,
			Kind:         types.KindCustom,
			Type:         tokens[0],
			ComponentKey: tokens[0],
			Tokens:       tokens,
		}
		if len(tokens) > 1 {
			pc.ElementToken = tokens[len(tokens)-1]
		}
		return pc
	}

	if wordPattern.MatchString(raw) {
		return ParsedClass{Raw: raw, Kind: types.KindUtility, Tokens: splitNonEmpty(raw, "-")}
	}
	return unknown(className)
}
