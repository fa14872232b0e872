package grammar

import (
	"strings"

	"github.com/dotcommander/classlint/internal/types"
)

// ClientFirst classifies class names the Client-First way: custom classes
// carry a folder before an underscore ("hero_content-wrap"), utilities are
// single words or dash-joined ("padding-global", "hide") and combos start
// with "is-". There is no component prefix.
type ClientFirst struct{}

// NewClientFirst returns the Client-First grammar.
func NewClientFirst() *ClientFirst { return &ClientFirst{} }

// ID implements Grammar.
func (*ClientFirst) ID() string { return "client-first" }

// Prefixes implements Grammar.
func (*ClientFirst) Prefixes() Prefixes {
	return Prefixes{Combo: "is-"}
}

// CustomFirstRequired implements Grammar.
func (*ClientFirst) CustomFirstRequired() bool { return false }

// Parse implements Grammar.
func (g *ClientFirst) Parse(className string) ParsedClass {
	raw := strings.TrimSpace(className)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return unknown(className)
	}

	if combo := g.Prefixes().Combo; strings.HasPrefix(raw, combo) && len(raw) > len(combo) {
		return prefixed(raw, combo, types.KindCombo)
	}

	if folder, rest, ok := strings.Cut(raw, "_"); ok {
		if folder == "" || rest == "" {
			return unknown(className)
		}
		tokens := append([]string{folder}, splitNonEmpty(rest, "_-")...)
		pc := ParsedClass{
			Raw:          raw,
			Kind:         types.KindCustom,
			Type:         folder,
			ComponentKey: folder,
			ElementToken: rest,
			Tokens:       tokens,
		}
		// "section_hero" names the section after its component.
		if folder == "section" && len(tokens) > 1 {
			pc.ComponentKey = tokens[1]
		}
		return pc
	}

	if wordPattern.MatchString(raw) {
		tokens := splitNonEmpty(raw, "-")
		return ParsedClass{Raw: raw, Kind: types.KindUtility, Type: tokens[0], Tokens: tokens}
	}
	return unknown(className)
}
