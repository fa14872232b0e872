// Package grammar classifies raw class names into custom, utility, combo,
// component or unknown classes. Each preset supplies exactly one Grammar.
package grammar

import (
	"regexp"
	"strings"

	"github.com/dotcommander/classlint/internal/types"
)

// ParsedClass is the classification of one raw class name.
// Values are derived deterministically and never mutated after creation.
type ParsedClass struct {
	Raw          string          `json:"raw"`
	Kind         types.ClassKind `json:"kind"`
	Type         string          `json:"type,omitempty"`
	Variation    string          `json:"variation,omitempty"`
	ElementToken string          `json:"elementToken,omitempty"`
	ComponentKey string          `json:"componentKey,omitempty"`
	Tokens       []string        `json:"tokens,omitempty"`
}

// Prefixes declares the prefixes a grammar uses to recognize class kinds.
// An empty prefix means the grammar has no prefix for that kind.
type Prefixes struct {
	Utility   string
	Combo     string
	Component string
}

// Grammar maps a raw class name to a ParsedClass. Parse is total: it never
// panics and returns KindUnknown for input it cannot classify.
type Grammar interface {
	ID() string
	Parse(className string) ParsedClass
	Prefixes() Prefixes
	// CustomFirstRequired reports whether a custom class must be the first
	// class on an element.
	CustomFirstRequired() bool
}

// wordPattern matches a single word or dash-joined words.
var wordPattern = regexp.MustCompile(`^[A-Za-z0-9]+(-[A-Za-z0-9]+)*$`)

func unknown(raw string) ParsedClass {
	return ParsedClass{Raw: raw, Kind: types.KindUnknown}
}

func splitNonEmpty(s string, seps string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// prefixed builds the ParsedClass for a class that matched a declared prefix.
func prefixed(raw, prefix string, kind types.ClassKind) ParsedClass {
	rest := strings.TrimPrefix(raw, prefix)
	pc := ParsedClass{
		Raw:    raw,
		Kind:   kind,
		Tokens: splitNonEmpty(rest, "-_"),
	}
	switch kind {
	case types.KindCombo:
		pc.Variation = rest
	case types.KindComponent:
		key, element, _ := strings.Cut(rest, "_")
		pc.ComponentKey = key
		pc.Type = key
		pc.ElementToken = element
	case types.KindUtility:
		if len(pc.Tokens) > 0 {
			pc.Type = pc.Tokens[0]
		}
	}
	return pc
}

// Kind is a convenience returning only the classified kind of a class name.
func Kind(g Grammar, className string) types.ClassKind {
	return g.Parse(className).Kind
}

// IsBase reports whether the class name is a custom or component class
// under g.
func IsBase(g Grammar, className string) bool {
	return g.Parse(className).Kind.IsBase()
}
