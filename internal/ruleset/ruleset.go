// Package ruleset provides the built-in rules. Every constructor returns
// fresh values, so each Registry owns its own rule instances.
package ruleset

import (
	"regexp"
	"strings"

	"github.com/dotcommander/classlint/internal/rules"
)

// Categories.
const (
	CategoryNaming      = "naming"
	CategoryProperty    = "property"
	CategoryStructure   = "structure"
	CategoryComposition = "composition"
	CategoryPage        = "page"
)

// All returns every built-in rule in registration order.
func All() []rules.Rule {
	var out []rules.Rule
	out = append(out, Naming()...)
	out = append(out, Property()...)
	out = append(out, Structure()...)
	out = append(out, Composition()...)
	out = append(out, Page()...)
	return out
}

// Register adds every built-in rule to reg.
func Register(reg *rules.Registry) error {
	for _, r := range All() {
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// lowerWords matches lowercase dash-joined words such as "hero" or "content-wrap".
var lowerWords = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	invalidRun    = regexp.MustCompile(`[^a-z0-9]+`)
)

// suggestWords rewrites s as lowercase dash-joined words.
// "HeroTitle" and "hero title" both become "hero-title".
func suggestWords(s string) string {
	s = camelBoundary.ReplaceAllString(s, "$1-$2")
	s = invalidRun.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// suggestCustom rewrites each underscore token with suggestWords.
func suggestCustom(raw string) string {
	parts := strings.Split(raw, "_")
	out := parts[:0]
	for _, p := range parts {
		if w := suggestWords(p); w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, "_")
}
