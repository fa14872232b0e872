package roles

import (
	"strings"

	"github.com/dotcommander/classlint/internal/grammar"
	"github.com/dotcommander/classlint/internal/types"
)

// Hints are the preset-specific class signals used by the built-in detectors.
type Hints struct {
	// MainClasses are exact class names that mark the main element.
	MainClasses []string
	// SectionPrefixes mark section classes, e.g. "section_".
	SectionPrefixes []string
	// SectionTokens mark section classes by element token, e.g. "section".
	SectionTokens []string
	// RootTokens are element tokens that mark a component root, e.g. "wrap".
	RootTokens []string
	// ContainerClasses are class names or prefixes that mark containers.
	ContainerClasses []string
	// LayoutTokens are class tokens that mark layout elements.
	LayoutTokens []string
}

var contentTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"span": true, "a": true, "img": true, "button": true, "li": true, "label": true,
	"blockquote": true, "figure": true, "video": true, "svg": true, "strong": true, "em": true,
}

// Detectors returns the ordered built-in detector list configured by hints.
func Detectors(h Hints) []Detector {
	return []Detector{
		{Name: "main-tag", Detect: mainByTag},
		{Name: "main-class", Detect: mainByClass(h)},
		{Name: "section-tag", Detect: sectionByTag},
		{Name: "section-class", Detect: sectionByClass(h)},
		{Name: "section-position", Detect: sectionByPosition},
		{Name: "component-attribute", Detect: componentByAttribute},
		{Name: "component-class", Detect: componentByClass(h)},
		{Name: "child-group-key", Detect: childGroupByKey},
		{Name: "container-class", Detect: containerByClass(h)},
		{Name: "layout-class", Detect: layoutByClass(h)},
		{Name: "content-tag", Detect: contentByTag},
	}
}

// LumosHints are the class signals of the Lumos methodology.
func LumosHints() Hints {
	return Hints{
		MainClasses:      []string{"page_main", "main_wrap", "u-main"},
		SectionTokens:    []string{"section"},
		RootTokens:       []string{"wrap", "component"},
		ContainerClasses: []string{"u-container"},
		LayoutTokens:     []string{"layout", "grid", "flex", "row", "columns"},
	}
}

// ClientFirstHints are the class signals of the Client-First methodology.
func ClientFirstHints() Hints {
	return Hints{
		MainClasses:      []string{"main-wrapper", "page-wrapper_main"},
		SectionPrefixes:  []string{"section_"},
		RootTokens:       []string{"component", "wrapper", "wrap"},
		ContainerClasses: []string{"container-", "padding-global"},
		LayoutTokens:     []string{"layout", "grid", "row", "col"},
	}
}

func mainByTag(el types.ElementSnapshot, _ *Context) (Proposal, bool) {
	if strings.EqualFold(el.TagName, "main") {
		return Proposal{Role: types.RoleMain, Score: 0.95}, true
	}
	return Proposal{}, false
}

func mainByClass(h Hints) DetectorFunc {
	return func(el types.ElementSnapshot, _ *Context) (Proposal, bool) {
		if el.Attributes["role"] == "main" {
			return Proposal{Role: types.RoleMain, Score: 0.9}, true
		}
		for _, c := range el.Classes {
			if contains(h.MainClasses, c) {
				return Proposal{Role: types.RoleMain, Score: 0.85}, true
			}
		}
		return Proposal{}, false
	}
}

func sectionByTag(el types.ElementSnapshot, _ *Context) (Proposal, bool) {
	if strings.EqualFold(el.TagName, "section") {
		return Proposal{Role: types.RoleSection, Score: 0.9}, true
	}
	return Proposal{}, false
}

func sectionByClass(h Hints) DetectorFunc {
	return func(el types.ElementSnapshot, dc *Context) (Proposal, bool) {
		for _, c := range el.Classes {
			if hasAnyPrefix(c, h.SectionPrefixes) {
				return Proposal{Role: types.RoleSection, Score: 0.85}, true
			}
			pc := dc.Grammar.Parse(c)
			if pc.Kind == types.KindCustom && contains(h.SectionTokens, pc.Type) {
				return Proposal{Role: types.RoleSection, Score: 0.85}, true
			}
		}
		return Proposal{}, false
	}
}

// sectionByPosition treats a classed direct child of main as a weak section.
func sectionByPosition(el types.ElementSnapshot, dc *Context) (Proposal, bool) {
	parent := dc.Graph.GetParentID(el.ID)
	if parent == "" || dc.RoleOf(parent) != types.RoleMain {
		return Proposal{}, false
	}
	if firstBase(el, dc.Grammar) == nil {
		return Proposal{}, false
	}
	return Proposal{Role: types.RoleSection, Score: 0.65}, true
}

func componentByAttribute(el types.ElementSnapshot, _ *Context) (Proposal, bool) {
	if _, ok := el.Attributes["data-component"]; ok {
		return Proposal{Role: types.RoleComponentRoot, Score: 0.9}, true
	}
	return Proposal{}, false
}

func componentByClass(h Hints) DetectorFunc {
	return func(el types.ElementSnapshot, dc *Context) (Proposal, bool) {
		base := firstBase(el, dc.Grammar)
		if base == nil {
			return Proposal{}, false
		}
		if base.Kind == types.KindComponent {
			return Proposal{Role: types.RoleComponentRoot, Score: 0.85}, true
		}
		if !hasRootToken(base, h.RootTokens) {
			return Proposal{}, false
		}
		// A root nested inside another root with the same key is a child group.
		if rootID, ok := dc.NearestAncestorWithRole(el.ID, types.RoleComponentRoot); ok {
			if key := rootKey(rootID, dc); key != "" && key == base.ComponentKey {
				return Proposal{}, false
			}
		}
		if _, inSection := dc.NearestAncestorWithRole(el.ID, types.RoleSection); inSection {
			return Proposal{Role: types.RoleComponentRoot, Score: 0.8}, true
		}
		return Proposal{Role: types.RoleComponentRoot, Score: 0.7}, true
	}
}

// childGroupByKey marks elements with children whose base class shares the
// component key of the nearest component root above them.
func childGroupByKey(el types.ElementSnapshot, dc *Context) (Proposal, bool) {
	if len(dc.Graph.GetChildrenIDs(el.ID)) == 0 {
		return Proposal{}, false
	}
	base := firstBase(el, dc.Grammar)
	if base == nil || base.ComponentKey == "" {
		return Proposal{}, false
	}
	rootID, ok := dc.NearestAncestorWithRole(el.ID, types.RoleComponentRoot)
	if !ok {
		return Proposal{}, false
	}
	if rootKey(rootID, dc) != base.ComponentKey {
		return Proposal{}, false
	}
	return Proposal{Role: types.RoleChildGroup, Score: 0.75}, true
}

func containerByClass(h Hints) DetectorFunc {
	return func(el types.ElementSnapshot, _ *Context) (Proposal, bool) {
		for _, c := range el.Classes {
			for _, hint := range h.ContainerClasses {
				if c == hint || (strings.HasSuffix(hint, "-") && strings.HasPrefix(c, hint)) {
					return Proposal{Role: types.RoleContainer, Score: 0.8}, true
				}
			}
		}
		return Proposal{}, false
	}
}

func layoutByClass(h Hints) DetectorFunc {
	return func(el types.ElementSnapshot, dc *Context) (Proposal, bool) {
		for _, c := range el.Classes {
			for _, tok := range dc.Grammar.Parse(c).Tokens {
				if contains(h.LayoutTokens, strings.ToLower(tok)) {
					return Proposal{Role: types.RoleLayout, Score: 0.7}, true
				}
			}
		}
		return Proposal{}, false
	}
}

func contentByTag(el types.ElementSnapshot, dc *Context) (Proposal, bool) {
	if contentTags[strings.ToLower(el.TagName)] {
		return Proposal{Role: types.RoleContent, Score: 0.65}, true
	}
	if strings.TrimSpace(el.TextContent) != "" && len(dc.Graph.GetChildrenIDs(el.ID)) == 0 {
		return Proposal{Role: types.RoleContent, Score: 0.6}, true
	}
	return Proposal{}, false
}

// firstBase returns the first custom or component class on el.
func firstBase(el types.ElementSnapshot, g grammar.Grammar) *grammar.ParsedClass {
	for _, c := range el.Classes {
		pc := g.Parse(c)
		if pc.Kind.IsBase() {
			return &pc
		}
	}
	return nil
}

func rootKey(rootID string, dc *Context) string {
	root, ok := dc.Element(rootID)
	if !ok {
		return ""
	}
	if base := firstBase(root, dc.Grammar); base != nil {
		return base.ComponentKey
	}
	return ""
}

func hasRootToken(pc *grammar.ParsedClass, tokens []string) bool {
	for _, tok := range tokens {
		if pc.ElementToken == tok || strings.HasSuffix(pc.ElementToken, "-"+tok) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
