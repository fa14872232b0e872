// Package rules holds rule definitions, their per-rule configuration and
// the versioned configuration document used for import and export.
//
// # Rule shapes
//
// A Rule is a closed union with one variant per evaluation shape:
//
//   - *NamingRule: checks one class name (Evaluate, or boolean Test as fallback)
//   - *PropertyRule: checks one class with its declared properties
//   - *StructureRule: checks all classes of one element, in authored order
//   - *CompositionRule: same signature as StructureRule, for cross-class limits
//   - *PageRule: checks the whole page's role map
//
// Callers dispatch with a type switch; no other implementations exist.
package rules

import (
	"github.com/dotcommander/classlint/internal/grammar"
	"github.com/dotcommander/classlint/internal/styleindex"
	"github.com/dotcommander/classlint/internal/types"
)

// Type is the discriminator of the rule union.
type Type string

// Rule types.
const (
	TypeNaming      Type = "naming"
	TypeProperty    Type = "property"
	TypeStructure   Type = "structure"
	TypeComposition Type = "composition"
	TypePage        Type = "page"
)

// Meta is the metadata shared by every rule shape.
type Meta struct {
	ID          string
	Name        string
	Description string
	Severity    types.Severity
	Enabled     bool
	Category    string
	// TargetClassTypes limits the rule to these class kinds. Empty means all.
	TargetClassTypes []types.ClassKind
	// Config declares the rule's custom settings and their defaults.
	Config Schema
	// Example shows a compliant class name or arrangement.
	Example string
}

// Targets reports whether the rule applies to classes of kind k.
func (m *Meta) Targets(k types.ClassKind) bool {
	if len(m.TargetClassTypes) == 0 {
		return true
	}
	for _, t := range m.TargetClassTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Rule is implemented only by the variant types in this package.
type Rule interface {
	Info() *Meta
	Type() Type
	sealed()
}

// NamingRule checks a single class name. Evaluate takes precedence over
// Test; Test failing produces a generic message.
type NamingRule struct {
	Meta
	Test     func(className string, parsed grammar.ParsedClass) bool
	Evaluate func(className string, parsed grammar.ParsedClass, settings Settings) *types.Violation
}

// PropertyRule checks one class and its declared properties against the
// site-wide style index.
type PropertyRule struct {
	Meta
	Analyze func(class ClassInput, rc *RuleContext, settings Settings) ([]types.Violation, error)
}

// StructureRule checks the ordered classes of one element.
type StructureRule struct {
	Meta
	AnalyzeElement func(ec *ElementContext, settings Settings) ([]types.Violation, error)
}

// CompositionRule checks cross-class invariants of one element such as
// required companions and count limits.
type CompositionRule struct {
	Meta
	AnalyzeElement func(ec *ElementContext, settings Settings) ([]types.Violation, error)
}

// PageRule checks the whole page. It is dispatched separately from
// element rules.
type PageRule struct {
	Meta
	AnalyzePage func(pc *PageContext, settings Settings) ([]types.Violation, error)
}

func (r *NamingRule) Info() *Meta      { return &r.Meta }
func (r *PropertyRule) Info() *Meta    { return &r.Meta }
func (r *StructureRule) Info() *Meta   { return &r.Meta }
func (r *CompositionRule) Info() *Meta { return &r.Meta }
func (r *PageRule) Info() *Meta        { return &r.Meta }

func (*NamingRule) Type() Type      { return TypeNaming }
func (*PropertyRule) Type() Type    { return TypeProperty }
func (*StructureRule) Type() Type   { return TypeStructure }
func (*CompositionRule) Type() Type { return TypeComposition }
func (*PageRule) Type() Type        { return TypePage }

func (*NamingRule) sealed()      {}
func (*PropertyRule) sealed()    {}
func (*StructureRule) sealed()   {}
func (*CompositionRule) sealed() {}
func (*PageRule) sealed()        {}

// GraphView is the read-only graph surface rules may query.
type GraphView interface {
	GetParentID(id string) string
	GetChildrenIDs(id string) []string
	GetAncestorIDs(id string) []string
	GetDescendantIDs(id string) []string
	GetTag(id string) string
}

// ClassInput is one applied class with its classification.
type ClassInput struct {
	types.AppliedClass
	Parsed    grammar.ParsedClass
	ElementID string
}

// RuleContext is the shared site-wide input of property rules.
type RuleContext struct {
	Styles  []types.StyleDefinition
	Maps    *styleindex.Maps
	Grammar grammar.Grammar
}

// Style returns the style definition named name.
func (rc *RuleContext) Style(name string) (types.StyleDefinition, bool) {
	for _, s := range rc.Styles {
		if s.Name == name {
			return s, true
		}
	}
	return types.StyleDefinition{}, false
}

// ElementContext is the input of structure and composition rules.
// Classes are in authored display order.
type ElementContext struct {
	ElementID string
	Classes   []ClassInput
	Role      types.Role
	Roles     map[string]types.Role
	Graph     GraphView
	Grammar   grammar.Grammar
	// PageClasses holds the ordered class names of every element on the page.
	PageClasses map[string][]string
}

// ClassesOf returns the class names of another element on the page.
func (ec *ElementContext) ClassesOf(id string) []string {
	return ec.PageClasses[id]
}

// BaseOf returns the first custom or component class of element id.
func (ec *ElementContext) BaseOf(id string) (grammar.ParsedClass, bool) {
	for _, c := range ec.PageClasses[id] {
		if pc := ec.Grammar.Parse(c); pc.Kind.IsBase() {
			return pc, true
		}
	}
	return grammar.ParsedClass{}, false
}

// Classify returns the kind of className under the active grammar.
func (ec *ElementContext) Classify(className string) types.ClassKind {
	return ec.Grammar.Parse(className).Kind
}

// RoleOf returns the detected role of any element on the page.
func (ec *ElementContext) RoleOf(id string) types.Role {
	if r, ok := ec.Roles[id]; ok {
		return r
	}
	return types.RoleUnknown
}

// PageContext is the input of page rules.
type PageContext struct {
	Elements []types.ElementSnapshot
	Roles    map[string]types.Role
	Graph    GraphView
	Grammar  grammar.Grammar

	// MainCandidates holds every element scored as main before only the
	// best one kept the role, in element order.
	MainCandidates []string
}

// Element returns the snapshot of id.
func (pc *PageContext) Element(id string) (types.ElementSnapshot, bool) {
	for _, el := range pc.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return types.ElementSnapshot{}, false
}

// IsMainCandidate reports whether id was scored as main.
func (pc *PageContext) IsMainCandidate(id string) bool {
	for _, c := range pc.MainCandidates {
		if c == id {
			return true
		}
	}
	return false
}

// IDsWithRole returns element ids holding role, in element order.
func (pc *PageContext) IDsWithRole(role types.Role) []string {
	var ids []string
	for _, el := range pc.Elements {
		if pc.Roles[el.ID] == role {
			ids = append(ids, el.ID)
		}
	}
	return ids
}
