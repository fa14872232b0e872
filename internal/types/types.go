// Package types provides shared types used across the classlint codebase.
// This package is at the bottom of the dependency graph and should not import
// any other internal packages to avoid circular dependencies.
package types

import "fmt"

// Severity is the level attached to a violation.
type Severity string

// Severity level constants.
const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Rank orders severities so that a higher rank is more severe.
// Unknown severities rank below suggestion.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeveritySuggestion:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// ParseSeverity converts a string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("invalid severity %q: must be 'error', 'warning', or 'suggestion'", s)
	}
	return sev, nil
}

// ClassKind is the grammar classification of a class name.
type ClassKind string

// Class kind constants.
const (
	KindCustom    ClassKind = "custom"
	KindUtility   ClassKind = "utility"
	KindCombo     ClassKind = "combo"
	KindComponent ClassKind = "component"
	KindUnknown   ClassKind = "unknown"
)

// IsBase reports whether the kind can anchor an element (custom or component).
func (k ClassKind) IsBase() bool {
	return k == KindCustom || k == KindComponent
}

// Role is the structural role of an element on a page.
type Role string

// Role constants.
const (
	RoleMain          Role = "main"
	RoleSection       Role = "section"
	RoleComponentRoot Role = "componentRoot"
	RoleChildGroup    Role = "childGroup"
	RoleContainer     Role = "container"
	RoleLayout        Role = "layout"
	RoleContent       Role = "content"
	RoleUnknown       Role = "unknown"
)

// ElementSnapshot is the read-only view of a design element for one scan.
type ElementSnapshot struct {
	ID          string            `json:"id" yaml:"id"`
	TagName     string            `json:"tagName" yaml:"tagName"`
	Classes     []string          `json:"classes" yaml:"classes"`
	ParentID    string            `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	ChildrenIDs []string          `json:"childrenIds,omitempty" yaml:"childrenIds,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	TextContent string            `json:"textContent,omitempty" yaml:"textContent,omitempty"`
}

// StyleDefinition is a named style (class) declared on the design.
// Order reflects creation order; lower is older.
type StyleDefinition struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Properties      map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Order           int            `json:"order" yaml:"order"`
	IsCombo         bool           `json:"isCombo,omitempty" yaml:"isCombo,omitempty"`
	DetectionSource string         `json:"detectionSource,omitempty" yaml:"detectionSource,omitempty"`
}

// AppliedClass is one class applied to an element, in authored position.
type AppliedClass struct {
	Name       string         `json:"name"`
	Order      int            `json:"order"`
	IsCombo    bool           `json:"isCombo,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// FixKind names the shape of an auto-fix suggestion.
type FixKind string

// Fix kinds.
const (
	FixRename  FixKind = "rename"
	FixReorder FixKind = "reorder"
	FixReplace FixKind = "replace"
	FixRemove  FixKind = "remove"
)

// Fix is a suggested correction. The engine never applies it.
type Fix struct {
	Kind        FixKind  `json:"kind"`
	Description string   `json:"description,omitempty"`
	Replacement string   `json:"replacement,omitempty"`
	Classes     []string `json:"classes,omitempty"`
}

// Violation is a single rule result.
type Violation struct {
	RuleID     string         `json:"ruleId"`
	Name       string         `json:"name"`
	Message    string         `json:"message"`
	Severity   Severity       `json:"severity"`
	ClassName  string         `json:"className"`
	ElementID  string         `json:"elementId,omitempty"`
	IsCombo    bool           `json:"isCombo"`
	ComboIndex *int           `json:"comboIndex,omitempty"`
	Example    string         `json:"example,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Fix        *Fix           `json:"fix,omitempty"`
}
