// Package source serves a site export file as the host the lint engine
// scans. Exports are JSON or YAML documents holding one page's elements
// and the design's styles with properties per breakpoint.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/classlint/internal/cue"
	"github.com/dotcommander/classlint/internal/types"
)

// Element is one element of an export.
type Element struct {
	ID          string            `json:"id" yaml:"id"`
	TagName     string            `json:"tagName" yaml:"tagName"`
	Classes     []string          `json:"classes" yaml:"classes"`
	ChildrenIDs []string          `json:"childrenIds,omitempty" yaml:"childrenIds,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	TextContent string            `json:"textContent,omitempty" yaml:"textContent,omitempty"`
}

// Style is one style of an export.
type Style struct {
	ID              string                    `json:"id" yaml:"id"`
	Name            string                    `json:"name" yaml:"name"`
	Order           int                       `json:"order" yaml:"order"`
	IsCombo         bool                      `json:"isCombo,omitempty" yaml:"isCombo,omitempty"`
	DetectionSource string                    `json:"detectionSource,omitempty" yaml:"detectionSource,omitempty"`
	Breakpoints     map[string]map[string]any `json:"breakpoints,omitempty" yaml:"breakpoints,omitempty"`
}

// Export is a decoded site export.
type Export struct {
	Page     string    `json:"page,omitempty" yaml:"page,omitempty"`
	Elements []Element `json:"elements" yaml:"elements"`
	Styles   []Style   `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// Site serves one Export through the host interfaces.
type Site struct {
	Path   string
	export Export
	byID   map[string]Element
	styles map[string]Style
	combos map[string]bool
}

// Load reads and validates an export file.
func Load(path string, v *cue.Validator) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	site, err := Parse(data, formatOf(path), v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	site.Path = path
	return site, nil
}

// Parse decodes an export. format is "json" or "yaml". A nil validator
// skips schema checks.
func Parse(data []byte, format string, v *cue.Validator) (*Site, error) {
	var raw map[string]any
	var exp Export
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if err := yaml.Unmarshal(data, &exp); err != nil {
			return nil, fmt.Errorf("invalid export: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if err := json.Unmarshal(data, &exp); err != nil {
			return nil, fmt.Errorf("invalid export: %w", err)
		}
	}

	if v != nil {
		verrs, err := v.Validate(cue.SchemaSiteExport, raw)
		if err != nil {
			return nil, err
		}
		if len(verrs) > 0 {
			return nil, fmt.Errorf("invalid export: %w", verrs[0])
		}
	}
	return New(exp), nil
}

// New indexes exp.
func New(exp Export) *Site {
	s := &Site{
		export: exp,
		byID:   make(map[string]Element, len(exp.Elements)),
		styles: make(map[string]Style, len(exp.Styles)),
		combos: make(map[string]bool),
	}
	for _, el := range exp.Elements {
		s.byID[el.ID] = el
	}
	for _, st := range exp.Styles {
		s.styles[st.ID] = st
		if st.IsCombo {
			s.combos[st.Name] = true
		}
	}
	return s
}

// Page returns the page name, or the file's base name.
func (s *Site) Page() string {
	if s.export.Page != "" {
		return s.export.Page
	}
	if s.Path != "" {
		return strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	}
	return ""
}

// Elements implements lintctx.ElementSource.
func (s *Site) Elements(context.Context) ([]types.ElementSnapshot, error) {
	out := make([]types.ElementSnapshot, len(s.export.Elements))
	for i, el := range s.export.Elements {
		out[i] = types.ElementSnapshot{
			ID:          el.ID,
			TagName:     el.TagName,
			Classes:     append([]string(nil), el.Classes...),
			ChildrenIDs: append([]string(nil), el.ChildrenIDs...),
			Attributes:  el.Attributes,
			TextContent: el.TextContent,
		}
	}
	return out, nil
}

// AppliedClasses implements lintctx.ElementSource.
func (s *Site) AppliedClasses(_ context.Context, elementID string) ([]types.AppliedClass, error) {
	el, ok := s.byID[elementID]
	if !ok {
		return nil, fmt.Errorf("unknown element %q", elementID)
	}
	out := make([]types.AppliedClass, len(el.Classes))
	for i, c := range el.Classes {
		out[i] = types.AppliedClass{Name: c, Order: i, IsCombo: s.combos[c]}
	}
	return out, nil
}

// Children implements lintctx.ElementSource.
func (s *Site) Children(_ context.Context, elementID string) ([]string, error) {
	el, ok := s.byID[elementID]
	if !ok {
		return nil, fmt.Errorf("unknown element %q", elementID)
	}
	return append([]string(nil), el.ChildrenIDs...), nil
}

// Styles implements lintctx.StyleSource. Properties are fetched per
// breakpoint through Properties.
func (s *Site) Styles(context.Context) ([]types.StyleDefinition, error) {
	out := make([]types.StyleDefinition, len(s.export.Styles))
	for i, st := range s.export.Styles {
		id := st.ID
		if id == "" {
			id = st.Name
		}
		out[i] = types.StyleDefinition{
			ID:              id,
			Name:            st.Name,
			Order:           st.Order,
			IsCombo:         st.IsCombo,
			DetectionSource: st.DetectionSource,
		}
	}
	return out, nil
}

// Properties implements lintctx.StyleSource.
func (s *Site) Properties(_ context.Context, styleID, breakpoint string) (map[string]any, error) {
	st, ok := s.styles[styleID]
	if !ok {
		for _, candidate := range s.export.Styles {
			if candidate.Name == styleID {
				st, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("unknown style %q", styleID)
	}
	return st.Breakpoints[breakpoint], nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
