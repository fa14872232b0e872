package styleindex

import (
	"fmt"
	"sort"
)

// PropertyDuplicate is one property:value pair a class shares with others.
type PropertyDuplicate struct {
	Property string   `json:"property"`
	Value    any      `json:"value"`
	Classes  []string `json:"classes"`
}

// DuplicateAnalysis describes how a class overlaps with the rest of the site.
type DuplicateAnalysis struct {
	DuplicateProperties []PropertyDuplicate `json:"duplicateProperties,omitempty"`
	IsExactMatch        bool                `json:"isExactMatch"`
	// ExactMatches lists other classes with an identical property set, oldest first.
	ExactMatches []string `json:"exactMatches,omitempty"`
	// Canonical is the oldest class sharing the exact property set,
	// which may be the analyzed class itself.
	Canonical string `json:"canonical,omitempty"`
	// FormattedProperty renders the declaration when the class has exactly
	// one property.
	FormattedProperty string `json:"formattedProperty,omitempty"`
}

// IsNewerDuplicate reports whether the analyzed class duplicates an older one.
func (d *DuplicateAnalysis) IsNewerDuplicate(className string) bool {
	return d != nil && d.IsExactMatch && d.Canonical != "" && d.Canonical != className
}

// AnalyzeDuplicates reports exact and per-property duplicates of className
// against the most recently built maps. It returns nil when the class has
// no declared properties or no duplication was found.
func (ix *Index) AnalyzeDuplicates(className string, properties map[string]any) *DuplicateAnalysis {
	return Analyze(ix.Maps(), className, properties)
}

// Analyze is AnalyzeDuplicates against explicit maps.
func Analyze(m *Maps, className string, properties map[string]any) *DuplicateAnalysis {
	if m == nil || len(properties) == 0 {
		return nil
	}

	result := &DuplicateAnalysis{}

	props := make([]string, 0, len(properties))
	for p := range properties {
		props = append(props, p)
	}
	sort.Strings(props)

	for _, prop := range props {
		others := without(m.PropertyOwners[PropertyKey(prop, properties[prop])], className)
		if len(others) == 0 {
			continue
		}
		result.DuplicateProperties = append(result.DuplicateProperties, PropertyDuplicate{
			Property: prop,
			Value:    properties[prop],
			Classes:  others,
		})
	}

	owners := m.Fingerprints[Fingerprint(properties)]
	if exact := without(owners, className); len(exact) > 0 {
		result.IsExactMatch = true
		result.ExactMatches = exact
		result.Canonical = canonical(m, className, owners)
	}

	if len(props) == 1 {
		result.FormattedProperty = FormatProperty(props[0], properties[props[0]])
	}

	if !result.IsExactMatch && len(result.DuplicateProperties) == 0 {
		return nil
	}
	return result
}

// canonical picks the oldest of owners plus className. owners is already
// sorted oldest first; className may not be indexed yet.
func canonical(m *Maps, className string, owners []string) string {
	best := owners[0]
	if self, ok := m.Order(className); ok {
		if bo, _ := m.Order(best); self < bo || (self == bo && className < best) {
			best = className
		}
	}
	return best
}

// FormatProperty renders a declaration for display, e.g. "display: none".
func FormatProperty(property string, value any) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%s: %s", property, s)
	}
	return fmt.Sprintf("%s: %s", property, Serialize(value))
}

func without(list []string, name string) []string {
	var out []string
	for _, n := range list {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
