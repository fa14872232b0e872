// Package styleindex indexes every style definition on a design by its
// individual property:value pairs and by its full property fingerprint,
// powering duplicate-property and exact-duplicate detection.
package styleindex

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dotcommander/classlint/internal/types"
)

// Maps holds the derived lookup tables for one set of styles.
// It is read-only once built.
type Maps struct {
	// PropertyOwners maps "property:value" to the classes declaring that pair.
	PropertyOwners map[string][]string
	// Fingerprints maps a canonical full-property serialization to the
	// classes declaring exactly that property set.
	Fingerprints map[string][]string

	order map[string]int
	byKey map[string]string // class name -> fingerprint
}

// Order returns the creation order of a class and whether it is indexed.
func (m *Maps) Order(className string) (int, bool) {
	o, ok := m.order[className]
	return o, ok
}

// Owners returns the classes declaring property with value.
func (m *Maps) Owners(property string, value any) []string {
	return m.PropertyOwners[PropertyKey(property, value)]
}

// Index is the site-wide style index. Build is memoized on a stable hash of
// the styles, so rebuilding with unchanged input is a no-op.
type Index struct {
	mu   sync.Mutex
	memo Memo[*Maps]
}

// New returns an empty Index.
func New() *Index {
	return &Index{}
}

// Build indexes styles and returns the derived maps. Styles without
// declared properties are skipped.
func (ix *Index) Build(styles []types.StyleDefinition) *Maps {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.memo.Get(HashStyles(styles), func() *Maps {
		return buildMaps(styles)
	})
}

// Maps returns the most recently built maps, or empty maps before the
// first Build.
func (ix *Index) Maps() *Maps {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if m, ok := ix.memo.Peek(); ok {
		return m
	}
	return buildMaps(nil)
}

// Invalidate forces the next Build to rebuild.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.memo.Invalidate()
}

// Builds reports how many times the maps were rebuilt.
func (ix *Index) Builds() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.memo.Builds()
}

func buildMaps(styles []types.StyleDefinition) *Maps {
	m := &Maps{
		PropertyOwners: make(map[string][]string),
		Fingerprints:   make(map[string][]string),
		order:          make(map[string]int),
		byKey:          make(map[string]string),
	}
	for _, s := range styles {
		if len(s.Properties) == 0 || s.Name == "" {
			continue
		}
		if prev, seen := m.order[s.Name]; !seen || s.Order < prev {
			m.order[s.Name] = s.Order
		}
		for prop, val := range s.Properties {
			key := PropertyKey(prop, val)
			m.PropertyOwners[key] = appendUnique(m.PropertyOwners[key], s.Name)
		}
		fp := Fingerprint(s.Properties)
		m.byKey[s.Name] = fp
		m.Fingerprints[fp] = appendUnique(m.Fingerprints[fp], s.Name)
	}
	for k := range m.PropertyOwners {
		m.sortByOrder(m.PropertyOwners[k])
	}
	for k := range m.Fingerprints {
		m.sortByOrder(m.Fingerprints[k])
	}
	return m
}

// sortByOrder sorts class names oldest first, breaking ties by name.
func (m *Maps) sortByOrder(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		oi, oj := m.order[names[i]], m.order[names[j]]
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

// Serialize renders a property value stably. Object keys are sorted so
// key order never creates false negatives; values JSON cannot encode fall
// back to their fmt rendering.
func Serialize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

// PropertyKey is the multi-map key for one property:value pair.
func PropertyKey(property string, value any) string {
	return property + ":" + Serialize(value)
}

// Fingerprint is the canonical serialization of a full property set.
func Fingerprint(properties map[string]any) string {
	return Serialize(properties)
}

// HashStyles is the memo key for a style set: a hash over each style's
// name, order, combo flag and properties, independent of input order.
func HashStyles(styles []types.StyleDefinition) string {
	parts := make([]string, 0, len(styles))
	for _, s := range styles {
		parts = append(parts, fmt.Sprintf("%s\x00%d\x00%t\x00%s", s.Name, s.Order, s.IsCombo, Fingerprint(s.Properties)))
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x01")))
	return fmt.Sprintf("%x", sum)
}
