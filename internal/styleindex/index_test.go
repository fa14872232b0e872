package styleindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/classlint/internal/types"
)

func sampleStyles() []types.StyleDefinition {
	return []types.StyleDefinition{
		{ID: "s1", Name: "u-hidden", Order: 1, Properties: map[string]any{"display": "none"}},
		{ID: "s2", Name: "u-hide", Order: 5, Properties: map[string]any{"display": "none"}},
		{ID: "s3", Name: "u-flex", Order: 2, Properties: map[string]any{"display": "flex", "gap": "1rem"}},
		{ID: "s4", Name: "hero_wrap", Order: 3, Properties: map[string]any{"gap": "1rem", "padding": "2rem"}},
		{ID: "s5", Name: "empty_class", Order: 4},
	}
}

func TestBuildIndexesPropertiesAndFingerprints(t *testing.T) {
	ix := New()
	m := ix.Build(sampleStyles())

	assert.Equal(t, []string{"u-hidden", "u-hide"}, m.Owners("display", "none"))
	assert.Equal(t, []string{"u-flex", "hero_wrap"}, m.Owners("gap", "1rem"))
	assert.Empty(t, m.Owners("display", "grid"))

	_, indexed := m.Order("empty_class")
	assert.False(t, indexed, "styles without properties are skipped")

	fp := Fingerprint(map[string]any{"display": "none"})
	assert.Equal(t, []string{"u-hidden", "u-hide"}, m.Fingerprints[fp])
}

func TestBuildIsMemoized(t *testing.T) {
	ix := New()
	first := ix.Build(sampleStyles())
	second := ix.Build(sampleStyles())

	assert.Same(t, first, second, "unchanged input must not reallocate maps")
	assert.Equal(t, 1, ix.Builds())

	reordered := sampleStyles()
	reordered[0], reordered[3] = reordered[3], reordered[0]
	assert.Same(t, first, ix.Build(reordered), "input order does not affect the hash")

	changed := sampleStyles()
	changed[0].Properties = map[string]any{"display": "block"}
	third := ix.Build(changed)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, ix.Builds())

	ix.Invalidate()
	ix.Build(changed)
	assert.Equal(t, 3, ix.Builds())
}

func TestHashStylesCoversComboFlag(t *testing.T) {
	base := HashStyles(sampleStyles())
	combo := sampleStyles()
	combo[0].IsCombo = !combo[0].IsCombo
	assert.NotEqual(t, base, HashStyles(combo))
	assert.Equal(t, base, HashStyles(sampleStyles()))
}

func TestRebuildIsIdempotent(t *testing.T) {
	a := buildMaps(sampleStyles())
	b := buildMaps(sampleStyles())
	assert.Equal(t, a.PropertyOwners, b.PropertyOwners)
	assert.Equal(t, a.Fingerprints, b.Fingerprints)
}

func TestAnalyzeDuplicatesExactMatchFlagsNewer(t *testing.T) {
	ix := New()
	ix.Build(sampleStyles())

	newer := ix.AnalyzeDuplicates("u-hide", map[string]any{"display": "none"})
	require.NotNil(t, newer)
	assert.True(t, newer.IsExactMatch)
	assert.Equal(t, []string{"u-hidden"}, newer.ExactMatches)
	assert.Equal(t, "u-hidden", newer.Canonical)
	assert.True(t, newer.IsNewerDuplicate("u-hide"))
	assert.Equal(t, "display: none", newer.FormattedProperty)

	older := ix.AnalyzeDuplicates("u-hidden", map[string]any{"display": "none"})
	require.NotNil(t, older)
	assert.True(t, older.IsExactMatch)
	assert.False(t, older.IsNewerDuplicate("u-hidden"), "the oldest class is canonical")
}

func TestAnalyzeDuplicatesPerProperty(t *testing.T) {
	ix := New()
	ix.Build(sampleStyles())

	got := ix.AnalyzeDuplicates("hero_wrap", map[string]any{"gap": "1rem", "padding": "2rem"})
	require.NotNil(t, got)
	assert.False(t, got.IsExactMatch)
	require.Len(t, got.DuplicateProperties, 1)
	assert.Equal(t, "gap", got.DuplicateProperties[0].Property)
	assert.Equal(t, []string{"u-flex"}, got.DuplicateProperties[0].Classes)
	assert.Empty(t, got.FormattedProperty, "only single-property classes are formatted")
}

func TestAnalyzeDuplicatesNil(t *testing.T) {
	ix := New()
	ix.Build(sampleStyles())

	assert.Nil(t, ix.AnalyzeDuplicates("empty_class", nil))
	assert.Nil(t, ix.AnalyzeDuplicates("u-grid", map[string]any{"display": "grid"}))
}

func TestSerializeIsStructural(t *testing.T) {
	a := map[string]any{"x": 1, "y": map[string]any{"b": 2, "a": 1}}
	b := map[string]any{"y": map[string]any{"a": 1, "b": 2}, "x": 1}
	assert.Equal(t, Serialize(a), Serialize(b))
	assert.Equal(t, PropertyKey("transform", a), PropertyKey("transform", b))
}

func TestMalformedValuesNeverPanic(t *testing.T) {
	styles := []types.StyleDefinition{
		{Name: "u-nan", Order: 1, Properties: map[string]any{"opacity": math.NaN()}},
		{Name: "u-fn", Order: 2, Properties: map[string]any{"x": func() {}}},
	}
	ix := New()
	assert.NotPanics(t, func() {
		ix.Build(styles)
		ix.AnalyzeDuplicates("u-nan", map[string]any{"opacity": math.NaN()})
	})
}

func TestMemo(t *testing.T) {
	var m Memo[int]
	calls := 0
	build := func() int { calls++; return calls }

	assert.Equal(t, 1, m.Get("a", build))
	assert.Equal(t, 1, m.Get("a", build))
	assert.Equal(t, 2, m.Get("b", build))
	m.Invalidate()
	_, ok := m.Peek()
	assert.False(t, ok)
	assert.Equal(t, 3, m.Get("b", build))
	assert.Equal(t, 3, m.Builds())
}
