package lintctx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/classlint/internal/preset"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/ruleset"
	"github.com/dotcommander/classlint/internal/types"
)

type node struct {
	el       types.ElementSnapshot
	children []string
	classes  []string
}

// fakeHost serves a page from memory and can fail or block on demand.
type fakeHost struct {
	mu           sync.Mutex
	nodes        []node
	styles       []types.StyleDefinition
	props        map[string]map[string]any
	failChildren map[string]bool
	failApplied  map[string]bool
	failElements bool
	calls        int
	// onElements runs after the element list is captured, outside the lock.
	onElements func(call int)
	propCalls  int
}

func (h *fakeHost) Elements(context.Context) ([]types.ElementSnapshot, error) {
	h.mu.Lock()
	h.calls++
	call := h.calls
	if h.failElements {
		h.mu.Unlock()
		return nil, errors.New("host offline")
	}
	out := make([]types.ElementSnapshot, len(h.nodes))
	for i, n := range h.nodes {
		out[i] = n.el
	}
	hook := h.onElements
	h.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return out, nil
}

func (h *fakeHost) find(id string) (node, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range h.nodes {
		if n.el.ID == id {
			return n, true
		}
	}
	return node{}, false
}

func (h *fakeHost) Children(_ context.Context, id string) ([]string, error) {
	if h.failChildren[id] {
		return nil, errors.New("children unavailable")
	}
	n, _ := h.find(id)
	return n.children, nil
}

func (h *fakeHost) AppliedClasses(_ context.Context, id string) ([]types.AppliedClass, error) {
	if h.failApplied[id] {
		return nil, errors.New("styles unavailable")
	}
	n, _ := h.find(id)
	out := make([]types.AppliedClass, len(n.classes))
	for i, c := range n.classes {
		out[i] = types.AppliedClass{Name: c, Order: i}
	}
	return out, nil
}

func (h *fakeHost) Styles(context.Context) ([]types.StyleDefinition, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.StyleDefinition(nil), h.styles...), nil
}

func (h *fakeHost) Properties(_ context.Context, styleID, breakpoint string) (map[string]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.propCalls++
	if breakpoint != "main" {
		return nil, nil
	}
	props, ok := h.props[styleID]
	if !ok {
		return nil, errors.New("no such style")
	}
	return props, nil
}

func samplePage() *fakeHost {
	return &fakeHost{
		nodes: []node{
			{el: types.ElementSnapshot{ID: "main1", TagName: "main"}, children: []string{"div1", "div2"}, classes: []string{"page_main"}},
			{el: types.ElementSnapshot{ID: "div1", TagName: "div"}, classes: []string{"u-hidden"}},
			{el: types.ElementSnapshot{ID: "div2", TagName: "div"}, classes: []string{"is-active"}},
		},
		styles: []types.StyleDefinition{
			{ID: "s1", Name: "u-hide", Order: 1},
			{ID: "s2", Name: "u-hidden", Order: 2},
		},
		props: map[string]map[string]any{
			"s1": {"display": "none"},
			"s2": {"display": "none"},
		},
	}
}

func newEngine(t *testing.T, h *fakeHost) *Engine {
	t.Helper()
	p := preset.Lumos()
	reg, err := p.NewRegistry()
	require.NoError(t, err)
	return New(p, reg, h, h, Options{Concurrency: 2})
}

func ruleIDs(vs []types.Violation) map[string]int {
	out := map[string]int{}
	for _, v := range vs {
		out[v.RuleID]++
	}
	return out
}

func TestScanPage(t *testing.T) {
	e := newEngine(t, samplePage())

	report, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, uint64(1), report.Generation)
	assert.False(t, report.CacheHit)
	assert.Equal(t, 3, report.Elements)
	assert.Equal(t, types.RoleMain, report.Roles["main1"])

	ids := ruleIDs(report.Violations)
	assert.Equal(t, 1, ids[ruleset.MainSemanticContent])
	assert.Equal(t, 1, ids[ruleset.ComboRequiresBase])
	assert.Equal(t, 1, ids[ruleset.UtilityDuplicateProperties])

	snap := e.Cached()
	require.NotNil(t, snap)
	assert.Equal(t, "main1", snap.Graph.GetParentID("div1"))
	assert.Equal(t, map[string]any{"display": "none"}, snap.ElementStyles["div1"][0].Properties)
}

func TestScanPage_CacheHitAndInvalidation(t *testing.T) {
	h := samplePage()
	e := newEngine(t, h)

	_, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	first := e.Cached()

	report, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.True(t, report.CacheHit)
	assert.Same(t, first, e.Cached())

	h.mu.Lock()
	h.nodes[2].classes = []string{"card_wrap", "is-active"}
	h.mu.Unlock()

	report, err = e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.False(t, report.CacheHit)
	assert.NotSame(t, first, e.Cached())
	assert.Zero(t, ruleIDs(report.Violations)[ruleset.ComboRequiresBase])

	e.Invalidate()
	assert.Nil(t, e.Cached())
	report, err = e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.False(t, report.CacheHit)
}

func TestScanPage_RuleChangesApplyOnCacheHit(t *testing.T) {
	p := preset.Lumos()
	reg, err := p.NewRegistry()
	require.NoError(t, err)
	h := samplePage()
	e := New(p, reg, h, h, Options{})

	_, err = e.ScanPage(context.Background())
	require.NoError(t, err)

	off := false
	require.NoError(t, reg.UpdateRuleConfiguration(ruleset.ComboRequiresBase, rules.Update{Enabled: &off}))
	report, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.True(t, report.CacheHit)
	assert.Zero(t, ruleIDs(report.Violations)[ruleset.ComboRequiresBase])
}

func TestScanElement(t *testing.T) {
	e := newEngine(t, samplePage())

	report, err := e.ScanElement(context.Background(), "div2")
	require.NoError(t, err)
	assert.Equal(t, "div2", report.ElementID)
	for _, v := range report.Violations {
		assert.Equal(t, "div2", v.ElementID)
	}
	ids := ruleIDs(report.Violations)
	assert.Equal(t, 1, ids[ruleset.ComboRequiresBase])
	assert.Zero(t, ids[ruleset.MainSemanticContent])
}

func TestScan_HostFailuresDegrade(t *testing.T) {
	h := samplePage()
	h.failChildren = map[string]bool{"main1": true}
	h.failApplied = map[string]bool{"div2": true}
	delete(h.props, "s2")
	e := newEngine(t, h)

	report, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Elements)

	snap := e.Cached()
	assert.Empty(t, snap.Graph.GetChildrenIDs("main1"))
	assert.Empty(t, snap.ElementStyles["div2"])
	ids := ruleIDs(report.Violations)
	assert.Zero(t, ids[ruleset.ComboRequiresBase])
	assert.Zero(t, ids[ruleset.UtilityDuplicateProperties])
}

func TestScan_ElementsFailureIsEmptyReport(t *testing.T) {
	h := samplePage()
	h.failElements = true
	e := newEngine(t, h)

	report, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Elements)
	assert.Empty(t, report.Violations)
}

func TestScan_StaleScanDoesNotReplaceCache(t *testing.T) {
	h := samplePage()
	entered := make(chan struct{})
	release := make(chan struct{})
	h.onElements = func(call int) {
		if call == 1 {
			close(entered)
			<-release
		}
	}
	e := newEngine(t, h)

	type result struct {
		report *Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r, err := e.ScanPage(context.Background())
		done <- result{r, err}
	}()
	<-entered

	h.mu.Lock()
	h.nodes = append(h.nodes, node{el: types.ElementSnapshot{ID: "extra", TagName: "p"}})
	h.nodes[0].children = append(h.nodes[0].children, "extra")
	h.mu.Unlock()

	latest, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest.Generation)
	assert.Equal(t, 4, latest.Elements)
	newest := e.Cached()

	close(release)
	old := <-done
	assert.True(t, errors.Is(old.err, ErrStaleScan))
	require.NotNil(t, old.report)
	assert.True(t, old.report.Stale)
	assert.Equal(t, uint64(1), old.report.Generation)
	assert.Equal(t, 3, old.report.Elements)
	assert.Same(t, newest, e.Cached())
	assert.Len(t, e.Cached().Elements, 4)
}

func TestScan_CanceledContext(t *testing.T) {
	e := newEngine(t, samplePage())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ScanPage(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanPage_AuthoredOrderAndTagInvalidate(t *testing.T) {
	h := samplePage()
	h.nodes[2].classes = []string{"hero_wrap", "is-active"}
	e := newEngine(t, h)

	report, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ruleIDs(report.Violations)[ruleset.ClassOrder])

	h.mu.Lock()
	h.nodes[2].classes = []string{"is-active", "hero_wrap"}
	h.mu.Unlock()

	report, err = e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.False(t, report.CacheHit)
	assert.Equal(t, 1, ruleIDs(report.Violations)[ruleset.ClassOrder])
	assert.Equal(t, "is-active", e.Cached().ElementStyles["div2"][0].Name)

	h.mu.Lock()
	h.nodes[1].el.TagName = "section"
	h.mu.Unlock()

	report, err = e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.False(t, report.CacheHit)
	assert.Equal(t, types.RoleSection, report.Roles["div1"])
}

func TestScanPage_ReportsEveryDemotedMain(t *testing.T) {
	h := &fakeHost{
		nodes: []node{
			{el: types.ElementSnapshot{ID: "m1", TagName: "div"}, classes: []string{"page_main"}},
			{el: types.ElementSnapshot{ID: "m2", TagName: "div"}, classes: []string{"page_main"}},
		},
	}
	e := newEngine(t, h)

	report, err := e.ScanPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RoleMain, report.Roles["m1"])
	assert.Equal(t, types.RoleUnknown, report.Roles["m2"])

	var mains []types.Violation
	for _, v := range report.Violations {
		if v.RuleID == ruleset.SingleMain {
			mains = append(mains, v)
		}
	}
	require.Len(t, mains, 1)
	assert.Equal(t, "m2", mains[0].ElementID)
}

func TestSignature(t *testing.T) {
	elements := []types.ElementSnapshot{
		{ID: "a", TagName: "div", Classes: []string{"x", "y"}},
		{ID: "b", TagName: "p", Classes: []string{"z"}},
	}
	parents := map[string]string{"b": "a"}
	base := Signature(elements, nil, parents, "h")

	shuffled := []types.ElementSnapshot{elements[1], elements[0]}
	assert.Equal(t, base, Signature(shuffled, nil, parents, "h"))

	tests := []struct {
		name     string
		elements []types.ElementSnapshot
		applied  map[string][]types.AppliedClass
		parents  map[string]string
		styles   string
	}{
		{"class order", []types.ElementSnapshot{
			{ID: "a", TagName: "div", Classes: []string{"y", "x"}},
			{ID: "b", TagName: "p", Classes: []string{"z"}},
		}, nil, parents, "h"},
		{"class membership", []types.ElementSnapshot{
			{ID: "a", TagName: "div", Classes: []string{"x"}},
			{ID: "b", TagName: "p", Classes: []string{"z", "y"}},
		}, nil, parents, "h"},
		{"tag", []types.ElementSnapshot{
			{ID: "a", TagName: "main", Classes: []string{"x", "y"}},
			elements[1],
		}, nil, parents, "h"},
		{"attributes", []types.ElementSnapshot{
			{ID: "a", TagName: "div", Classes: []string{"x", "y"}, Attributes: map[string]string{"role": "main"}},
			elements[1],
		}, nil, parents, "h"},
		{"text", []types.ElementSnapshot{
			elements[0],
			{ID: "b", TagName: "p", Classes: []string{"z"}, TextContent: "hello"},
		}, nil, parents, "h"},
		{"combo flag", elements, map[string][]types.AppliedClass{
			"a": {{Name: "x", Order: 0}, {Name: "y", Order: 1, IsCombo: true}},
		}, parents, "h"},
		{"tree shape", elements, nil, map[string]string{}, "h"},
		{"styles", elements, nil, parents, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Signature(tt.elements, tt.applied, tt.parents, tt.styles))
		})
	}

	// class boundaries are unambiguous
	a := []types.ElementSnapshot{{ID: "a", Classes: []string{"xy"}}}
	b := []types.ElementSnapshot{{ID: "a", Classes: []string{"x", "y"}}}
	assert.NotEqual(t, Signature(a, nil, nil, ""), Signature(b, nil, nil, ""))
}
