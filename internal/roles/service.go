// Package roles assigns a structural role to each element on a page.
//
// Detection runs in two passes. The first pass scores every element
// independently with an ordered list of detectors; the second pass
// reconciles "main" so at most one element keeps it.
package roles

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/dotcommander/classlint/internal/grammar"
	"github.com/dotcommander/classlint/internal/graph"
	"github.com/dotcommander/classlint/internal/types"
)

// DefaultThreshold is the minimum score a proposal needs to win.
const DefaultThreshold = 0.6

// Config tunes role detection.
type Config struct {
	Threshold float64 `json:"threshold" mapstructure:"threshold"`
}

// DefaultConfig returns the default detection config.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// Proposal is a detector's vote for an element.
type Proposal struct {
	Role  types.Role
	Score float64
}

// DetectorFunc proposes a role for el. Returning false abstains.
type DetectorFunc func(el types.ElementSnapshot, dc *Context) (Proposal, bool)

// Detector is a named DetectorFunc.
type Detector struct {
	Name   string
	Detect DetectorFunc
}

// Context is the incrementally built detection context handed to detectors.
// Detectors must treat it as read-only.
type Context struct {
	Graph    *graph.Graph
	Grammar  grammar.Grammar
	Siblings []types.ElementSnapshot

	elements map[string]types.ElementSnapshot
	decided  map[string]types.Role
}

// RoleOf returns the role already decided for id, or RoleUnknown.
func (dc *Context) RoleOf(id string) types.Role {
	if r, ok := dc.decided[id]; ok {
		return r
	}
	return types.RoleUnknown
}

// Element returns the snapshot for id.
func (dc *Context) Element(id string) (types.ElementSnapshot, bool) {
	el, ok := dc.elements[id]
	return el, ok
}

// NearestAncestorWithRole returns the closest ancestor of id already
// assigned role.
func (dc *Context) NearestAncestorWithRole(id string, role types.Role) (string, bool) {
	if dc.Graph == nil {
		return "", false
	}
	for _, a := range dc.Graph.GetAncestorIDs(id) {
		if dc.RoleOf(a) == role {
			return a, true
		}
	}
	return "", false
}

// Assignment records the winning proposal for one element after the first pass.
type Assignment struct {
	ElementID string     `json:"elementId"`
	Role      types.Role `json:"role"`
	Score     float64    `json:"score"`
	Detector  string     `json:"detector,omitempty"`
}

// Result is the output of a detection run.
type Result struct {
	Roles       map[string]types.Role `json:"roles"`
	Assignments []Assignment          `json:"assignments"`
}

// Service runs detectors over a page.
type Service struct {
	grammar   grammar.Grammar
	detectors []Detector
	config    Config
	logger    *slog.Logger
}

// NewService creates a Service. A zero threshold falls back to DefaultThreshold.
func NewService(g grammar.Grammar, detectors []Detector, config Config, logger *slog.Logger) *Service {
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		grammar:   g,
		detectors: detectors,
		config:    config,
		logger:    logger,
	}
}

// Threshold returns the effective acceptance threshold.
func (s *Service) Threshold() float64 {
	return s.config.Threshold
}

// DetectRolesForPage returns the role of every element. At most one element
// holds RoleMain.
func (s *Service) DetectRolesForPage(elements []types.ElementSnapshot, g *graph.Graph) map[string]types.Role {
	return s.Detect(elements, g).Roles
}

// Detect runs both passes and returns roles plus first-pass assignments.
func (s *Service) Detect(elements []types.ElementSnapshot, g *graph.Graph) Result {
	if g == nil {
		g = graph.FromElements(elements)
	}
	assignments := s.score(elements, g)
	return Result{
		Roles:       EnforceSingletonMain(assignments),
		Assignments: assignments,
	}
}

// MainCandidates returns the ids assigned main by the first pass, in
// assignment order.
func MainCandidates(assignments []Assignment) []string {
	var ids []string
	for _, a := range assignments {
		if a.Role == types.RoleMain {
			ids = append(ids, a.ElementID)
		}
	}
	return ids
}

// score is the first pass. Elements are visited in priority order but the
// returned assignments follow input order. A repeated id is scored once,
// at its first position.
func (s *Service) score(elements []types.ElementSnapshot, g *graph.Graph) []Assignment {
	byID := make(map[string]types.ElementSnapshot, len(elements))
	index := make(map[string]int, len(elements))
	unique := make([]types.ElementSnapshot, 0, len(elements))
	for _, el := range elements {
		if _, dup := index[el.ID]; dup {
			s.logger.Warn("duplicate element id", "element", el.ID)
			continue
		}
		byID[el.ID] = el
		index[el.ID] = len(unique)
		unique = append(unique, el)
	}
	elements = unique

	dc := &Context{
		Graph:    g,
		Grammar:  s.grammar,
		elements: byID,
		decided:  make(map[string]types.Role, len(elements)),
	}

	assignments := make([]Assignment, len(elements))
	for _, el := range prioritize(elements, g) {
		dc.Siblings = siblings(el.ID, g, byID)
		a := s.best(el, dc)
		dc.decided[el.ID] = a.Role
		assignments[index[el.ID]] = a
	}
	return assignments
}

// best runs every detector on el and picks the highest valid proposal.
func (s *Service) best(el types.ElementSnapshot, dc *Context) Assignment {
	winner := Assignment{ElementID: el.ID, Role: types.RoleUnknown}
	for _, d := range s.detectors {
		p, ok := s.run(d, el, dc)
		if !ok {
			continue
		}
		if p.Score > winner.Score {
			winner.Role = p.Role
			winner.Score = p.Score
			winner.Detector = d.Name
		}
	}
	if winner.Score < s.config.Threshold {
		return Assignment{ElementID: el.ID, Role: types.RoleUnknown, Score: winner.Score}
	}
	return winner
}

// run invokes one detector. A panicking detector abstains.
func (s *Service) run(d Detector, el types.ElementSnapshot, dc *Context) (p Proposal, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("role detector failed", "detector", d.Name, "element", el.ID, "error", fmt.Sprint(r))
			p, ok = Proposal{}, false
		}
	}()
	if d.Detect == nil {
		return Proposal{}, false
	}
	p, ok = d.Detect(el, dc)
	if !ok || math.IsNaN(p.Score) || p.Score <= 0 || p.Role == "" {
		return Proposal{}, false
	}
	if p.Score > 1 {
		p.Score = 1
	}
	return p, true
}

// EnforceSingletonMain is the second pass: only the highest-scoring main
// keeps the role, every other main becomes unknown. Ties go to the
// earlier assignment.
func EnforceSingletonMain(assignments []Assignment) map[string]types.Role {
	roles := make(map[string]types.Role, len(assignments))
	keep := -1
	for i, a := range assignments {
		roles[a.ElementID] = a.Role
		if a.Role == types.RoleMain && (keep < 0 || a.Score > assignments[keep].Score) {
			keep = i
		}
	}
	for i, a := range assignments {
		if a.Role == types.RoleMain && i != keep {
			roles[a.ElementID] = types.RoleUnknown
		}
	}
	return roles
}

// prioritize sorts so structural anchors are evaluated before the elements
// whose classification depends on them: main candidates, then section
// candidates, then everything else; shallower elements first within a tier.
func prioritize(elements []types.ElementSnapshot, g *graph.Graph) []types.ElementSnapshot {
	sorted := append([]types.ElementSnapshot(nil), elements...)
	depth := make(map[string]int, len(sorted))
	for _, el := range sorted {
		depth[el.ID] = g.Depth(el.ID)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := tier(sorted[i]), tier(sorted[j])
		if ti != tj {
			return ti < tj
		}
		return depth[sorted[i].ID] < depth[sorted[j].ID]
	})
	return sorted
}

func tier(el types.ElementSnapshot) int {
	tag := strings.ToLower(el.TagName)
	switch {
	case tag == "main" || hasClassContaining(el, "main"):
		return 0
	case tag == "section" || hasClassContaining(el, "section"):
		return 1
	default:
		return 2
	}
}

func hasClassContaining(el types.ElementSnapshot, sub string) bool {
	for _, c := range el.Classes {
		if strings.Contains(strings.ToLower(c), sub) {
			return true
		}
	}
	return false
}

func siblings(id string, g *graph.Graph, byID map[string]types.ElementSnapshot) []types.ElementSnapshot {
	ids := g.SiblingIDs(id)
	out := make([]types.ElementSnapshot, 0, len(ids))
	for _, sid := range ids {
		if el, ok := byID[sid]; ok {
			out = append(out, el)
		}
	}
	return out
}
