package ruleset

import (
	"fmt"
	"strings"

	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/types"
)

// Page rule ids.
const (
	SingleMain          = "single-main"
	MainSemanticContent = "main-semantic-content"
	SectionInMain       = "section-in-main"
)

// Page returns the page rules.
func Page() []rules.Rule {
	return []rules.Rule{
		&rules.PageRule{
			Meta: rules.Meta{
				ID:          SingleMain,
				Name:        "Single main",
				Description: "A page has exactly one main element.",
				Severity:    types.SeverityError,
				Enabled:     true,
				Category:    CategoryPage,
				Example:     "<main class=\"page_main\">",
			},
			AnalyzePage: analyzeSingleMain,
		},
		&rules.PageRule{
			Meta: rules.Meta{
				ID:          MainSemanticContent,
				Name:        "Main contains semantic content",
				Description: "The main element contains at least one section or component root.",
				Severity:    types.SeverityWarning,
				Enabled:     true,
				Category:    CategoryPage,
				Example:     "page_main > section_hero",
			},
			AnalyzePage: analyzeMainSemanticContent,
		},
		&rules.PageRule{
			Meta: rules.Meta{
				ID:          SectionInMain,
				Name:        "Section inside main",
				Description: "Sections live inside the main element.",
				Severity:    types.SeverityWarning,
				Enabled:     true,
				Category:    CategoryPage,
				Example:     "page_main > section_hero",
			},
			AnalyzePage: analyzeSectionInMain,
		},
	}
}

func firstClass(pc *rules.PageContext, id string) string {
	if el, ok := pc.Element(id); ok && len(el.Classes) > 0 {
		return el.Classes[0]
	}
	return ""
}

// claimsMain reports whether el marks itself as main regardless of scoring.
func claimsMain(el types.ElementSnapshot) bool {
	return strings.EqualFold(el.TagName, "main") || el.Attributes["role"] == "main"
}

func analyzeSingleMain(pc *rules.PageContext, _ rules.Settings) ([]types.Violation, error) {
	if len(pc.Elements) == 0 {
		return nil, nil
	}
	mains := pc.IDsWithRole(types.RoleMain)
	if len(mains) == 0 {
		return []types.Violation{{
			Message: "Page has no main element",
		}}, nil
	}

	var out []types.Violation
	for _, el := range pc.Elements {
		if el.ID == mains[0] || !(claimsMain(el) || pc.IsMainCandidate(el.ID)) {
			continue
		}
		out = append(out, types.Violation{
			ElementID: el.ID,
			ClassName: firstClass(pc, el.ID),
			Message:   fmt.Sprintf("Element %q is marked as main but %q is the page's main element", el.ID, mains[0]),
			Metadata:  map[string]any{"main": mains[0]},
		})
	}
	return out, nil
}

func analyzeMainSemanticContent(pc *rules.PageContext, _ rules.Settings) ([]types.Violation, error) {
	var out []types.Violation
	for _, id := range pc.IDsWithRole(types.RoleMain) {
		found := false
		for _, d := range pc.Graph.GetDescendantIDs(id) {
			if r := pc.Roles[d]; r == types.RoleSection || r == types.RoleComponentRoot {
				found = true
				break
			}
		}
		if found {
			continue
		}
		out = append(out, types.Violation{
			ElementID: id,
			ClassName: firstClass(pc, id),
			Message:   "Main element contains no section or component root",
		})
	}
	return out, nil
}

func analyzeSectionInMain(pc *rules.PageContext, _ rules.Settings) ([]types.Violation, error) {
	mains := pc.IDsWithRole(types.RoleMain)
	if len(mains) == 0 {
		return nil, nil
	}
	main := mains[0]

	var out []types.Violation
	for _, id := range pc.IDsWithRole(types.RoleSection) {
		inside := false
		for _, a := range pc.Graph.GetAncestorIDs(id) {
			if a == main {
				inside = true
				break
			}
		}
		if inside {
			continue
		}
		out = append(out, types.Violation{
			ElementID: id,
			ClassName: firstClass(pc, id),
			Message:   fmt.Sprintf("Section %q is outside the main element", id),
		})
	}
	return out, nil
}
