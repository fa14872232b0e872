package ruleset

import (
	"fmt"
	"strings"

	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/types"
)

// Structure rule ids.
const (
	ClassOrder          = "class-order"
	ChildGroupKey       = "child-group-key"
	ComponentRootNaming = "component-root-naming"
)

// Structure returns the structure rules.
func Structure() []rules.Rule {
	return []rules.Rule{
		&rules.StructureRule{
			Meta: rules.Meta{
				ID:          ClassOrder,
				Name:        "Class order",
				Description: "The base class comes before combo classes, and before utilities when the grammar requires it.",
				Severity:    types.SeverityWarning,
				Enabled:     true,
				Category:    CategoryStructure,
				Example:     "hero_wrap is-active u-hidden",
			},
			AnalyzeElement: analyzeClassOrder,
		},
		&rules.StructureRule{
			Meta: rules.Meta{
				ID:          ChildGroupKey,
				Name:        "Child group key",
				Description: "Custom classes inside a component share the component root's key.",
				Severity:    types.SeverityWarning,
				Enabled:     true,
				Category:    CategoryStructure,
				Example:     "card_wrap > card_content > card_title",
			},
			AnalyzeElement: analyzeChildGroupKey,
		},
		&rules.StructureRule{
			Meta: rules.Meta{
				ID:          ComponentRootNaming,
				Name:        "Component root naming",
				Description: "The base class of a component root ends with a root suffix.",
				Severity:    types.SeveritySuggestion,
				Enabled:     true,
				Category:    CategoryStructure,
				Example:     "card_wrap",
				Config: rules.Schema{
					"suffixes": {
						Type:        rules.SettingArray,
						Default:     []string{"wrap", "wrapper", "component"},
						Description: "Accepted element tokens of a component root",
					},
				},
			},
			AnalyzeElement: analyzeComponentRootNaming,
		},
	}
}

func isVariant(kind types.ClassKind, utilitiesCount bool) bool {
	return kind == types.KindCombo || (utilitiesCount && kind == types.KindUtility)
}

func analyzeClassOrder(ec *rules.ElementContext, _ rules.Settings) ([]types.Violation, error) {
	utilitiesCount := ec.Grammar != nil && ec.Grammar.CustomFirstRequired()

	var firstVariant string
	var out []types.Violation
	for _, c := range ec.Classes {
		kind := c.Parsed.Kind
		switch {
		case kind.IsBase() && firstVariant != "":
			out = append(out, types.Violation{
				ClassName: c.Name,
				Message:   fmt.Sprintf("Base class %q appears after variant %q; put the base class first", c.Name, firstVariant),
				Metadata:  map[string]any{"after": firstVariant},
			})
		case firstVariant == "" && isVariant(kind, utilitiesCount):
			firstVariant = c.Name
		}
	}
	if len(out) == 0 {
		return nil, nil
	}

	order := reorderBaseFirst(ec.Classes)
	for i := range out {
		out[i].Fix = &types.Fix{
			Kind:        types.FixReorder,
			Description: "Move base classes before variants: " + strings.Join(order, " "),
			Classes:     order,
		}
	}
	return out, nil
}

// reorderBaseFirst is a stable partition of the classes, base classes first.
func reorderBaseFirst(classes []rules.ClassInput) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if c.Parsed.Kind.IsBase() {
			out = append(out, c.Name)
		}
	}
	for _, c := range classes {
		if !c.Parsed.Kind.IsBase() {
			out = append(out, c.Name)
		}
	}
	return out
}

func baseClass(classes []rules.ClassInput) (rules.ClassInput, bool) {
	for _, c := range classes {
		if c.Parsed.Kind.IsBase() {
			return c, true
		}
	}
	return rules.ClassInput{}, false
}

// nearestRoot returns the closest ancestor holding the componentRoot role.
func nearestRoot(ec *rules.ElementContext) (string, bool) {
	if ec.Graph == nil {
		return "", false
	}
	for _, id := range ec.Graph.GetAncestorIDs(ec.ElementID) {
		if ec.RoleOf(id) == types.RoleComponentRoot {
			return id, true
		}
	}
	return "", false
}

func analyzeChildGroupKey(ec *rules.ElementContext, _ rules.Settings) ([]types.Violation, error) {
	switch ec.Role {
	case types.RoleChildGroup, types.RoleContent, types.RoleUnknown:
	default:
		return nil, nil
	}
	base, ok := baseClass(ec.Classes)
	if !ok || base.Parsed.Kind != types.KindCustom || base.Parsed.ComponentKey == "" {
		return nil, nil
	}
	rootID, ok := nearestRoot(ec)
	if !ok {
		return nil, nil
	}
	root, ok := ec.BaseOf(rootID)
	if !ok || root.ComponentKey == "" || root.ComponentKey == base.Parsed.ComponentKey {
		return nil, nil
	}

	v := types.Violation{
		ClassName: base.Name,
		Message: fmt.Sprintf("Class %q is inside component %q but uses key %q; expected %q",
			base.Name, root.Raw, base.Parsed.ComponentKey, root.ComponentKey),
		Metadata: map[string]any{"rootId": rootID, "componentKey": root.ComponentKey},
	}
	if base.Parsed.ElementToken != "" {
		v.Fix = renameFix(base.Name, root.ComponentKey+"_"+base.Parsed.ElementToken)
	}
	return []types.Violation{v}, nil
}

func analyzeComponentRootNaming(ec *rules.ElementContext, settings rules.Settings) ([]types.Violation, error) {
	if ec.Role != types.RoleComponentRoot {
		return nil, nil
	}
	base, ok := baseClass(ec.Classes)
	if !ok || base.Parsed.Kind != types.KindCustom {
		return nil, nil
	}
	suffixes := settings.Strings("suffixes", []string{"wrap", "wrapper", "component"})
	token := base.Parsed.ElementToken
	for _, s := range suffixes {
		if token == s || strings.HasSuffix(token, "-"+s) {
			return nil, nil
		}
	}
	v := types.Violation{
		ClassName: base.Name,
		Message:   fmt.Sprintf("Component root class %q should end with one of: %s", base.Name, strings.Join(suffixes, ", ")),
	}
	if len(suffixes) > 0 && base.Parsed.ComponentKey != "" {
		v.Fix = renameFix(base.Name, base.Parsed.ComponentKey+"_"+suffixes[0])
	}
	return []types.Violation{v}, nil
}
