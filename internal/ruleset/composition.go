package ruleset

import (
	"fmt"

	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/types"
)

// Composition rule ids.
const (
	ComboRequiresBase = "combo-requires-base"
	SingleBaseClass   = "single-base-class"
	MaxComboClasses   = "max-combo-classes"
	MaxUtilityClasses = "max-utility-classes"
)

// Composition returns the composition rules.
func Composition() []rules.Rule {
	return []rules.Rule{
		&rules.CompositionRule{
			Meta: rules.Meta{
				ID:               ComboRequiresBase,
				Name:             "Combo requires base",
				Description:      "A combo class modifies a base class and cannot stand alone.",
				Severity:         types.SeverityError,
				Enabled:          true,
				Category:         CategoryComposition,
				TargetClassTypes: []types.ClassKind{types.KindCombo},
				Example:          "card_wrap is-active",
			},
			AnalyzeElement: analyzeComboRequiresBase,
		},
		&rules.CompositionRule{
			Meta: rules.Meta{
				ID:          SingleBaseClass,
				Name:        "Single base class",
				Description: "An element carries at most one custom or component class.",
				Severity:    types.SeverityWarning,
				Enabled:     true,
				Category:    CategoryComposition,
				TargetClassTypes: []types.ClassKind{
					types.KindCustom, types.KindComponent,
				},
				Example: "card_wrap is-featured",
			},
			AnalyzeElement: analyzeSingleBase,
		},
		&rules.CompositionRule{
			Meta: rules.Meta{
				ID:               MaxComboClasses,
				Name:             "Combo class limit",
				Description:      "Limit the number of combo classes stacked on one element.",
				Severity:         types.SeverityWarning,
				Enabled:          true,
				Category:         CategoryComposition,
				TargetClassTypes: []types.ClassKind{types.KindCombo},
				Example:          "card_wrap is-active is-large",
				Config: rules.Schema{
					"max": {Type: rules.SettingNumber, Default: 2, Description: "Maximum combo classes per element"},
				},
			},
			AnalyzeElement: countLimit(types.KindCombo, 2, "combo"),
		},
		&rules.CompositionRule{
			Meta: rules.Meta{
				ID:               MaxUtilityClasses,
				Name:             "Utility class limit",
				Description:      "Many stacked utilities usually mean a custom class is missing.",
				Severity:         types.SeveritySuggestion,
				Enabled:          true,
				Category:         CategoryComposition,
				TargetClassTypes: []types.ClassKind{types.KindUtility},
				Example:          "card_wrap u-hidden",
				Config: rules.Schema{
					"max": {Type: rules.SettingNumber, Default: 4, Description: "Maximum utility classes per element"},
				},
			},
			AnalyzeElement: countLimit(types.KindUtility, 4, "utility"),
		},
	}
}

func analyzeComboRequiresBase(ec *rules.ElementContext, _ rules.Settings) ([]types.Violation, error) {
	if _, ok := baseClass(ec.Classes); ok {
		return nil, nil
	}
	var out []types.Violation
	for _, c := range ec.Classes {
		if c.Parsed.Kind != types.KindCombo {
			continue
		}
		out = append(out, types.Violation{
			ClassName: c.Name,
			Message:   fmt.Sprintf("Combo class %q has no base class to modify", c.Name),
		})
	}
	return out, nil
}

func analyzeSingleBase(ec *rules.ElementContext, _ rules.Settings) ([]types.Violation, error) {
	var first string
	var out []types.Violation
	for _, c := range ec.Classes {
		if !c.Parsed.Kind.IsBase() {
			continue
		}
		if first == "" {
			first = c.Name
			continue
		}
		out = append(out, types.Violation{
			ClassName: c.Name,
			Message:   fmt.Sprintf("Element already has base class %q; %q should be a combo or removed", first, c.Name),
			Fix: &types.Fix{
				Kind:        types.FixRemove,
				Description: fmt.Sprintf("Remove %q", c.Name),
				Classes:     []string{c.Name},
			},
		})
	}
	return out, nil
}

// countLimit reports the first class of kind beyond the configured "max".
func countLimit(kind types.ClassKind, defaultMax int, label string) func(*rules.ElementContext, rules.Settings) ([]types.Violation, error) {
	return func(ec *rules.ElementContext, settings rules.Settings) ([]types.Violation, error) {
		limit := settings.Int("max", defaultMax)
		if limit < 0 {
			return nil, nil
		}
		var matched []string
		for _, c := range ec.Classes {
			if c.Parsed.Kind == kind {
				matched = append(matched, c.Name)
			}
		}
		if len(matched) <= limit {
			return nil, nil
		}
		return []types.Violation{{
			ClassName: matched[limit],
			Message:   fmt.Sprintf("Element has %d %s classes; the limit is %d", len(matched), label, limit),
			Metadata:  map[string]any{"count": len(matched), "max": limit, "classes": matched},
		}}, nil
	}
}
