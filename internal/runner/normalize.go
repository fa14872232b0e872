package runner

import (
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/types"
)

// normalizer fills the common violation fields from the rule and element.
type normalizer struct {
	element string
	classes []rules.ClassInput
}

func (n normalizer) normalize(v types.Violation, meta *rules.Meta, cfg rules.Configuration, class *rules.ClassInput) types.Violation {
	v.RuleID = meta.ID
	v.Name = meta.Name
	v.Severity = cfg.Severity
	if v.ElementID == "" {
		v.ElementID = n.element
	}
	if v.ClassName == "" && class != nil {
		v.ClassName = class.Name
	}
	if v.Example == "" {
		v.Example = meta.Example
	}

	comboIndex := 0
	for _, c := range n.classes {
		isCombo := c.IsCombo || c.Parsed.Kind == types.KindCombo
		if c.Name == v.ClassName && v.ClassName != "" {
			v.IsCombo = isCombo
			if isCombo {
				idx := comboIndex
				v.ComboIndex = &idx
			}
			break
		}
		if isCombo {
			comboIndex++
		}
	}
	return v
}
