package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/classlint/internal/types"
)

// DocumentVersion is the current configuration document version.
const DocumentVersion = 1

// ErrUnsupportedVersion is returned for documents newer than this build.
var ErrUnsupportedVersion = errors.New("unsupported configuration version")

// Document is the persisted, versioned rule configuration.
type Document struct {
	Version      int                       `json:"version" yaml:"version"`
	PresetID     *string                   `json:"presetId" yaml:"presetId"`
	EnabledRules []string                  `json:"enabledRules" yaml:"enabledRules"`
	RuleConfigs  map[string]map[string]any `json:"ruleConfigs" yaml:"ruleConfigs"`
	Severities   map[string]types.Severity `json:"severities,omitempty" yaml:"severities,omitempty"`
	LastUpdated  string                    `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
}

// legacyEntry is one rule in the unversioned format, which stored each
// rule's full configuration keyed by rule id.
type legacyEntry struct {
	Enabled        *bool          `json:"enabled"`
	Severity       string         `json:"severity"`
	CustomSettings map[string]any `json:"customSettings"`
}

// Export snapshots the registry as a Document. presetID may be empty.
func (r *Registry) Export(presetID string) Document {
	doc := Document{
		Version:     DocumentVersion,
		RuleConfigs: make(map[string]map[string]any),
		Severities:  make(map[string]types.Severity),
	}
	if presetID != "" {
		doc.PresetID = &presetID
	}
	for _, cfg := range r.Configurations() {
		if cfg.Enabled {
			doc.EnabledRules = append(doc.EnabledRules, cfg.RuleID)
		}
		doc.RuleConfigs[cfg.RuleID] = map[string]any(cfg.CustomSettings)
		doc.Severities[cfg.RuleID] = cfg.Severity
	}
	sort.Strings(doc.EnabledRules)
	if doc.EnabledRules == nil {
		doc.EnabledRules = []string{}
	}
	return doc
}

// Import applies doc over the registry's defaults. Unknown rule ids are
// skipped and unknown setting keys are pruned against each rule's schema.
// A nil EnabledRules keeps each rule's default enabled state.
// It returns the ids that were skipped.
func (r *Registry) Import(doc Document) ([]string, error) {
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	var enabled map[string]bool
	if doc.EnabledRules != nil {
		enabled = make(map[string]bool, len(doc.EnabledRules))
		for _, id := range doc.EnabledRules {
			enabled[id] = true
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		rule := r.byID[id]
		cfg := DefaultConfiguration(rule)
		if enabled != nil {
			cfg.Enabled = enabled[id]
		}
		if sev, ok := doc.Severities[id]; ok && sev.Valid() {
			cfg.Severity = sev
		}
		if settings, ok := doc.RuleConfigs[id]; ok {
			merged := mergeSettings(map[string]any(cfg.CustomSettings), settings)
			cfg.CustomSettings = rule.Info().Config.Prune(merged)
		}
		r.configs[id] = &cfg
	}

	var skipped []string
	seen := make(map[string]bool)
	note := func(id string) {
		if _, known := r.byID[id]; !known && !seen[id] {
			seen[id] = true
			skipped = append(skipped, id)
		}
	}
	for id := range doc.RuleConfigs {
		note(id)
	}
	for _, id := range doc.EnabledRules {
		note(id)
	}
	for id := range doc.Severities {
		note(id)
	}
	sort.Strings(skipped)
	return skipped, nil
}

// ParseDocument decodes a JSON configuration. Unversioned legacy files are
// upgraded in memory.
func ParseDocument(data []byte) (Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Document{}, fmt.Errorf("invalid configuration JSON: %w", err)
	}

	if _, versioned := probe["version"]; versioned {
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("invalid configuration document: %w", err)
		}
		if doc.Version < 1 || doc.Version > DocumentVersion {
			return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
		}
		if doc.RuleConfigs == nil {
			doc.RuleConfigs = make(map[string]map[string]any)
		}
		return doc, nil
	}

	return upgradeLegacy(probe)
}

func upgradeLegacy(entries map[string]json.RawMessage) (Document, error) {
	doc := Document{
		Version:      DocumentVersion,
		EnabledRules: []string{},
		RuleConfigs:  make(map[string]map[string]any),
		Severities:   make(map[string]types.Severity),
	}
	anyEnabledFlag := false
	for id, raw := range entries {
		var entry legacyEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return Document{}, fmt.Errorf("invalid legacy entry for %s: %w", id, err)
		}
		if entry.Enabled != nil {
			anyEnabledFlag = true
			if *entry.Enabled {
				doc.EnabledRules = append(doc.EnabledRules, id)
			}
		}
		if sev := types.Severity(entry.Severity); sev.Valid() {
			doc.Severities[id] = sev
		}
		if entry.CustomSettings == nil {
			entry.CustomSettings = map[string]any{}
		}
		doc.RuleConfigs[id] = entry.CustomSettings
	}
	if !anyEnabledFlag {
		doc.EnabledRules = nil
	}
	sort.Strings(doc.EnabledRules)
	return doc, nil
}

// MarshalDocument encodes doc as "json" (indented) or "yaml".
func MarshalDocument(doc Document, format string) ([]byte, error) {
	switch format {
	case "", "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("error marshaling configuration: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("error marshaling configuration: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// UnmarshalYAMLDocument decodes a YAML configuration document.
func UnmarshalYAMLDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid configuration YAML: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	if doc.Version > DocumentVersion {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	if doc.RuleConfigs == nil {
		doc.RuleConfigs = make(map[string]map[string]any)
	}
	return doc, nil
}

// Stamp sets LastUpdated to now in UTC.
func (d *Document) Stamp(now time.Time) {
	d.LastUpdated = now.UTC().Format(time.RFC3339)
}
