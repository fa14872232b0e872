package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrInvalidSetting is returned by Schema.Check.
var ErrInvalidSetting = errors.New("invalid setting")

// SettingType is the declared type of a custom setting.
type SettingType string

// Setting types.
const (
	SettingNumber  SettingType = "number"
	SettingString  SettingType = "string"
	SettingBoolean SettingType = "boolean"
	SettingArray   SettingType = "array"
	SettingObject  SettingType = "object"
)

// Setting declares one custom setting of a rule.
type Setting struct {
	Type        SettingType `json:"type"`
	Default     any         `json:"default"`
	Description string      `json:"description,omitempty"`
}

// Schema maps setting keys to their declarations.
type Schema map[string]Setting

// Defaults returns a fresh settings map holding every schema default.
func (s Schema) Defaults() Settings {
	out := make(Settings, len(s))
	for k, def := range s {
		out[k] = normalize(def.Type, def.Default)
	}
	return out
}

// Prune drops keys the schema does not declare and values whose type does
// not match the declaration.
func (s Schema) Prune(in map[string]any) Settings {
	out := make(Settings, len(in))
	for k, v := range in {
		def, ok := s[k]
		if !ok || !def.Type.accepts(v) {
			continue
		}
		out[k] = normalize(def.Type, v)
	}
	return out
}

// Check reports the first key, in sorted order, that Prune would drop.
func (s Schema) Check(in map[string]any) error {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		def, ok := s[k]
		if !ok {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, k)
		}
		if !def.Type.accepts(in[k]) {
			return fmt.Errorf("%w: %q must be a %s", ErrInvalidSetting, k, def.Type)
		}
	}
	return nil
}

func (t SettingType) accepts(v any) bool {
	switch t {
	case SettingNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64, json.Number:
			return true
		}
		return false
	case SettingString:
		_, ok := v.(string)
		return ok
	case SettingBoolean:
		_, ok := v.(bool)
		return ok
	case SettingArray:
		if v == nil {
			return false
		}
		k := reflect.TypeOf(v).Kind()
		return k == reflect.Slice || k == reflect.Array
	case SettingObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

// normalize converts numbers to float64 and string slices to []any so
// settings compare equal after a JSON round trip.
func normalize(t SettingType, v any) any {
	switch t {
	case SettingNumber:
		switch n := v.(type) {
		case int:
			return float64(n)
		case int32:
			return float64(n)
		case int64:
			return float64(n)
		case float32:
			return float64(n)
		case json.Number:
			f, _ := n.Float64()
			return f
		}
	case SettingArray:
		if ss, ok := v.([]string); ok {
			out := make([]any, len(ss))
			for i, s := range ss {
				out[i] = s
			}
			return out
		}
	}
	return plain(v)
}

// plain deep-copies v with every number as float64, the shape a JSON
// decode produces. YAML decodes whole numbers as int.
func plain(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plain(val)
		}
		return out
	default:
		return cloneValue(v)
	}
}

// Settings are the effective custom settings of one rule.
type Settings map[string]any

// Int returns an integer setting, handling float64 from JSON.
func (s Settings) Int(key string, defaultVal int) int {
	switch n := s[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return defaultVal
	}
}

// String returns a string setting.
func (s Settings) String(key string, defaultVal string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return defaultVal
}

// Bool returns a boolean setting.
func (s Settings) Bool(key string, defaultVal bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return defaultVal
}

// Strings returns a string slice setting.
func (s Settings) Strings(key string, defaultVal []string) []string {
	switch v := s[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return defaultVal
	}
}

// mergeSettings deep-merges src into dst. Nested objects merge key by
// key; every other value replaces the existing one.
func mergeSettings(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[k] = mergeSettings(dstMap, srcMap)
			continue
		}
		dst[k] = cloneValue(v)
	}
	return dst
}

// cloneValue deep-copies maps and slices so callers cannot alias
// registry state.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Settings:
		return map[string]any(cloneSettings(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func cloneSettings(s Settings) Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}
