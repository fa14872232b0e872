package cue

import (
	"strings"
	"testing"
)

// TestNewValidator tests the Validator constructor
func TestNewValidator(t *testing.T) {
	v := NewValidator()
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
	if v.ctx == nil {
		t.Error("Validator.ctx is nil")
	}
	if len(v.schemas) != 0 {
		t.Errorf("Expected empty schemas map, got %d entries", len(v.schemas))
	}
}

// TestLoadSchemas tests loading embedded CUE schemas
func TestLoadSchemas(t *testing.T) {
	v := NewValidator()
	if err := v.LoadSchemas(); err != nil {
		t.Fatalf("LoadSchemas failed: %v", err)
	}
	for _, name := range []string{SchemaRuleConfig, SchemaSiteExport} {
		if !v.HasSchema(name) {
			t.Errorf("Expected schema %q to be loaded", name)
		}
	}
}

func loaded(t *testing.T) *Validator {
	t.Helper()
	v := NewValidator()
	if err := v.LoadSchemas(); err != nil {
		t.Fatalf("LoadSchemas failed: %v", err)
	}
	return v
}

func TestValidateRuleConfig(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantError bool
	}{
		{
			name: "valid document",
			doc:  `{"version":1,"presetId":"lumos","enabledRules":["class-order"],"ruleConfigs":{"class-order":{}}}`,
		},
		{
			name: "null preset and severities",
			doc:  `{"version":1,"presetId":null,"enabledRules":[],"ruleConfigs":{},"severities":{"class-order":"error"}}`,
		},
		{
			name:      "future version",
			doc:       `{"version":2,"enabledRules":[],"ruleConfigs":{}}`,
			wantError: true,
		},
		{
			name:      "bad severity",
			doc:       `{"version":1,"ruleConfigs":{},"severities":{"class-order":"fatal"}}`,
			wantError: true,
		},
		{
			name:      "enabledRules not a list",
			doc:       `{"version":1,"enabledRules":"class-order","ruleConfigs":{}}`,
			wantError: true,
		},
		{
			name:      "unknown field",
			doc:       `{"version":1,"ruleConfigs":{},"extra":true}`,
			wantError: true,
		},
	}

	v := loaded(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.ValidateJSON(SchemaRuleConfig, []byte(tt.doc))
			if err != nil {
				t.Fatalf("ValidateJSON returned error: %v", err)
			}
			if hasErrors := len(errs) > 0; hasErrors != tt.wantError {
				t.Errorf("got errors %v, wantError %v", errs, tt.wantError)
			}
		})
	}
}

func TestValidateJSON_Malformed(t *testing.T) {
	v := loaded(t)
	if _, err := v.ValidateJSON(SchemaRuleConfig, []byte(`{"version":`)); err == nil {
		t.Error("expected compile error for malformed JSON")
	}
}

func TestValidate_SiteExport(t *testing.T) {
	v := loaded(t)

	ok := map[string]any{
		"page": "home",
		"elements": []any{
			map[string]any{"id": "e1", "tagName": "main", "classes": []any{"page_main"}},
		},
		"styles": []any{
			map[string]any{"name": "page_main", "order": 1.0},
		},
	}
	errs, err := v.Validate(SchemaSiteExport, ok)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}

	missingID := map[string]any{
		"elements": []any{map[string]any{"tagName": "div"}},
	}
	errs, err = v.Validate(SchemaSiteExport, missingID)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(errs) == 0 {
		t.Error("expected an error for an element without id")
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	v := loaded(t)
	errs, err := v.ValidateJSON("nope", []byte(`{}`))
	if err != nil || errs != nil {
		t.Errorf("unknown schema should validate nothing, got %v, %v", errs, err)
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Schema: "ruleconfig", Path: "version", Message: "conflicting values"}
	if got := e.Error(); !strings.Contains(got, "version: conflicting values") {
		t.Errorf("Error() = %q", got)
	}
	e.Path = ""
	if got := e.Error(); got != "ruleconfig: conflicting values" {
		t.Errorf("Error() = %q", got)
	}
}
