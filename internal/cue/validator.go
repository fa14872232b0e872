// Package cue validates classlint documents against embedded CUE schemas.
package cue

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Schema names.
const (
	SchemaRuleConfig = "ruleconfig"
	SchemaSiteExport = "siteexport"
)

// definitions maps a schema file name to the definition validated against.
var definitions = map[string]string{
	SchemaRuleConfig: "#RuleConfig",
	SchemaSiteExport: "#SiteExport",
}

// ValidationError is one schema violation.
type ValidationError struct {
	Schema  string
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Schema, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Schema, e.Path, e.Message)
}

// Validator handles CUE validation
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
}

// LoadSchemas loads all CUE schema files from the embedded filesystem
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("could not read embedded schemas: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			continue
		}

		inst := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if instErr := inst.Err(); instErr != nil {
			return fmt.Errorf("schema %s: %w", entry.Name(), instErr)
		}

		// ruleconfig.cue -> ruleconfig
		v.schemas[strings.TrimSuffix(entry.Name(), ".cue")] = inst
	}

	if len(v.schemas) == 0 {
		return fmt.Errorf("no CUE schemas loaded")
	}
	return nil
}

// HasSchema reports whether a schema is loaded.
func (v *Validator) HasSchema(name string) bool {
	_, ok := v.schemas[name]
	return ok
}

// ValidateJSON validates raw JSON against a schema. JSON is valid CUE, so
// the document is compiled directly, which keeps integer literals integral.
// A schema that is not loaded validates nothing.
func (v *Validator) ValidateJSON(schemaName string, data []byte) ([]ValidationError, error) {
	def, ok := v.definition(schemaName)
	if !ok {
		return nil, nil
	}
	value := v.ctx.CompileBytes(data, cue.Filename(schemaName+".json"))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("error compiling document: %w", err)
	}
	return v.unify(schemaName, def, value), nil
}

// Validate validates decoded data against a schema.
func (v *Validator) Validate(schemaName string, data any) ([]ValidationError, error) {
	def, ok := v.definition(schemaName)
	if !ok {
		return nil, nil
	}
	value := v.ctx.Encode(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("error encoding data: %w", err)
	}
	return v.unify(schemaName, def, value), nil
}

func (v *Validator) definition(schemaName string) (cue.Value, bool) {
	schema, ok := v.schemas[schemaName]
	if !ok {
		return cue.Value{}, false
	}
	defName, ok := definitions[schemaName]
	if !ok {
		return cue.Value{}, false
	}
	def := schema.LookupPath(cue.ParsePath(defName))
	return def, def.Exists()
}

func (v *Validator) unify(schemaName string, def, value cue.Value) []ValidationError {
	unified := def.Unify(value)
	if err := unified.Err(); err != nil {
		return extractErrors(schemaName, err)
	}
	// Concreteness makes required fields mandatory.
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return extractErrors(schemaName, err)
	}
	return nil
}

// extractErrors converts a CUE error into one ValidationError per line.
func extractErrors(schemaName string, err error) []ValidationError {
	var out []ValidationError
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p, msg, found := strings.Cut(line, ": ")
		if !found {
			p, msg = "", line
		}
		out = append(out, ValidationError{Schema: schemaName, Path: p, Message: msg})
	}
	return out
}
