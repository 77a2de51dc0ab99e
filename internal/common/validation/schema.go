// Package validation checks generation records against per-kind JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Messages flattens the errors into "field: message" strings for error details.
func (r *ValidationResult) Messages() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// SchemaSet holds compiled record schemas keyed by template kind. Kinds with no
// schema configured pass validation unconditionally.
type SchemaSet struct {
	schemas map[string]*gojsonschema.Schema
}

// LoadSchemas compiles the given raw JSON schemas. Keys are template kinds,
// values are schema documents.
func LoadSchemas(byKind map[string]string) (*SchemaSet, error) {
	set := &SchemaSet{schemas: make(map[string]*gojsonschema.Schema, len(byKind))}
	for kind, raw := range byKind {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema for kind %s: %w", kind, err)
		}
		set.schemas[kind] = schema
	}
	return set, nil
}

// ValidateRecord validates a record against the schema registered for kind.
func (s *SchemaSet) ValidateRecord(kind string, record map[string]interface{}) (*ValidationResult, error) {
	schema, ok := s.schemas[kind]
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return nil, fmt.Errorf("validate record for kind %s: %w", kind, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, resErr := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   resErr.Field(),
			Message: resErr.Description(),
		})
	}
	return out, nil
}
