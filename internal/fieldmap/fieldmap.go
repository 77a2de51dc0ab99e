// Package fieldmap binds record fields to template cells. Mappings are
// declared in configuration per template kind and validated once at startup.
package fieldmap

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"quotegen/internal/common/config"
	"quotegen/internal/common/errors"
)

// Assignment is one resolved cell write: the record value that goes into a
// template cell.
type Assignment struct {
	Cell  string
	Value interface{}
}

// Mapping is the validated field-to-cell table for one template kind. Field
// order is preserved so missing-field errors always name the first mapped
// field absent from a record.
type Mapping struct {
	Kind   string
	Sheet  string
	fields []config.FieldCell
}

// Fields returns the mapped field names in declaration order.
func (m *Mapping) Fields() []string {
	names := make([]string, len(m.fields))
	for i, fc := range m.fields {
		names[i] = fc.Field
	}
	return names
}

// BuildAssignments resolves a record into cell assignments. Every mapped field
// must be present in the record; extra record fields are ignored.
func (m *Mapping) BuildAssignments(record map[string]interface{}) ([]Assignment, error) {
	assignments := make([]Assignment, 0, len(m.fields))
	for _, fc := range m.fields {
		value, ok := record[fc.Field]
		if !ok {
			return nil, errors.NewMissingFieldError(fc.Field)
		}
		assignments = append(assignments, Assignment{Cell: fc.Cell, Value: value})
	}
	return assignments, nil
}

// Registry holds the mappings for all configured template kinds.
type Registry struct {
	mappings map[string]*Mapping
}

// NewRegistry validates and indexes the configured mappings. Cell references
// must parse as A1-style coordinates and be unique within a mapping.
func NewRegistry(cfgs map[string]config.MappingConfig) (*Registry, error) {
	reg := &Registry{mappings: make(map[string]*Mapping, len(cfgs))}
	for kind, mc := range cfgs {
		seen := make(map[string]string, len(mc.Fields))
		for _, fc := range mc.Fields {
			if _, _, err := excelize.CellNameToCoordinates(fc.Cell); err != nil {
				return nil, fmt.Errorf("mapping %s: field %s has invalid cell %q: %w", kind, fc.Field, fc.Cell, err)
			}
			if prev, dup := seen[fc.Cell]; dup {
				return nil, fmt.Errorf("mapping %s: cell %s assigned to both %s and %s", kind, fc.Cell, prev, fc.Field)
			}
			seen[fc.Cell] = fc.Field
		}
		reg.mappings[kind] = &Mapping{
			Kind:   kind,
			Sheet:  mc.Sheet,
			fields: mc.Fields,
		}
	}
	return reg, nil
}

// Get returns the mapping for a template kind.
func (r *Registry) Get(kind string) (*Mapping, bool) {
	m, ok := r.mappings[kind]
	return m, ok
}

// Kinds lists the kinds that have a mapping configured.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.mappings))
	for kind := range r.mappings {
		kinds = append(kinds, kind)
	}
	return kinds
}
