// Package rif defines the record layouts of the claim export files and a
// closed-key record type bound to a layout.
package rif

import (
	"fmt"
	"strings"
)

// Field identifies one column of a Schema. Fields are obtained from the schema
// that owns them; a Record only accepts fields of its own schema.
type Field int

// Column describes one column of a record layout.
type Column struct {
	Name     string
	Required bool
}

// Schema is a fixed, ordered record layout.
type Schema struct {
	name     string
	columns  []Column
	byName   map[string]Field
	required []Field
}

// NewSchema builds a Schema from columns in layout order. Duplicate names panic:
// layouts are package-level constants, so a duplicate is a programming error.
func NewSchema(name string, columns []Column) *Schema {
	s := &Schema{
		name:    name,
		columns: append([]Column(nil), columns...),
		byName:  make(map[string]Field, len(columns)),
	}
	for i, c := range s.columns {
		if _, dup := s.byName[c.Name]; dup {
			panic(fmt.Sprintf("rif: duplicate column %q in %s layout", c.Name, name))
		}
		s.byName[c.Name] = Field(i)
		if c.Required {
			s.required = append(s.required, Field(i))
		}
	}
	return s
}

// Name returns the record type name, e.g. "inpatient".
func (s *Schema) Name() string { return s.name }

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Columns returns the column names in layout order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// FieldName returns the column name of f.
func (s *Schema) FieldName(f Field) string { return s.columns[f].Name }

// Required reports whether f must be present on every written row.
func (s *Schema) Required(f Field) bool { return s.columns[f].Required }

// Lookup returns the field with the given column name.
func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// MustField is Lookup for layout declarations; it panics on unknown names.
func (s *Schema) MustField(name string) Field {
	f, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("rif: %s layout has no column %q", s.name, name))
	}
	return f
}

// NewRecord returns an empty record for this layout.
func (s *Schema) NewRecord() *Record {
	return &Record{
		schema: s,
		values: make([]string, len(s.columns)),
		set:    make([]bool, len(s.columns)),
	}
}

// Record holds string values keyed by the fields of one Schema. Unset fields are
// distinct from fields set to "".
type Record struct {
	schema *Schema
	values []string
	set    []bool
}

// Schema returns the layout the record belongs to.
func (r *Record) Schema() *Schema { return r.schema }

// Set stores v under f.
func (r *Record) Set(f Field, v string) {
	r.values[f] = v
	r.set[f] = true
}

// Get returns the value of f and whether it is set.
func (r *Record) Get(f Field) (string, bool) {
	return r.values[f], r.set[f]
}

// Value returns the value of f, or "" when unset.
func (r *Record) Value(f Field) string { return r.values[f] }

// Has reports whether f is set.
func (r *Record) Has(f Field) bool { return r.set[f] }

// Clear unsets f.
func (r *Record) Clear(f Field) {
	r.values[f] = ""
	r.set[f] = false
}

// SetByName stores v under the column called name. It is the one entry point for
// externally configured defaults whose names are only known at runtime.
func (r *Record) SetByName(name, v string) error {
	f, ok := r.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("%s layout has no column %q", r.schema.name, name)
	}
	r.Set(f, v)
	return nil
}

// Clone returns an independent copy of r.
func (r *Record) Clone() *Record {
	return &Record{
		schema: r.schema,
		values: append([]string(nil), r.values...),
		set:    append([]bool(nil), r.set...),
	}
}

// Validate returns an error naming every required field that is unset.
func (r *Record) Validate() error {
	var missing []string
	for _, f := range r.schema.required {
		if !r.set[f] {
			missing = append(missing, r.schema.FieldName(f))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s record missing required fields: %s", r.schema.name, strings.Join(missing, ", "))
	}
	return nil
}

// Values returns the values in layout order; unset fields are "".
func (r *Record) Values() []string {
	return append([]string(nil), r.values...)
}

// NullableValues returns the values in layout order with unset fields as nil.
func (r *Record) NullableValues() []*string {
	out := make([]*string, len(r.values))
	for i := range r.values {
		if r.set[i] {
			v := r.values[i]
			out[i] = &v
		}
	}
	return out
}
