package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FieldType is the input kind of a form field
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldEmail       FieldType = "email"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldRadio       FieldType = "radio"
	FieldCheckbox    FieldType = "checkbox"
	FieldDate        FieldType = "date"
	FieldFile        FieldType = "file"
)

var knownFieldTypes = map[FieldType]bool{
	FieldText:        true,
	FieldTextarea:    true,
	FieldEmail:       true,
	FieldNumber:      true,
	FieldSelect:      true,
	FieldMultiselect: true,
	FieldRadio:       true,
	FieldCheckbox:    true,
	FieldDate:        true,
	FieldFile:        true,
}

// IsKnown reports whether t is one of the supported field types.
func (t FieldType) IsKnown() bool {
	return knownFieldTypes[t]
}

// HasOptions reports whether answers to t are drawn from Field.Options.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldMultiselect || t == FieldRadio
}

// FieldValidation holds optional per-field answer constraints
type FieldValidation struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

// Field is a single question in a form schema
type Field struct {
	ID          string           `json:"id"`
	Type        FieldType        `json:"type"`
	Label       string           `json:"label"`
	Placeholder string           `json:"placeholder,omitempty"`
	Required    bool             `json:"required,omitempty"`
	Image       string           `json:"image,omitempty"`
	Options     []string         `json:"options,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty"`
}

// Schema is the JSON document stored in forms.schema_json
type Schema struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

// DefaultSchema returns the schema given to forms created without one.
func DefaultSchema() Schema {
	return Schema{Title: "Untitled Form", Description: "", Fields: []Field{}}
}

// Field returns the field with the given id.
func (s Schema) Field(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	out := Schema{Title: s.Title, Description: s.Description, Fields: make([]Field, len(s.Fields))}
	for i, f := range s.Fields {
		if f.Options != nil {
			f.Options = append([]string(nil), f.Options...)
		}
		if f.Validation != nil {
			v := *f.Validation
			f.Validation = &v
		}
		out.Fields[i] = f
	}
	return out
}

// InvalidSchemaMessage is returned to clients for any schema that fails ParseSchema.
const InvalidSchemaMessage = "Invalid form schema format"

// ErrInvalidSchema is returned when a submitted schema is malformed
var ErrInvalidSchema = errors.New("invalid form schema")

type rawField struct {
	ID          *string          `json:"id"`
	Type        *FieldType       `json:"type"`
	Label       *string          `json:"label"`
	Placeholder *string          `json:"placeholder"`
	Required    *bool            `json:"required"`
	Image       *string          `json:"image"`
	Options     []string         `json:"options"`
	Validation  *FieldValidation `json:"validation"`
}

type rawSchema struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Fields      *[]rawField `json:"fields"`
}

// ParseSchema decodes and validates a client-supplied schema. Title, fields
// and each field's id, type and label must be present with the right JSON
// types, and every type must be a known FieldType.
func ParseSchema(data []byte) (*Schema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrInvalidSchema
	}

	var raw rawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if raw.Title == nil || raw.Fields == nil {
		return nil, fmt.Errorf("%w: title and fields are required", ErrInvalidSchema)
	}

	schema := &Schema{Title: *raw.Title, Fields: make([]Field, 0, len(*raw.Fields))}
	if raw.Description != nil {
		schema.Description = *raw.Description
	}

	for i, rf := range *raw.Fields {
		if rf.ID == nil || rf.Type == nil || rf.Label == nil {
			return nil, fmt.Errorf("%w: field %d needs id, type and label", ErrInvalidSchema, i)
		}
		if !rf.Type.IsKnown() {
			return nil, fmt.Errorf("%w: field %d has unknown type %q", ErrInvalidSchema, i, *rf.Type)
		}

		field := Field{
			ID:         *rf.ID,
			Type:       *rf.Type,
			Label:      *rf.Label,
			Options:    rf.Options,
			Validation: rf.Validation,
		}
		if rf.Placeholder != nil {
			field.Placeholder = *rf.Placeholder
		}
		if rf.Required != nil {
			field.Required = *rf.Required
		}
		if rf.Image != nil {
			field.Image = *rf.Image
		}
		schema.Fields = append(schema.Fields, field)
	}

	return schema, nil
}
