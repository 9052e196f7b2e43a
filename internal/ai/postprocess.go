package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/aliuyar1234/formforge/internal/forms"
)

// ErrParse is returned when the model output is not a JSON object
var ErrParse = errors.New("Failed to parse AI response as JSON")

const (
	defaultTitle      = "Untitled Form"
	defaultFieldLabel = "Untitled Field"
)

var (
	jsonFence  = regexp.MustCompile("```json\n?")
	plainFence = regexp.MustCompile("```\n?")
)

// StripFences trims s and removes Markdown code fences around it.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = plainFence.ReplaceAllString(jsonFence.ReplaceAllString(s, ""), "")
	case strings.HasPrefix(s, "```"):
		s = plainFence.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// normalizeOptions controls how model output is turned into a schema.
type normalizeOptions struct {
	// fallback supplies title and description when the model omits them.
	fallback *forms.Schema
	// keepImage carries field images through.
	keepImage bool
}

func stringOf(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// normalize parses model output into a schema, filling defaults for
// anything missing. Unknown field types become text.
func normalize(content string, opts normalizeOptions) (*forms.Schema, error) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(StripFences(content)), &parsed); err != nil {
		return nil, ErrParse
	}

	schema := &forms.Schema{Fields: []forms.Field{}}

	schema.Title = stringOf(parsed, "title")
	if schema.Title == "" && opts.fallback != nil {
		schema.Title = opts.fallback.Title
	}
	if schema.Title == "" {
		schema.Title = defaultTitle
	}

	if desc, ok := parsed["description"].(string); ok {
		schema.Description = desc
	} else if opts.fallback != nil {
		schema.Description = opts.fallback.Description
	}

	rawFields, _ := parsed["fields"].([]any)
	for _, rf := range rawFields {
		m, ok := rf.(map[string]any)
		if !ok {
			continue
		}

		field := forms.Field{
			ID:          stringOf(m, "id"),
			Type:        forms.FieldType(stringOf(m, "type")),
			Label:       stringOf(m, "label"),
			Placeholder: stringOf(m, "placeholder"),
		}
		if field.ID == "" {
			field.ID = forms.NewFieldID()
		}
		if !field.Type.IsKnown() {
			field.Type = forms.FieldText
		}
		if field.Label == "" {
			field.Label = defaultFieldLabel
		}
		if required, ok := m["required"].(bool); ok {
			field.Required = required
		}
		if rawOptions, ok := m["options"].([]any); ok {
			for _, o := range rawOptions {
				if s, ok := o.(string); ok {
					field.Options = append(field.Options, s)
				}
			}
		}
		if opts.keepImage {
			field.Image = stringOf(m, "image")
		}

		schema.Fields = append(schema.Fields, field)
	}

	return schema, nil
}
