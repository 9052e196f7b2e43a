package forms

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSchema_Valid(t *testing.T) {
	schema, err := ParseSchema([]byte(`{
		"title": "Signup",
		"fields": [
			{"id": "email", "type": "email", "label": "Email", "required": true},
			{"id": "plan", "type": "select", "label": "Plan", "options": ["a", "b"], "validation": {"minLength": 1}}
		]
	}`))
	require.NoError(t, err)
	require.Equal(t, "Signup", schema.Title)
	require.Equal(t, "", schema.Description)
	require.Len(t, schema.Fields, 2)
	require.True(t, schema.Fields[0].Required)
	require.Equal(t, []string{"a", "b"}, schema.Fields[1].Options)
	require.Equal(t, 1, *schema.Fields[1].Validation.MinLength)
}

func TestParseSchema_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"not object":     `[1,2]`,
		"missing title":  `{"fields": []}`,
		"missing fields": `{"title": "x"}`,
		"title number":   `{"title": 5, "fields": []}`,
		"field no label": `{"title": "x", "fields": [{"id": "a", "type": "text"}]}`,
		"unknown type":   `{"title": "x", "fields": [{"id": "a", "type": "slider", "label": "A"}]}`,
		"bad options":    `{"title": "x", "fields": [{"id": "a", "type": "select", "label": "A", "options": [1]}]}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchema([]byte(raw))
			require.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestDefaultSchema_JSON(t *testing.T) {
	data, err := json.Marshal(DefaultSchema())
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Untitled Form","description":"","fields":[]}`, string(data))
}

func TestTemplates(t *testing.T) {
	require.Equal(t, []string{"contact", "eventRegistration", "feedback", "saasOnboarding"}, TemplateNames())

	contact, ok := Template("contact")
	require.True(t, ok)
	require.Equal(t, "Contact Form", contact.Title)
	require.Len(t, contact.Fields, 3)

	contact.Fields[0].Label = "changed"
	again, _ := Template("contact")
	require.Equal(t, "Name", again.Fields[0].Label)

	_, ok = Template("missing")
	require.False(t, ok)
}

func TestTemplates_AllFieldTypesKnown(t *testing.T) {
	for _, name := range TemplateNames() {
		tmpl, _ := Template(name)
		for _, f := range tmpl.Fields {
			require.True(t, f.Type.IsKnown(), "%s.%s", name, f.ID)
		}
	}
}

func TestNewFieldID(t *testing.T) {
	a, b := NewFieldID(), NewFieldID()
	require.NotEqual(t, a, b)
	require.Regexp(t, `^[0-9a-z]+$`, a)
}

func TestTimestampSuffix(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	require.Equal(t, "-loyw3v28", timestampSuffix(at))
}

func TestHasJSON(t *testing.T) {
	require.False(t, hasJSON(nil))
	require.False(t, hasJSON(json.RawMessage(" null ")))
	require.True(t, hasJSON(json.RawMessage(`{}`)))
}

func TestStatus_IsValid(t *testing.T) {
	require.True(t, StatusDraft.IsValid())
	require.True(t, StatusPublished.IsValid())
	require.False(t, Status("ARCHIVED").IsValid())
}
