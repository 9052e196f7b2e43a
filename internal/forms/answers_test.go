package forms

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func testSchema() Schema {
	return Schema{
		Title: "Test",
		Fields: []Field{
			{ID: "name", Type: FieldText, Label: "Name", Required: true, Validation: &FieldValidation{MinLength: ptrI(2), MaxLength: ptrI(5)}},
			{ID: "email", Type: FieldEmail, Label: "Email"},
			{ID: "age", Type: FieldNumber, Label: "Age", Validation: &FieldValidation{Min: ptrF(18), Max: ptrF(99)}},
			{ID: "plan", Type: FieldSelect, Label: "Plan", Options: []string{"free", "pro"}},
			{ID: "tags", Type: FieldMultiselect, Label: "Tags", Options: []string{"a", "b"}},
			{ID: "zip", Type: FieldText, Label: "Zip", Validation: &FieldValidation{Pattern: `^\d{5}$`}},
			{ID: "when", Type: FieldDate, Label: "When"},
			{ID: "terms", Type: FieldCheckbox, Label: "Terms", Required: true},
		},
	}
}

func TestValidateAnswers_Valid(t *testing.T) {
	err := ValidateAnswers(testSchema(), map[string]any{
		"name":  "Ann",
		"email": "ann@example.com",
		"age":   float64(30),
		"plan":  "pro",
		"tags":  []any{"a", "b"},
		"zip":   "12345",
		"when":  "2024-05-01",
		"terms": true,
		"extra": "ignored",
	})
	require.NoError(t, err)
}

func TestValidateAnswers_OptionalFieldsMayBeEmpty(t *testing.T) {
	err := ValidateAnswers(testSchema(), map[string]any{
		"name":  "Ann",
		"email": "",
		"tags":  []any{},
		"terms": true,
	})
	require.NoError(t, err)
}

func TestValidateAnswers_Failures(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{"name": "Ann", "terms": true}
	}

	cases := []struct {
		name    string
		mutate  func(map[string]any)
		fieldID string
		message string
	}{
		{"required missing", func(a map[string]any) { delete(a, "name") }, "name", "Name is required"},
		{"required blank", func(a map[string]any) { a["name"] = "  " }, "name", "Name is required"},
		{"too short", func(a map[string]any) { a["name"] = "A" }, "name", "Name must be at least 2 characters"},
		{"too long", func(a map[string]any) { a["name"] = "Annabel" }, "name", "Name must be at most 5 characters"},
		{"bad email", func(a map[string]any) { a["email"] = "nope" }, "email", "Email must be a valid email address"},
		{"number type", func(a map[string]any) { a["age"] = true }, "age", "Age must be a number"},
		{"number NaN", func(a map[string]any) { a["age"] = "NaN" }, "age", "Age must be a number"},
		{"number Inf", func(a map[string]any) { a["age"] = "Inf" }, "age", "Age must be a number"},
		{"number -Infinity", func(a map[string]any) { a["age"] = "-Infinity" }, "age", "Age must be a number"},
		{"number low", func(a map[string]any) { a["age"] = "17" }, "age", "Age must be at least 18"},
		{"number high", func(a map[string]any) { a["age"] = float64(100.5) }, "age", "Age must be at most 99"},
		{"bad option", func(a map[string]any) { a["plan"] = "enterprise" }, "plan", "Plan must be one of the listed options"},
		{"bad multi", func(a map[string]any) { a["tags"] = []any{"a", "z"} }, "tags", "Tags must only contain listed options"},
		{"pattern", func(a map[string]any) { a["zip"] = "1234" }, "zip", "Zip has an invalid format"},
		{"date", func(a map[string]any) { a["when"] = "tomorrow" }, "when", "When must be a date"},
		{"checkbox unchecked", func(a map[string]any) { a["terms"] = false }, "terms", "Terms is required"},
		{"checkbox type", func(a map[string]any) { a["terms"] = "yes" }, "terms", "Terms must be true or false"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answers := base()
			tc.mutate(answers)

			err := ValidateAnswers(testSchema(), answers)
			var ae *AnswerError
			require.ErrorAs(t, err, &ae)
			require.Equal(t, tc.fieldID, ae.FieldID)
			require.Equal(t, tc.message, ae.Message)
		})
	}
}

func TestValidateAnswers_BadPatternIgnored(t *testing.T) {
	schema := Schema{Fields: []Field{{ID: "x", Type: FieldText, Label: "X", Validation: &FieldValidation{Pattern: "("}}}}
	require.NoError(t, ValidateAnswers(schema, map[string]any{"x": "anything"}))
}
