package forms

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aliuyar1234/formforge/internal/validation"
)

// AnswerError describes the first answer that failed validation.
type AnswerError struct {
	FieldID string
	Message string
}

func (e *AnswerError) Error() string {
	return e.Message
}

func answerErr(f Field, format string, args ...any) *AnswerError {
	return &AnswerError{FieldID: f.ID, Message: fmt.Sprintf("%s "+format, append([]any{labelOf(f)}, args...)...)}
}

func labelOf(f Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// isEmpty reports whether v counts as no answer.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// ValidateAnswers checks a submission against the schema's fields. Answers
// for unknown field ids are ignored. It returns an *AnswerError for the
// first failing field.
func ValidateAnswers(schema Schema, answers map[string]any) error {
	for _, f := range schema.Fields {
		v, present := answers[f.ID]

		if f.Type == FieldCheckbox {
			if err := checkCheckbox(f, v, present); err != nil {
				return err
			}
			continue
		}

		if !present || isEmpty(v) {
			if f.Required {
				return answerErr(f, "is required")
			}
			continue
		}

		var err *AnswerError
		switch f.Type {
		case FieldEmail:
			err = checkEmail(f, v)
		case FieldNumber:
			err = checkNumber(f, v)
		case FieldSelect, FieldRadio:
			err = checkChoice(f, v)
		case FieldMultiselect:
			err = checkMultiChoice(f, v)
		case FieldDate:
			err = checkDate(f, v)
		default:
			err = checkText(f, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkCheckbox(f Field, v any, present bool) *AnswerError {
	if !present || v == nil {
		if f.Required {
			return answerErr(f, "is required")
		}
		return nil
	}
	checked, ok := v.(bool)
	if !ok {
		return answerErr(f, "must be true or false")
	}
	if f.Required && !checked {
		return answerErr(f, "is required")
	}
	return nil
}

func checkText(f Field, v any) *AnswerError {
	s, ok := v.(string)
	if !ok {
		return answerErr(f, "must be text")
	}
	if f.Validation == nil {
		return nil
	}

	n := utf8.RuneCountInString(s)
	if f.Validation.MinLength != nil && n < *f.Validation.MinLength {
		return answerErr(f, "must be at least %d characters", *f.Validation.MinLength)
	}
	if f.Validation.MaxLength != nil && n > *f.Validation.MaxLength {
		return answerErr(f, "must be at most %d characters", *f.Validation.MaxLength)
	}
	if f.Validation.Pattern != "" {
		// An uncompilable pattern is treated as absent.
		if re, err := regexp.Compile(f.Validation.Pattern); err == nil && !re.MatchString(s) {
			return answerErr(f, "has an invalid format")
		}
	}
	return nil
}

func checkEmail(f Field, v any) *AnswerError {
	s, ok := v.(string)
	if !ok || validation.Validator().Var(strings.TrimSpace(s), "email") != nil {
		return answerErr(f, "must be a valid email address")
	}
	return checkText(f, s)
}

func checkNumber(f Field, v any) *AnswerError {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return answerErr(f, "must be a number")
		}
		n = parsed
	default:
		return answerErr(f, "must be a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return answerErr(f, "must be a number")
	}

	if f.Validation == nil {
		return nil
	}
	if f.Validation.Min != nil && n < *f.Validation.Min {
		return answerErr(f, "must be at least %s", formatNumber(*f.Validation.Min))
	}
	if f.Validation.Max != nil && n > *f.Validation.Max {
		return answerErr(f, "must be at most %s", formatNumber(*f.Validation.Max))
	}
	return nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func hasOption(f Field, s string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, opt := range f.Options {
		if opt == s {
			return true
		}
	}
	return false
}

func checkChoice(f Field, v any) *AnswerError {
	s, ok := v.(string)
	if !ok || !hasOption(f, s) {
		return answerErr(f, "must be one of the listed options")
	}
	return nil
}

func checkMultiChoice(f Field, v any) *AnswerError {
	items, ok := v.([]any)
	if !ok {
		return answerErr(f, "must be a list of options")
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok || !hasOption(f, s) {
			return answerErr(f, "must only contain listed options")
		}
	}
	return nil
}

func checkDate(f Field, v any) *AnswerError {
	s, ok := v.(string)
	if !ok {
		return answerErr(f, "must be a date")
	}
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return nil
	}
	return answerErr(f, "must be a date")
}
