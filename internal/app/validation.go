package app

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"quizmaker-service/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toValidationErrors converts validator output into domain errors.
func toValidationErrors(err error) domain.ValidationErrors {
	var out domain.ValidationErrors
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.NewValidationError("input", err.Error(), nil)
	}
	for _, fe := range fieldErrs {
		out = append(out, domain.ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Value:   fe.Value(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("validation failed for rule '%s'", fe.Tag())
	}
}

func normalizeQuestion(in domain.QuestionInput) domain.QuestionInput {
	in.Text = strings.TrimSpace(in.Text)
	in.Type = domain.QuestionType(strings.TrimSpace(string(in.Type)))
	in.Choices = trimAll(in.Choices)
	in.CorrectKey = trimAll(in.CorrectKey)
	if in.Type == domain.MultipleChoice {
		in.CorrectKey = dedupe(in.CorrectKey)
	}
	in.Tags = normalizeTags(in.Tags)
	return in
}

// validateQuestion checks struct tags first, then the type-dependent key rules.
func validateQuestion(in domain.QuestionInput) error {
	if err := validate.Struct(in); err != nil {
		return toValidationErrors(err)
	}

	var errs domain.ValidationErrors
	add := func(field, message string, value any) {
		errs = append(errs, domain.ValidationError{Field: field, Message: message, Value: value})
	}

	choices := make(map[string]struct{}, len(in.Choices))
	for _, c := range in.Choices {
		if c == "" {
			add("choices", "must not contain empty values", in.Choices)
			break
		}
		if _, dup := choices[c]; dup {
			add("choices", "must be distinct", c)
			break
		}
		choices[c] = struct{}{}
	}
	for _, k := range in.CorrectKey {
		if k == "" {
			add("correctKey", "must not contain empty values", in.CorrectKey)
			return errs
		}
	}

	switch in.Type {
	case domain.SingleChoice, domain.MultipleChoice:
		if len(in.Choices) == 0 {
			add("choices", "are required for choice questions", nil)
			break
		}
		if in.Type == domain.SingleChoice && len(in.CorrectKey) != 1 {
			add("correctKey", "must hold exactly one choice", in.CorrectKey)
			break
		}
		for _, k := range in.CorrectKey {
			if _, ok := choices[k]; !ok {
				add("correctKey", "must be drawn from choices", k)
				break
			}
		}
	case domain.FreeText:
		if len(in.Choices) > 0 {
			add("choices", "must be empty for free text questions", in.Choices)
		}
		if len(in.CorrectKey) != 1 {
			add("correctKey", "must hold exactly one value", in.CorrectKey)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func normalizeTest(in domain.TestInput) domain.TestInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = normalizeTags(in.Tags)
	return in
}

func validateTest(in domain.TestInput) error {
	if err := validate.Struct(in); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range dedupe(trimAll(tags)) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
