package services

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// FieldErrors maps lowercased field names to messages suitable for inline
// rendering. Returns nil when the struct is valid.
type FieldErrors map[string][]string

// ValidateStruct runs validator tags and collects violations per field
// instead of returning the first one.
func ValidateStruct(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"root": {err.Error()}}
	}

	out := make(FieldErrors)
	for _, fe := range verrs {
		field := toSnake(fe.Field())
		out[field] = append(out[field], messageFor(fe))
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "username_chars":
		return "Only letters, numbers, and underscores"
	default:
		return "Invalid value"
	}
}

func toSnake(field string) string {
	out := make([]rune, 0, len(field))
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
