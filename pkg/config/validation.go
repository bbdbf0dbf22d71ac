package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their mapstructure key so errors name the
// environment variable to fix.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("mapstructure"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})
	return v
}

// fieldErrors turns validator errors for one section into a single error
// naming each FORENSICS_<SECTION>_<KEY> variable.
func fieldErrors(section string, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		key := strings.ToUpper("FORENSICS_" + section + "_" + e.Field())
		msgs = append(msgs, key+" "+formatValidationError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	default:
		return "is invalid"
	}
}
