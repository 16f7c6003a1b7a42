package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their koanf keys, so errors name the same
// path an operator writes in YAML or sets through APP_ variables.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return v
}

// Validate returns every violation at once. Neither the service nor the CLI
// starts with an invalid configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, formatCondition(e.Param(), "is"))
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", field, formatCondition(e.Param(), "is"))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath drops the root struct name: "Config.sync.fetch_limit"
// becomes "sync.fetch_limit".
func formatFieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}

	return strings.ToLower(namespace)
}

// formatCondition turns a validator param such as "Driver memory" into
// "driver is memory".
func formatCondition(param, verb string) string {
	field, value, ok := strings.Cut(param, " ")
	if !ok {
		return strings.ToLower(param)
	}

	return fmt.Sprintf("%s %s %s", strings.ToLower(field), verb, value)
}
