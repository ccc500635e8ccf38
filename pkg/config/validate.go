package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/layout"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("layout", func(fl validator.FieldLevel) bool {
			return layout.Known(fl.Field().String())
		})
	})
	return validate
}

// Validate checks the configuration and reports every failing field in one
// INVALID_CONFIG error.
func (c *Config) Validate() error {
	c.View.Layout = strings.ToLower(strings.TrimSpace(c.View.Layout))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))

	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "layout":
		return fmt.Sprintf("%s: unknown layout %q (known: %s)", field, fe.Value(), strings.Join(layout.Names(), ", "))
	case "hexcolor":
		return fmt.Sprintf("%s: %q is not a hex color", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
