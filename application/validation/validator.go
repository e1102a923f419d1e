// Package validation checks a bridge configuration before a run.
package validation

import (
	stdErrors "errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/internal/searchpath"
)

// Validator validates BridgeConfig records with go-playground/validator.
type Validator struct {
	validate *validator.Validate
	engines  []string
}

// NewValidator creates a Validator that accepts "auto" and the given engine names.
func NewValidator(engines ...string) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		engines:  append([]string{entities.EngineAuto}, engines...),
	}

	// Report fields by their config key rather than the Go field name.
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return searchpath.IsIdentifier(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("engine", func(fl validator.FieldLevel) bool {
		return slices.Contains(v.engines, fl.Field().String())
	})
	return v
}

// Validate returns nil or an *errors.ConfigError naming the first invalid field.
func (v *Validator) Validate(cfg entities.BridgeConfig) error {
	err := v.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stdErrors.As(err, &verrs) || len(verrs) == 0 {
		return &errors.ConfigError{Err: err}
	}
	fe := verrs[0]
	return &errors.ConfigError{Field: fieldPath(fe), Err: v.describe(fe)}
}

// fieldPath drops the struct name from the namespace ("BridgeConfig.log.level" -> "log.level").
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func (v *Validator) describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("value is required")
	case "identifier":
		return fmt.Errorf("%q is not an identifier", fe.Value())
	case "engine":
		return fmt.Errorf("unknown engine %q (available: %s)", fe.Value(), strings.Join(v.engines, ", "))
	case "oneof":
		return fmt.Errorf("%q is not one of: %s", fe.Value(), fe.Param())
	case "gt", "gte":
		return fmt.Errorf("%v must be %s %s", fe.Value(), map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	default:
		return fmt.Errorf("failed %q check", fe.Tag())
	}
}
