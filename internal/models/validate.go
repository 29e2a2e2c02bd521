package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names so errors match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// validateStruct runs tag validation and reports the first failure.
func validateStruct(prefix string, s any) error {
	return fromValidator(prefix, validate.Struct(s))
}

// validateVar runs tag validation on a single value reported as field.
func validateVar(field string, value any, tag string) error {
	return fromValidator(field, validate.Var(value, tag))
}

func fromValidator(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return invalidField(prefix, "%v", err)
	}

	fe := errs[0]
	// Namespace starts with the root struct name ("CreateHabitRequest.unit.unitKey").
	field := fe.Namespace()
	if i := strings.IndexAny(field, ".["); i >= 0 && field[i] == '.' {
		field = field[i+1:]
	} else if i >= 0 {
		field = field[i:]
	} else {
		field = ""
	}
	return invalidField(joinPath(prefix, field), "%s", describeRule(fe))
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "nonblank":
		return "must not be blank"
	case "uuid":
		return "must be a UUID"
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "unique":
		return "must not contain duplicates"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
