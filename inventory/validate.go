package inventory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// newValidator registers "notblank" (rejects whitespace-only strings) and
// reports fields by their `label` tag when one is set.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// checkStruct runs the struct tags and turns the first violation into a ValidationError.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := fieldErrs[0]
	field := lowerFirst(fe.StructField())
	switch fe.Tag() {
	case "required", "notblank":
		return invalid(field, fe.Field()+" is required")
	case "email":
		return invalid(field, fe.Field()+" should be valid")
	default:
		return invalid(field, fe.Field()+" is invalid")
	}
}

func checkPositive(field, label string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return invalid(field, label+" must be greater than 0")
	}
	return nil
}

func checkNonNegative(field, label string, v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid(field, label+" must be positive or zero")
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
