package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"pet-health/internal/platform/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Reportar el nombre JSON del campo, que es lo que ve el cliente.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct valida tags `validate` y traduce el primer fallo a *apperr.ValidationError.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Invalid("body", nil, err.Error())
	}

	fe := verrs[0]
	return apperr.Invalid(fe.Field(), valueOf(fe), reason(fe))
}

func valueOf(fe validator.FieldError) any {
	v := fe.Value()
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	if rv.IsZero() {
		return nil
	}
	return v
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "url":
		return "must be a valid url"
	case "dive":
		return "contains invalid values"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
