package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var validationErr = errors.New("invalid configuration")

// Validate checks v against its `validate` tags. Failures are reported as an
// *errs.ValidateError whose Fields mirror v's structure, keyed by yaml name.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	validateErr := errs.NewValidateError(validationErr)
	t := reflect.ValueOf(v).Type()
	for _, e := range validationErrors {
		fields := strings.Split(e.StructNamespace(), ".")
		node := validateErr.Fields
		parentT := t
		for i := 1; i < len(fields); i++ {
			f, ok := getField(parentT, fields[i])
			if !ok {
				continue
			}

			name := fieldName(f)
			if i < len(fields)-1 {
				if node[name] == nil {
					node[name] = make(map[string]interface{})
				}
				node = node[name].(map[string]interface{})
			} else {
				node[name] = formatError(e)
			}
			parentT = f.Type
		}
	}
	return validateErr
}

func formatError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field missing"
	case "oneof":
		return fmt.Sprintf("invalid value: %v", fe.Value())
	case "gt":
		return fmt.Sprintf("value must be > %s", fe.Param())
	case "gte":
		return fmt.Sprintf("value must be >= %s", fe.Param())
	case "lt":
		return fmt.Sprintf("value must be < %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be <= %s", fe.Param())
	case "min":
		return fmt.Sprintf("length must be at least %s", fe.Param())
	case "hostname_port":
		return fmt.Sprintf("invalid address: %v", fe.Value())
	}
	return fe.Error()
}

func fieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
	if name == "" || name == "-" {
		name = field.Name
	}
	return name
}

func getField(t reflect.Type, field string) (reflect.StructField, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.FieldByName(field)
}
