package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg and reports every problem at once. Missing required
// values are named by their environment variable.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	result := &ValidationError{}
	for _, fe := range verrs {
		field := fieldPath(fe)
		switch fe.Tag() {
		case "required":
			result.Errors = append(result.Errors, NewMissingFieldError(field, EnvName(field)))
		case "oneof":
			result.Errors = append(result.Errors, NewInvalidFieldError(field,
				fmt.Sprintf("invalid value %v", fe.Value()), strings.Fields(fe.Param())))
		default:
			result.Errors = append(result.Errors, NewInvalidFieldError(field,
				fmt.Sprintf("failed %s%s check (value %v)", fe.Tag(), paramSuffix(fe.Param()), fe.Value()), nil))
		}
	}
	return result
}

// fieldPath turns "Config.clickup.listid" into "clickup.listid".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func paramSuffix(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}
