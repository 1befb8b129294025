package foodgram

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jon4hz/foodgram/internal/database"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// getValidator returns the shared validator. Field names in errors are the json names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
			return database.MeasurementUnit(fl.Field().String()).Valid()
		})
	})
	return validate
}

// validateStruct runs the struct tags of s and converts failures into a ValidationError.
func validateStruct(s any) *ValidationError {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newValidationError(NonFieldErrors, err.Error())
	}

	v := &ValidationError{}
	for _, fe := range fieldErrs {
		v.Add(fieldPath(fe), fieldMessage(fe))
	}
	return v
}

// fieldPath drops the struct name from the namespace: "recipeFields.ingredients[0].amount" -> "ingredients[0].amount".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if isCollection {
			return fmt.Sprintf("Ensure this field has no more than %s elements.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		if isCollection {
			return fmt.Sprintf("Ensure this field has at least %s elements.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "unique":
		return "Duplicate items are not allowed."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "username":
		return "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters."
	case "hexcolor", "len":
		return "Enter a color in #RRGGBB format."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "unit":
		return "Unknown measurement unit."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
