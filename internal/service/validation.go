package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"mobile-pos/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// collectFieldIssues runs struct tag validation and appends one readable
// issue per failing field.
func collectFieldIssues(issues *domain.ValidationError, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		issues.Add("%v", err)
		return
	}

	for _, fe := range fieldErrs {
		issues.Add("%s", describeFieldError(fe))
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// storeErr passes taxonomy errors through and wraps anything else as a
// persistence failure.
func storeErr(op string, err error) error {
	return domain.Persistence(op, err)
}
