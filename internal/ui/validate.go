package ui

import (
	"errors"
	"fmt"
	"strings"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string
	Message string
}

// readAndValidateRequest binds the submitted form, applies defaults and validates it.
// It returns nil when the request is usable.
func readAndValidateRequest(c echo.Context, req *edgar.Request) []FieldError {
	if err := c.Bind(req); err != nil {
		return fieldErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return fieldErrors(err)
	}
	req.Normalize()
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errs := make([]FieldError, 0, len(validationErrors))
		for _, e := range validationErrors {
			errs = append(errs, FieldError{Field: e.Field(), Message: errorMessage(e)})
		}
		return errs
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []FieldError{{Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []FieldError{{Message: err.Error()}}
}

func errorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
