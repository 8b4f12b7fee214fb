package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their json name so messages match the
// request body the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("query"), ",")
		}
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ReadAndValidateRequest binds the body or query into req, applies
// `default` tags and validates it. A nil result means req is usable.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return bindErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return bindErrors(err)
	}
	err := validate.StructCtx(c.Request().Context(), req)
	if err == nil {
		return nil
	}

	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return bindErrors(err)
	}
	out := make([]ValidationError, 0, len(fes))
	for _, fe := range fes {
		out = append(out, fieldError(fe))
	}
	return out
}

func bindErrors(err error) []ValidationError {
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_BIND", Message: msg}}
}

// fieldError covers the tags the request models use. Anything else falls
// back to a generic message carrying the tag name.
func fieldError(fe validator.FieldError) ValidationError {
	field, param := fe.Field(), fe.Param()
	ve := ValidationError{Code: "ERR_" + strings.ToUpper(fe.Tag()), Field: field}

	switch fe.Tag() {
	case "required":
		ve.Message = field + " is required"
	case "gt":
		ve.Message = fmt.Sprintf("%s must be greater than %s", field, param)
		ve.Params = map[string]interface{}{"value": param}
	case "gte":
		ve.Message = fmt.Sprintf("%s must be at least %s", field, param)
		ve.Params = map[string]interface{}{"min": param}
	case "lte":
		ve.Message = fmt.Sprintf("%s must be at most %s", field, param)
		ve.Params = map[string]interface{}{"max": param}
	case "max":
		// Only slices carry max today.
		ve.Message = fmt.Sprintf("%s must hold at most %s items", field, param)
		ve.Params = map[string]interface{}{"max": param}
	case "oneof":
		opts := strings.Fields(param)
		ve.Message = fmt.Sprintf("%s must be one of: %s", field, strings.Join(opts, ", "))
		ve.Params = map[string]interface{}{"options": opts}
	default:
		ve.Message = fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
	return ve
}
