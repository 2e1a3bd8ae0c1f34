package webapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcbun/pkg/rerr"
)

// Validator plugs validator/v10 into echo. Failures carry SysInvalidInputParam
// so they reach the caller as a 400 with a status.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return rerr.New(rerr.SysInvalidInputParam, "%s failed on the '%s' tag", e.Namespace(), e.Tag())
	}

	return rerr.New(rerr.SysInvalidInputParam, "%s", err)
}

// bind decodes the body into req and validates it.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return rerr.New(rerr.SysInvalidInputParam, "bad request body: %s", err)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	return nil
}
