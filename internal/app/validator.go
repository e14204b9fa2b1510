package app

import (
	"github.com/go-playground/validator/v10"
)

// requestValidator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate() on bound request DTOs.
type requestValidator struct {
	validate *validator.Validate
}

func newValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
