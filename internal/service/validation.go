package service

import (
	"errors"
	"fmt"
	"strings"

	"rupl/internal/models"

	"github.com/go-playground/validator/v10"
)

// validate is the validator instance for service inputs.
// Initialized in init() with custom validators.
var validate *validator.Validate

func init() {
	validate = validator.New()
	// notblank rejects strings that are empty after trimming whitespace
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("istrue", func(fl validator.FieldLevel) bool {
		return fl.Field().Bool()
	})
}

// validateInput runs struct validation and converts the first failure into
// a ValidationError with a readable message.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	return models.NewValidationError(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "istrue":
		return fmt.Sprintf("%s must be accepted", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
