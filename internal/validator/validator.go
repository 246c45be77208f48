package validator

import (
	"fmt"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("isodatetime", validateISODateTime)
	validator.RegisterValidation("isodate", validateISODate)

	return validator
}

func validateISODateTime(fl validator.FieldLevel) bool {
	_, err := domain.ParseTime(fl.Field().String())
	return err == nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "isodatetime":
		return "must be a valid ISO 8601 datetime"
	case "isodate":
		return "must be a valid ISO 8601 date"
	case "dive":
		return "contains an invalid element"
	default:
		return "is invalid"
	}
}
