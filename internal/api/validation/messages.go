package validation

import (
	"strconv"

	"github.com/go-playground/validator/v10"

	"codementor/internal/mentor"
	"codementor/pkg/models"
)

// ValidatePlatform accepts only the supported platform ids
func ValidatePlatform(fl validator.FieldLevel) bool {
	return models.Platform(fl.Field().String()).IsKnown()
}

// ValidateMaxLines bounds the number of lines in a code snippet, e.g. max_lines=30
func ValidateMaxLines(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(mentor.SplitLines(fl.Field().String())) <= limit
}

// RegisterMessageValidators registers the custom validators used by message payloads
func RegisterMessageValidators(v *validator.Validate) {
	v.RegisterValidation("platform", ValidatePlatform)
	v.RegisterValidation("max_lines", ValidateMaxLines)
}
