package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"codementor/internal/llm"
	"codementor/internal/mentor"
	"codementor/internal/session"
	"codementor/pkg/models"
)

// failed converts a handler error into the failure response
func failed(err error) *models.AckResponse {
	var (
		vErr       *mentor.ValidationError
		fieldErrs  validator.ValidationErrors
		storageErr *session.StorageError
	)
	switch {
	case errors.As(err, &fieldErrs):
		return &models.AckResponse{Result: models.Failed(models.CodeValidation, describe(fieldErrs))}
	case errors.As(err, &vErr), errors.Is(err, session.ErrNoHintsLeft):
		return &models.AckResponse{Result: models.Failed(models.CodeValidation, err.Error())}
	case errors.As(err, &storageErr):
		return &models.AckResponse{Result: models.Failed(models.CodeStorage, "Storage is unavailable. Please try again.")}
	default:
		return &models.AckResponse{Result: models.Failed(llm.ErrorCode(err), llm.UserMessage(err))}
	}
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, len(errs))
	for i, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts[i] = fmt.Sprintf("%s is required", fe.Field())
		case "max_lines":
			parts[i] = fmt.Sprintf("%s must have at most %s lines", fe.Field(), fe.Param())
		case "min":
			parts[i] = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			parts[i] = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		case "platform":
			parts[i] = fmt.Sprintf("%s %q is not a supported platform", fe.Field(), fe.Value())
		default:
			parts[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
