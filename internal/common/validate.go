package common

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs go-playground validation tags over a request payload
// and converts failures into a VALIDATION_ERROR AppError listing the
// offending fields.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
		}
	}
	appErr := ValidationError("invalid payload", err)
	if len(fields) > 0 {
		appErr.Details = fields
	}
	return appErr
}
