package user

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "user-crud-service/internal/domain/user"
	apperrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/security"
)

// FieldValidator checks submitted user fields. It never touches storage.
type FieldValidator struct {
	validate *validator.Validate
}

// NewFieldValidator creates a FieldValidator reporting violations by lowercase field name.
func NewFieldValidator() *FieldValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.ToLower(fld.Name)
	})
	// Stored values must stay reachable through the list filter.
	_ = v.RegisterValidation("filterable", func(fl validator.FieldLevel) bool {
		return security.ValidateFilterValue(fl.Field().String()) == nil
	})
	return &FieldValidator{validate: v}
}

// Validate returns nil when in passes its validate tags, or a
// *apperrors.ValidationError listing every violated field.
func (fv *FieldValidator) Validate(in any) error {
	if err := fv.validate.Struct(in); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateID runs the identity check and returns the canonical id.
func ValidateID(id string) (string, error) {
	canonical, err := domain.ParseID(id)
	if err != nil {
		return "", apperrors.NewValidationError("invalid user id",
			apperrors.FieldViolation{Field: "id", Message: err.Error()})
	}
	return canonical, nil
}

// validateFilter checks the optional list filter values.
func validateFilter(in ListUsersRequest) error {
	var fields []apperrors.FieldViolation
	if err := security.ValidateFilterValue(in.Name); err != nil {
		fields = append(fields, apperrors.FieldViolation{Field: "name", Message: err.Error()})
	}
	if err := security.ValidateFilterValue(in.Email); err != nil {
		fields = append(fields, apperrors.FieldViolation{Field: "email", Message: err.Error()})
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("invalid list filter", fields...)
	}
	return nil
}

// formatValidationError converts validator.ValidationErrors into field violations.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError(err.Error())
	}

	fields := make([]apperrors.FieldViolation, 0, len(validationErrors))
	for _, e := range validationErrors {
		var msg string
		switch e.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", e.Field())
		case "email":
			msg = fmt.Sprintf("%s must be a valid email", e.Field())
		case "filterable":
			msg = fmt.Sprintf("%s must be at most %d characters without control characters", e.Field(), security.MaxFilterValueLength)
		default:
			msg = fmt.Sprintf("%s is invalid", e.Field())
		}
		fields = append(fields, apperrors.FieldViolation{Field: e.Field(), Message: msg})
	}
	return apperrors.NewValidationError("invalid user fields", fields...)
}
