package service

import (
	"errors"
	"reflect"
	"strings"

	"example.com/backstage/services/picking/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("location_kind", func(fl validator.FieldLevel) bool {
		return models.LocationKind(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("product_type", func(fl validator.FieldLevel) bool {
		return models.ProductType(fl.Field().String()).Valid()
	})
}

// validateStruct checks validation tags and reports the first failing field
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
	}
	return err
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "must not be blank"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "email":
		return "must be an email address"
	case "location_kind":
		return "must be PRODUCT or PICK_LIST"
	case "product_type":
		return "must be BULK_PACK or DISPLAY_PACK"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
