package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/minicrm/lead-api/internal/core/domain"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator with the lead-specific tags registered:
// lead_email, lead_source and lead_status.
func NewValidator() *echoValidator {
	v := validator.New()

	// Report JSON field names so errors line up with the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("lead_email", func(fl validator.FieldLevel) bool {
		return domain.ValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("lead_source", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseLeadSource(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseLeadStatus(fl.Field().String())
		return ok
	})

	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures come back as a
// *domain.ValidationError so the error handler can render them per field.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := &domain.ValidationError{}
			for _, fe := range verrs {
				out.Add(fe.Field(), fieldError(fe))
			}
			return out
		}
		return err
	}
	return nil
}

// fieldError converts a single validator.FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "Please provide a " + field
	case "lead_email", "email":
		return "Please provide a valid email"
	case "lead_source":
		return "Invalid source"
	case "lead_status":
		return "Invalid status"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
