package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/signalboard/signalboard-backend/errs"
	"github.com/signalboard/signalboard-backend/models"
)

// payloadValidator wraps go-playground/validator for request payloads.
type payloadValidator struct {
	validator *validator.Validate
}

func newPayloadValidator() *payloadValidator {
	v := validator.New()
	// wallet matches the registry's loose address syntax, not strict hex
	_ = v.RegisterValidation("wallet", func(fl validator.FieldLevel) bool {
		return models.IsAddress(fl.Field().String())
	})
	return &payloadValidator{validator: v}
}

// Validate checks a struct against its validate tags and surfaces the first
// field failure as a client error.
func (v *payloadValidator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if ok && len(validationErrors) > 0 {
		fe := validationErrors[0]
		switch fe.Tag() {
		case "required":
			return errs.NewMissingRequiredFieldError(fe.Field())
		case "wallet":
			return errs.NewInvalidFieldError(fe.Field(), "not a valid address")
		default:
			return errs.NewInvalidFieldError(fe.Field(), fmt.Sprintf("failed on '%s' validation", fe.Tag()))
		}
	}
	return errs.NewBadRequestError(err.Error())
}
