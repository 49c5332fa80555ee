package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/offer-marketplace/internal/hours"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom "notblank" validator - rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// "weekday" accepts the lowercase day keys used by business hours
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return hours.IsDay(fl.Field().String())
	})

	// "clock" accepts 24h HH:MM
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return hours.IsClock(fl.Field().String())
	})

	// "role" accepts the account roles that may sign up
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		switch model.Role(fl.Field().String()) {
		case model.RoleBusiness, model.RoleCustomer:
			return true
		}
		return false
	})

	return v
}
