package validator

import (
	"time"

	"care-booking-marketplace/internal/scheduling"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// HH:MM wall-clock time, 24:00 allowed as an end of day
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := scheduling.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})

	// YYYY-MM-DD calendar date
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param()
			case "max":
				errors[field] = field + " must be at most " + e.Param()
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			case "hhmm":
				errors[field] = field + " must be a time in HH:MM format"
			case "date":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "latitude", "longitude":
				errors[field] = field + " must be a valid " + e.Tag()
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
