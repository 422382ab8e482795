package validator

import (
	"errors"
	"fmt"
	"strings"

	"campus/pkg/logger"
	"campus/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	custom := map[string]validator.Func{
		"hhmm":           validateClock,
		"isodate":        validateDate,
		"booking_status": validateStatus,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register validator",
				"tag", tag,
				"error", err,
			)
		}
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := model.ParseClock(fl.Field().String())
	return err == nil
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

func validateStatus(fl validator.FieldLevel) bool {
	return model.BookingStatus(fl.Field().String()).Valid()
}

// Validate checks a create request. Besides field formats it requires a user
// reference and a start strictly before the end.
func (v *BookingValidator) Validate(req *model.CreateBookingRequest) error {
	var errs ValidationErrors

	if strings.TrimSpace(req.User.ID) == "" {
		errs = append(errs, ValidationError{Field: "User", Message: "User is required"})
	}

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		errs = append(errs, v.translateValidationErrors(validationErrs)...)
	}

	if len(errs) > 0 {
		return errs
	}

	interval, err := model.ParseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return ValidationErrors{{Field: "StartTime", Message: err.Error()}}
	}
	if interval.Start >= interval.End {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "endTime must be after startTime",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateStatus(req *model.UpdateStatusRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "hhmm":
			message = fmt.Sprintf("%s must be a 24-hour time in HH:MM format", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "booking_status":
			message = fmt.Sprintf("%s must be one of: Pending, Accepted, Declined", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
