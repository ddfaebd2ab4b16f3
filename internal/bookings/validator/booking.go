package validator

import (
	"errors"
	"fmt"
	"strings"

	bookingserrors "sevabook/internal/bookings/errors"
	"sevabook/pkg/date"
	"sevabook/pkg/logger"
	"sevabook/pkg/model"

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
	leadDays int
	logger   *logger.Logger
}

// NewBookingValidator builds a validator enforcing field constraints plus the
// lead-time rule. leadDays is how many days before the pooja date a booking
// must be placed.
func NewBookingValidator(leadDays int, log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully", "lead_days", leadDays)

	return &BookingValidator{
		validate: v,
		leadDays: leadDays,
		logger:   log,
	}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	// PoojaDate carries validate:"-", check presence by hand. A missing or
	// zero date is a malformed request, not a field-rule violation.
	if booking.PoojaDate.IsZero() {
		return fmt.Errorf("%w: pooja_date is required and must be YYYY-MM-DD", bookingserrors.ErrInvalidDate)
	}

	return nil
}

// ValidateLeadTime enforces the booking window: a booking is accepted only on
// the single day exactly leadDays before the pooja date. Both earlier and
// later attempts are rejected.
func (v *BookingValidator) ValidateLeadTime(poojaDate, today date.Date) error {
	required := poojaDate.AddDays(-v.leadDays)
	if !today.Equal(required) {
		return fmt.Errorf("%w: pooja date %s may only be booked on %s, today is %s",
			bookingserrors.ErrLeadTimeMismatch, poojaDate, required, today)
	}
	return nil
}

// LeadDays exposes the configured booking window size.
func (v *BookingValidator) LeadDays() int {
	return v.leadDays
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
