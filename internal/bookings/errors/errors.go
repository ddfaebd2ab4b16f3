package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDateTaken = errors.New("pooja date already booked")

	ErrInvalidDate = errors.New("invalid pooja date")

	ErrLeadTimeMismatch = errors.New("booking date does not match the required lead time")
)
