package booking

import (
	"errors"
	"time"

	"rentals/internal/domain/shared/daterange"
)

var ErrCheckInInPast = errors.New("booking: check-in date is in the past")

// ValidateRequest rejects candidate ranges the calendar must never see.
func ValidateRequest(dr daterange.DateRange, now time.Time) error {
	if err := dr.Validate(); err != nil {
		return NewViolation(ViolationInvalidRange, dr, "")
	}
	if dr.CheckIn.Before(daterange.Day(now)) {
		return ErrCheckInInPast
	}
	return nil
}

// RequestedRange normalises a client supplied check-in and check-out to
// calendar days and validates them against now.
func RequestedRange(checkIn, checkOut, now time.Time) (daterange.DateRange, error) {
	dr := daterange.DateRange{CheckIn: daterange.Day(checkIn), CheckOut: daterange.Day(checkOut)}
	if err := ValidateRequest(dr, now); err != nil {
		return daterange.DateRange{}, err
	}
	return dr, nil
}
