package booking

import (
	"errors"
	"fmt"

	"rentals/internal/domain/shared/daterange"
)

// Sentinels for errors.Is matching against a *Violation.
var (
	ErrInvalidRange            = errors.New("booking: end date must be after start date")
	ErrBelowMinimumStay        = errors.New("booking: stay shorter than the minimum")
	ErrBookingConflict         = errors.New("booking: dates overlap an existing booking")
	ErrUnitUnavailableForDates = errors.New("booking: selected unit is unavailable for these dates")
)

type ViolationKind string

const (
	ViolationInvalidRange            ViolationKind = "INVALID_RANGE"
	ViolationBelowMinimumStay        ViolationKind = "BELOW_MINIMUM_STAY"
	ViolationBookingConflict         ViolationKind = "BOOKING_CONFLICT"
	ViolationUnitUnavailableForDates ViolationKind = "UNIT_UNAVAILABLE_FOR_DATES"
)

// Violation is the recoverable outcome of a rejected date selection. Range is
// the offending range: the conflicting booking for conflicts, the candidate
// otherwise.
type Violation struct {
	Kind      ViolationKind
	Range     daterange.DateRange
	BookingID BookingID
}

func NewViolation(kind ViolationKind, dr daterange.DateRange, conflicting BookingID) *Violation {
	return &Violation{Kind: kind, Range: dr, BookingID: conflicting}
}

func (v *Violation) Error() string {
	msg := v.sentinel().Error()
	if v.BookingID != "" {
		return fmt.Sprintf("%s: %s (booking %s)", msg, v.Range, v.BookingID)
	}
	return fmt.Sprintf("%s: %s", msg, v.Range)
}

func (v *Violation) Is(target error) bool {
	return target == v.sentinel()
}

func (v *Violation) sentinel() error {
	switch v.Kind {
	case ViolationBelowMinimumStay:
		return ErrBelowMinimumStay
	case ViolationBookingConflict:
		return ErrBookingConflict
	case ViolationUnitUnavailableForDates:
		return ErrUnitUnavailableForDates
	default:
		return ErrInvalidRange
	}
}

// AsViolation unwraps err into a *Violation when it carries one.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
