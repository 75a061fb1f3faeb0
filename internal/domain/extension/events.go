package extension

import (
	"time"

	"rentals/internal/domain/booking"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

type ExtensionSubmitted struct {
	OriginalBookingID booking.BookingID
	UnitID            booking.UnitID
	UnitKey           booking.UnitKey
	Range             daterange.DateRange
	FinalAmount       money.Money
	At                time.Time
}

func (e ExtensionSubmitted) EventName() string     { return "extension.submitted" }
func (e ExtensionSubmitted) AggregateID() string   { return string(e.OriginalBookingID) }
func (e ExtensionSubmitted) OccurredAt() time.Time { return e.At }
