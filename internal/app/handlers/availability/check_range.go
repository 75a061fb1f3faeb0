package availability

import (
	"context"
	"time"

	"rentals/internal/app/dto"
	"rentals/internal/app/queries"
	"rentals/internal/app/uow"
	domainavailability "rentals/internal/domain/availability"
	domainbooking "rentals/internal/domain/booking"
)

const checkRangeKey = "availability.check"

type CheckRangeQuery struct {
	UnitID   string
	UnitKey  string
	CheckIn  time.Time
	CheckOut time.Time
	// ExcludeBookingID skips one booking, for re-checking the dates of an existing stay.
	ExcludeBookingID string
}

func (q CheckRangeQuery) Key() string { return checkRangeKey }

type CheckRangeHandler struct {
	UoWFactory uow.UoWFactory
	Calendar   domainavailability.Calendar
	Clock      func() time.Time
}

// Handle answers with Available=false and the conflicting range when the
// dates are taken. An invalid range is returned as a *booking.Violation.
func (h *CheckRangeHandler) Handle(ctx context.Context, q CheckRangeQuery) (dto.Availability, error) {
	dr, err := domainbooking.RequestedRange(q.CheckIn, q.CheckOut, h.now())
	if err != nil {
		return dto.Availability{}, err
	}
	unit, ctx, release, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Availability{}, err
	}
	if release != nil {
		defer release()
	}

	bookings, err := unit.Bookings().ListByUnit(ctx, domainbooking.UnitID(q.UnitID))
	if err != nil {
		return dto.Availability{}, err
	}
	key := domainbooking.UnitKey(q.UnitKey)
	var exclude []domainbooking.BookingID
	if q.ExcludeBookingID != "" {
		exclude = append(exclude, domainbooking.BookingID(q.ExcludeBookingID))
	}

	out := dto.Availability{
		UnitID:    q.UnitID,
		UnitKey:   q.UnitKey,
		CheckIn:   dr.CheckIn.Format(time.DateOnly),
		CheckOut:  dr.CheckOut.Format(time.DateOnly),
		Available: true,
	}
	if conflict, found := h.Calendar.FindConflict(dr.CheckIn, dr.CheckOut, bookings, key, exclude...); found {
		out.Available = false
		out.Conflict = &dto.DateRange{CheckIn: conflict.Range.CheckIn, CheckOut: conflict.Range.CheckOut}
		out.ConflictID = string(conflict.ID)
	}
	if earliest, ok := h.Calendar.EarliestAvailableCheckout(dr.CheckIn, bookings, key, exclude...); ok {
		out.EarliestCheckout = earliest.Format(time.DateOnly)
	}
	if latest, ok := h.Calendar.LatestAvailableCheckout(dr.CheckIn, bookings, key, exclude...); ok {
		out.LatestCheckout = latest.Format(time.DateOnly)
	}
	return out, nil
}

func (h *CheckRangeHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

var _ queries.Handler[CheckRangeQuery, dto.Availability] = (*CheckRangeHandler)(nil)
