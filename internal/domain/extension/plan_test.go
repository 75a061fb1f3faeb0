package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals/internal/domain/availability"
	"rentals/internal/domain/booking"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stay(id string, key booking.UnitKey, in, out time.Time) booking.Booking {
	return booking.Booking{ID: booking.BookingID(id), UnitID: "villa-7", Kind: booking.KindProperty, UnitKey: key, Range: daterange.Must(in, out)}
}

func fixture() (booking.Booking, []booking.Booking) {
	original := stay("orig", booking.StandardUnit, date(2024, 6, 5), date(2024, 6, 10))
	return original, []booking.Booking{
		original,
		stay("next", booking.StandardUnit, date(2024, 6, 12), date(2024, 6, 15)),
		stay("deluxe", "deluxe", date(2024, 6, 10), date(2024, 6, 11)),
	}
}

func TestNewPlanPinsAnchor(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)
	assert.Equal(t, StateAnchorFixed, p.State())
	assert.Equal(t, date(2024, 6, 10), p.Anchor())
	assert.Equal(t, booking.StandardUnit, p.UnitKey())

	earliest, ok := p.EarliestEnd()
	require.True(t, ok)
	assert.Equal(t, date(2024, 6, 11), earliest)

	latest, ok := p.LatestEnd()
	require.True(t, ok)
	assert.Equal(t, date(2024, 6, 12), latest)
}

func TestNewPlanRejectsCancelledOriginal(t *testing.T) {
	original, bookings := fixture()
	original.State = booking.StateCancelled
	_, err := NewPlan(original, bookings)
	require.ErrorIs(t, err, ErrOriginalCancelled)
}

func TestChooseEndTouchingNextBookingIsNotAConflict(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)

	require.NoError(t, p.ChooseEnd(date(2024, 6, 12)))
	assert.Equal(t, StateValidated, p.State())
	assert.Equal(t, "[2024-06-10, 2024-06-12)", p.Range().String())
}

func TestChooseEndViolations(t *testing.T) {
	original, bookings := fixture()

	tests := []struct {
		name string
		end  time.Time
		opts []Option
		want error
		rng  string
	}{
		{"end on anchor", date(2024, 6, 10), nil, booking.ErrInvalidRange, "[2024-06-10, 2024-06-10)"},
		{"end before anchor", date(2024, 6, 8), nil, booking.ErrInvalidRange, "[2024-06-10, 2024-06-08)"},
		{"below minimum", date(2024, 6, 11), []Option{WithMinimumUnits(2)}, booking.ErrBelowMinimumStay, "[2024-06-10, 2024-06-11)"},
		{"overlaps next booking", date(2024, 6, 13), nil, booking.ErrBookingConflict, "[2024-06-12, 2024-06-15)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlan(original, bookings, tt.opts...)
			require.NoError(t, err)

			err = p.ChooseEnd(tt.end)
			require.ErrorIs(t, err, tt.want)
			v, ok := booking.AsViolation(err)
			require.True(t, ok)
			assert.Equal(t, tt.rng, v.Range.String())
			assert.Equal(t, StateAwaitingNewEnd, p.State())
		})
	}
}

func TestFailedChooseEndDropsPreviousEnd(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)

	require.NoError(t, p.ChooseEnd(date(2024, 6, 12)))
	_, err = p.Quote(money.Must(3000, "KES"), 0)
	require.NoError(t, err)

	require.ErrorIs(t, p.ChooseEnd(date(2024, 6, 13)), booking.ErrBookingConflict)
	assert.Equal(t, StateAwaitingNewEnd, p.State())
	assert.True(t, p.NewEnd().IsZero())
	assert.True(t, p.Range().CheckOut.IsZero())
	assert.Zero(t, p.RateQuote().Units)

	_, err = p.Quote(money.Must(3000, "KES"), 0)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConflictNamesOffendingBooking(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)

	v, ok := booking.AsViolation(p.ChooseEnd(date(2024, 6, 20)))
	require.True(t, ok)
	assert.Equal(t, booking.BookingID("next"), v.BookingID)
}

func TestSwitchUnit(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)
	require.NoError(t, p.ChooseEnd(date(2024, 6, 12)))

	err = p.SwitchUnit("deluxe")
	require.ErrorIs(t, err, booking.ErrUnitUnavailableForDates)
	assert.Equal(t, booking.StandardUnit, p.UnitKey())
	assert.Equal(t, StateValidated, p.State())

	require.NoError(t, p.SwitchUnit("family"))
	assert.Equal(t, booking.UnitKey("family"), p.UnitKey())

	// no end chosen yet: the switch is free.
	q, err := NewPlan(original, bookings)
	require.NoError(t, err)
	require.NoError(t, q.SwitchUnit("deluxe"))
	require.ErrorIs(t, q.ChooseEnd(date(2024, 6, 11)), booking.ErrBookingConflict)
}

func TestSwitchUnitRequotes(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)
	require.NoError(t, p.ChooseEnd(date(2024, 6, 12)))
	_, err = p.Quote(money.Must(3000, "KES"), 0)
	require.NoError(t, err)

	require.NoError(t, p.SwitchUnit("family"))
	assert.Equal(t, StateValidated, p.State())
	_, err = p.Submit(date(2024, 6, 9))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSwitchUnitOnCar(t *testing.T) {
	car := booking.Booking{ID: "c-1", UnitID: "car-1", Kind: booking.KindCar, Range: daterange.Must(date(2024, 6, 5), date(2024, 6, 10))}
	p, err := NewPlan(car, []booking.Booking{car})
	require.NoError(t, err)
	require.ErrorIs(t, p.SwitchUnit("suv"), booking.ErrCarVariation)
}

func TestFullFlowSubmits(t *testing.T) {
	original, bookings := fixture()
	var seen []State
	p, err := NewPlan(original, bookings, WithOnChange(func(s State) { seen = append(seen, s) }))
	require.NoError(t, err)

	require.NoError(t, p.ChooseEnd(date(2024, 6, 12)))
	d, err := p.Quote(money.Must(3000, "KES"), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5400), d.FinalAmount.Amount)

	sub, err := p.Submit(date(2024, 6, 9))
	require.NoError(t, err)
	assert.Equal(t, booking.BookingID("orig"), sub.OriginalBookingID)
	assert.Equal(t, date(2024, 6, 10), sub.AnchorDate)
	assert.Equal(t, date(2024, 6, 12), sub.NewEnd)
	assert.Equal(t, int64(5400), sub.FinalAmount().Amount)

	assert.Equal(t, []State{StateAwaitingNewEnd, StateValidated, StateQuoted, StateSubmitted}, seen)

	evs := p.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "extension.submitted", evs[0].EventName())
	assert.Equal(t, "orig", evs[0].AggregateID())

	require.ErrorIs(t, p.Reject("late"), ErrInvalidTransition)
	require.ErrorIs(t, p.ChooseEnd(date(2024, 6, 11)), ErrInvalidTransition)
}

func TestQuoteRequiresValidatedRange(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)
	_, err = p.Quote(money.Must(3000, "KES"), 0)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReject(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings)
	require.NoError(t, err)
	require.NoError(t, p.Reject("guest changed mind"))
	assert.Equal(t, StateRejected, p.State())
	assert.Equal(t, "guest changed mind", p.RejectionReason())
}

func TestLegacyCalendarOption(t *testing.T) {
	original, bookings := fixture()
	p, err := NewPlan(original, bookings, WithCalendar(availability.Calendar{Boundary: availability.InclusiveEnd}))
	require.NoError(t, err)
	require.NoError(t, p.ChooseEnd(date(2024, 6, 12)))
}
