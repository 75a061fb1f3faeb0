package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewBookingRecordsRequest(t *testing.T) {
	now := date(2024, 6, 1)
	b, err := NewBooking(CreateParams{
		ID:        "b-1",
		UnitID:    "villa-7",
		UnitKey:   "deluxe",
		Range:     daterange.Must(date(2024, 6, 5), date(2024, 6, 8)),
		Total:     money.Must(9000, "KES"),
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, KindProperty, b.Kind)
	assert.Equal(t, StateRequested, b.State)
	assert.True(t, b.Occupies())

	evs := b.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "booking.requested", evs[0].EventName())
	assert.Equal(t, "b-1", evs[0].AggregateID())
}

func TestNewBookingRejectsCarVariation(t *testing.T) {
	_, err := NewBooking(CreateParams{
		ID:      "b-2",
		UnitID:  "car-1",
		Kind:    KindCar,
		UnitKey: "suv",
		Range:   daterange.Must(date(2024, 6, 5), date(2024, 6, 8)),
	})
	require.ErrorIs(t, err, ErrCarVariation)
}

func TestCancelledBookingFreesDates(t *testing.T) {
	b, err := NewBooking(CreateParams{ID: "b-3", UnitID: "car-1", Kind: KindCar, Range: daterange.Must(date(2024, 6, 5), date(2024, 6, 8))})
	require.NoError(t, err)
	require.NoError(t, b.Cancel("guest request", date(2024, 6, 2)))
	assert.False(t, b.Occupies())
	assert.ErrorIs(t, b.Cancel("again", date(2024, 6, 2)), ErrInvalidState)
}

func TestValidateRequest(t *testing.T) {
	now := time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC)

	require.NoError(t, ValidateRequest(daterange.Must(date(2024, 7, 1), date(2024, 7, 4)), now))
	require.ErrorIs(t, ValidateRequest(daterange.Must(date(2024, 6, 30), date(2024, 7, 4)), now), ErrCheckInInPast)

	err := ValidateRequest(daterange.DateRange{CheckIn: date(2024, 7, 4), CheckOut: date(2024, 7, 4)}, now)
	require.ErrorIs(t, err, ErrInvalidRange)
	v, ok := AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, ViolationInvalidRange, v.Kind)
}

func TestViolationMatchesSentinels(t *testing.T) {
	dr := daterange.Must(date(2024, 8, 1), date(2024, 8, 5))
	cases := map[ViolationKind]error{
		ViolationInvalidRange:            ErrInvalidRange,
		ViolationBelowMinimumStay:        ErrBelowMinimumStay,
		ViolationBookingConflict:         ErrBookingConflict,
		ViolationUnitUnavailableForDates: ErrUnitUnavailableForDates,
	}
	for kind, sentinel := range cases {
		err := error(NewViolation(kind, dr, "b-9"))
		assert.True(t, errors.Is(err, sentinel), kind)
		assert.Contains(t, err.Error(), "[2024-08-01, 2024-08-05)")
	}
	assert.False(t, errors.Is(NewViolation(ViolationBookingConflict, dr, ""), ErrInvalidRange))
}

func TestRequestedRangeNormalisesDays(t *testing.T) {
	now := date(2024, 7, 1)
	dr, err := RequestedRange(time.Date(2024, 7, 2, 15, 0, 0, 0, time.UTC), time.Date(2024, 7, 5, 11, 0, 0, 0, time.UTC), now)
	require.NoError(t, err)
	assert.Equal(t, "[2024-07-02, 2024-07-05)", dr.String())

	_, err = RequestedRange(time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC), time.Date(2024, 7, 2, 18, 0, 0, 0, time.UTC), now)
	require.ErrorIs(t, err, ErrInvalidRange)
}
