package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals/internal/domain/booking"
	"rentals/internal/domain/shared/daterange"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stay(id string, key booking.UnitKey, in, out time.Time) booking.Booking {
	return booking.Booking{ID: booking.BookingID(id), UnitID: "villa-7", UnitKey: key, Range: daterange.Must(in, out)}
}

func TestEmptySnapshotIsAlwaysAvailable(t *testing.T) {
	cal := Default
	assert.False(t, cal.IsDateBooked(date(2024, 8, 1), nil, booking.StandardUnit))
	assert.False(t, cal.IsRangeBooked(date(2024, 8, 1), date(2024, 8, 9), nil, booking.StandardUnit))

	out, ok := cal.EarliestAvailableCheckout(date(2024, 8, 1), nil, booking.StandardUnit)
	require.True(t, ok)
	assert.Equal(t, date(2024, 8, 2), out)

	_, bounded := cal.LatestAvailableCheckout(date(2024, 8, 1), nil, booking.StandardUnit)
	assert.False(t, bounded)
}

func TestIsDateBookedCheckoutDayIsFree(t *testing.T) {
	bookings := []booking.Booking{stay("b-1", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5))}

	for d := date(2024, 8, 1); d.Before(date(2024, 8, 5)); d = d.AddDate(0, 0, 1) {
		assert.True(t, Default.IsDateBooked(d, bookings, booking.StandardUnit), d)
	}
	assert.False(t, Default.IsDateBooked(date(2024, 8, 5), bookings, booking.StandardUnit))
	assert.False(t, Default.IsDateBooked(date(2024, 7, 31), bookings, booking.StandardUnit))
	assert.True(t, Default.IsDateBooked(time.Date(2024, 8, 4, 23, 0, 0, 0, time.UTC), bookings, booking.StandardUnit))
}

func TestUnitKeysAreIsolated(t *testing.T) {
	bookings := []booking.Booking{
		stay("std", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5)),
		stay("dlx", "deluxe", date(2024, 8, 10), date(2024, 8, 12)),
	}

	assert.False(t, Default.IsDateBooked(date(2024, 8, 2), bookings, "deluxe"))
	assert.True(t, Default.IsDateBooked(date(2024, 8, 10), bookings, "deluxe"))
	assert.False(t, Default.IsDateBooked(date(2024, 8, 10), bookings, booking.StandardUnit))
	assert.False(t, Default.IsRangeBooked(date(2024, 8, 1), date(2024, 8, 9), bookings, "deluxe"))
	assert.False(t, Default.IsRangeBooked(date(2024, 8, 1), date(2024, 8, 9), bookings, "family"))
}

func TestCancelledBookingsDoNotOccupy(t *testing.T) {
	b := stay("b-1", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5))
	b.State = booking.StateCancelled
	assert.False(t, Default.IsRangeBooked(date(2024, 8, 2), date(2024, 8, 3), []booking.Booking{b}, booking.StandardUnit))
}

func TestIsRangeBookedMatchesHalfOpenIntersection(t *testing.T) {
	existing := stay("b-1", booking.StandardUnit, date(2024, 8, 10), date(2024, 8, 15))
	bookings := []booking.Booking{existing}
	base := date(2024, 8, 5)

	for s := 0; s < 15; s++ {
		for e := s + 1; e <= 16; e++ {
			start, end := base.AddDate(0, 0, s), base.AddDate(0, 0, e)
			want := start.Before(existing.Range.CheckOut) && end.After(existing.Range.CheckIn)
			assert.Equal(t, want, Default.IsRangeBooked(start, end, bookings, booking.StandardUnit), "%s-%s", start, end)

			// intersection is symmetric: swap candidate and booking.
			swapped := []booking.Booking{stay("c", booking.StandardUnit, start, end)}
			assert.Equal(t, want, Default.IsRangeBooked(existing.Range.CheckIn, existing.Range.CheckOut, swapped, booking.StandardUnit))
		}
	}
}

func TestRangeScenarios(t *testing.T) {
	bookings := []booking.Booking{stay("b-1", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5))}

	tests := []struct {
		name     string
		in, out  time.Time
		conflict bool
	}{
		{"overlaps last night", date(2024, 8, 4), date(2024, 8, 6), true},
		{"starts on checkout day", date(2024, 8, 5), date(2024, 8, 7), false},
		{"ends on check-in day", date(2024, 7, 29), date(2024, 8, 1), false},
		{"covers whole booking", date(2024, 7, 29), date(2024, 8, 9), true},
		{"inside booking", date(2024, 8, 2), date(2024, 8, 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Default.FindConflict(tt.in, tt.out, bookings, booking.StandardUnit)
			assert.Equal(t, tt.conflict, found)
			if found {
				assert.Equal(t, booking.BookingID("b-1"), got.ID)
			}
		})
	}
}

func TestSelfExclusion(t *testing.T) {
	bookings := []booking.Booking{
		stay("orig", booking.StandardUnit, date(2024, 6, 1), date(2024, 6, 10)),
		stay("other", booking.StandardUnit, date(2024, 6, 12), date(2024, 6, 14)),
	}
	assert.True(t, Default.IsRangeBooked(date(2024, 6, 5), date(2024, 6, 11), bookings, booking.StandardUnit))
	assert.False(t, Default.IsRangeBooked(date(2024, 6, 5), date(2024, 6, 11), bookings, booking.StandardUnit, "orig"))
	assert.True(t, Default.IsRangeBooked(date(2024, 6, 5), date(2024, 6, 13), bookings, booking.StandardUnit, "orig"))
}

func TestEarliestAvailableCheckout(t *testing.T) {
	bookings := []booking.Booking{
		stay("b-1", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5)),
		stay("b-2", booking.StandardUnit, date(2024, 8, 6), date(2024, 8, 8)),
	}

	out, ok := Default.EarliestAvailableCheckout(date(2024, 8, 5), bookings, booking.StandardUnit)
	require.True(t, ok)
	assert.Equal(t, date(2024, 8, 6), out)
	assert.False(t, Default.IsRangeBooked(date(2024, 8, 5), out, bookings, booking.StandardUnit))

	_, ok = Default.EarliestAvailableCheckout(date(2024, 8, 3), bookings, booking.StandardUnit)
	assert.False(t, ok)

	out, ok = Default.EarliestAvailableCheckout(date(2024, 8, 3), bookings, "deluxe")
	require.True(t, ok)
	assert.Equal(t, date(2024, 8, 4), out)

	out, ok = Default.EarliestAvailableCheckout(date(2024, 8, 3), bookings, booking.StandardUnit, "b-1")
	require.True(t, ok)
	assert.Equal(t, date(2024, 8, 4), out)
}

func TestEarliestCheckoutNeverConflicts(t *testing.T) {
	bookings := []booking.Booking{
		stay("b-1", booking.StandardUnit, date(2024, 8, 3), date(2024, 8, 5)),
		stay("b-2", booking.StandardUnit, date(2024, 8, 9), date(2024, 8, 10)),
	}
	for d := date(2024, 8, 1); d.Before(date(2024, 8, 12)); d = d.AddDate(0, 0, 1) {
		out, ok := Default.EarliestAvailableCheckout(d, bookings, booking.StandardUnit)
		if !ok {
			assert.True(t, Default.IsDateBooked(d, bookings, booking.StandardUnit), d)
			continue
		}
		assert.False(t, Default.IsRangeBooked(d, out, bookings, booking.StandardUnit), d)
	}
}

func TestLatestAvailableCheckout(t *testing.T) {
	bookings := []booking.Booking{
		stay("b-1", booking.StandardUnit, date(2024, 8, 12), date(2024, 8, 15)),
		stay("b-2", booking.StandardUnit, date(2024, 8, 20), date(2024, 8, 22)),
	}

	last, ok := Default.LatestAvailableCheckout(date(2024, 8, 5), bookings, booking.StandardUnit)
	require.True(t, ok)
	assert.Equal(t, date(2024, 8, 12), last)
	assert.False(t, Default.IsRangeBooked(date(2024, 8, 5), last, bookings, booking.StandardUnit))

	last, ok = Default.LatestAvailableCheckout(date(2024, 8, 15), bookings, booking.StandardUnit)
	require.True(t, ok)
	assert.Equal(t, date(2024, 8, 20), last)

	_, ok = Default.LatestAvailableCheckout(date(2024, 8, 22), bookings, booking.StandardUnit)
	assert.False(t, ok)
}

func TestInclusiveEndTreatsCheckoutDayAsOccupied(t *testing.T) {
	legacy := Calendar{Boundary: InclusiveEnd}
	bookings := []booking.Booking{stay("b-1", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5))}

	assert.True(t, legacy.IsDateBooked(date(2024, 8, 5), bookings, booking.StandardUnit))
	assert.True(t, legacy.IsRangeBooked(date(2024, 8, 5), date(2024, 8, 7), bookings, booking.StandardUnit))
	assert.False(t, legacy.IsRangeBooked(date(2024, 8, 6), date(2024, 8, 7), bookings, booking.StandardUnit))
}

func TestOccupied(t *testing.T) {
	bookings := []booking.Booking{
		stay("std", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5)),
		stay("dlx", "deluxe", date(2024, 8, 10), date(2024, 8, 12)),
	}
	assert.Equal(t, []daterange.DateRange{daterange.Must(date(2024, 8, 10), date(2024, 8, 12))}, Default.Occupied(bookings, "deluxe"))
}

func TestOccupiedCoalescesBackToBackStays(t *testing.T) {
	bookings := []booking.Booking{
		stay("b-2", booking.StandardUnit, date(2024, 8, 5), date(2024, 8, 7)),
		stay("b-1", booking.StandardUnit, date(2024, 8, 1), date(2024, 8, 5)),
		stay("b-3", booking.StandardUnit, date(2024, 8, 9), date(2024, 8, 10)),
	}
	assert.Equal(t, []daterange.DateRange{
		daterange.Must(date(2024, 8, 1), date(2024, 8, 7)),
		daterange.Must(date(2024, 8, 9), date(2024, 8, 10)),
	}, Default.Occupied(bookings, booking.StandardUnit))
}
