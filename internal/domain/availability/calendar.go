// Package availability decides whether dates of a bookable unit are free.
//
// A Calendar is a pure query over a snapshot of existing bookings supplied by
// the caller. It never fails: invalid candidates are rejected upstream by
// booking.ValidateRequest, and every method answers with plain values.
package availability

import (
	"sort"
	"time"

	"rentals/internal/domain/booking"
	"rentals/internal/domain/shared/daterange"
)

// Boundary selects how the end date of an existing booking is treated.
type Boundary int

const (
	// HalfOpen treats bookings as [start, end): the checkout day is free for a new check-in.
	HalfOpen Boundary = iota
	// InclusiveEnd treats bookings as [start, end]. Kept to compare against legacy forms.
	InclusiveEnd
)

type Calendar struct {
	Boundary Boundary
}

// Default is the calendar every handler uses.
var Default = Calendar{Boundary: HalfOpen}

// IsDateBooked reports whether date is occupied by a booking of unitKey.
func (c Calendar) IsDateBooked(date time.Time, bookings []booking.Booking, unitKey booking.UnitKey) bool {
	d := daterange.Day(date)
	for i := range bookings {
		b := &bookings[i]
		if !c.applies(b, unitKey) {
			continue
		}
		if !d.Before(b.Range.CheckIn) && c.beforeEnd(d, b.Range.CheckOut) {
			return true
		}
	}
	return false
}

// IsRangeBooked reports whether [start, end) intersects a booking of unitKey.
// Bookings listed in exclude are ignored, which is how an extension skips the
// booking it extends.
func (c Calendar) IsRangeBooked(start, end time.Time, bookings []booking.Booking, unitKey booking.UnitKey, exclude ...booking.BookingID) bool {
	_, found := c.FindConflict(start, end, bookings, unitKey, exclude...)
	return found
}

// FindConflict returns the first booking of unitKey intersecting [start, end).
func (c Calendar) FindConflict(start, end time.Time, bookings []booking.Booking, unitKey booking.UnitKey, exclude ...booking.BookingID) (booking.Booking, bool) {
	s, e := daterange.Day(start), daterange.Day(end)
	for i := range bookings {
		b := &bookings[i]
		if !c.applies(b, unitKey) || excluded(b.ID, exclude) {
			continue
		}
		if c.beforeEnd(s, b.Range.CheckOut) && e.After(b.Range.CheckIn) {
			return *b, true
		}
	}
	return booking.Booking{}, false
}

// EarliestAvailableCheckout walks forward from start+1 day and returns the
// first day d for which [start, d) is free. The walk stops past the last known
// booking end; ok is false when no such day exists, which only happens when
// start itself is occupied. Bookings listed in exclude are ignored.
func (c Calendar) EarliestAvailableCheckout(start time.Time, bookings []booking.Booking, unitKey booking.UnitKey, exclude ...booking.BookingID) (time.Time, bool) {
	s := daterange.Day(start)
	limit := daterange.AddDays(s, 1)
	for i := range bookings {
		b := &bookings[i]
		if !c.applies(b, unitKey) || excluded(b.ID, exclude) {
			continue
		}
		if end := daterange.AddDays(b.Range.CheckOut, 1); end.After(limit) {
			limit = end
		}
	}
	for d := daterange.AddDays(s, 1); !d.After(limit); d = daterange.AddDays(d, 1) {
		if !c.IsRangeBooked(s, d, bookings, unitKey, exclude...) {
			return d, true
		}
	}
	return time.Time{}, false
}

// LatestAvailableCheckout returns the check-in of the next booking of unitKey
// starting after start: the last day a stay beginning on start can end on.
// ok is false when nothing is booked after start.
func (c Calendar) LatestAvailableCheckout(start time.Time, bookings []booking.Booking, unitKey booking.UnitKey, exclude ...booking.BookingID) (time.Time, bool) {
	s := daterange.Day(start)
	var next time.Time
	for i := range bookings {
		b := &bookings[i]
		if !c.applies(b, unitKey) || excluded(b.ID, exclude) {
			continue
		}
		in := b.Range.CheckIn
		if !in.After(s) {
			continue
		}
		if next.IsZero() || in.Before(next) {
			next = in
		}
	}
	return next, !next.IsZero()
}

// Occupied lists the ranges of unitKey bookings ordered by check-in, for
// rendering a calendar. Back-to-back stays are coalesced into one range.
func (c Calendar) Occupied(bookings []booking.Booking, unitKey booking.UnitKey) []daterange.DateRange {
	ranges := make([]daterange.DateRange, 0, len(bookings))
	for i := range bookings {
		if c.applies(&bookings[i], unitKey) {
			ranges = append(ranges, bookings[i].Range)
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].CheckIn.Before(ranges[j].CheckIn) })

	out := make([]daterange.DateRange, 0, len(ranges))
	for _, r := range ranges {
		if n := len(out); n > 0 {
			if merged, ok := out[n-1].Merge(r); ok {
				out[n-1] = merged
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func (c Calendar) applies(b *booking.Booking, unitKey booking.UnitKey) bool {
	return b.Occupies() && b.UnitKey == unitKey
}

func (c Calendar) beforeEnd(d, end time.Time) bool {
	if c.Boundary == InclusiveEnd {
		return !d.After(end)
	}
	return d.Before(end)
}

func excluded(id booking.BookingID, exclude []booking.BookingID) bool {
	for _, x := range exclude {
		if x == id {
			return true
		}
	}
	return false
}
