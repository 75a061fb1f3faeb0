package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "rentals/internal/domain/booking"
)

// BookingRepository keeps committed bookings. Callers normally reach it
// through a Unit, which stages writes until commit.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return &b, nil
}

// Save stores a copy of booking, bumping its version. Pending events stay
// with the caller's aggregate.
func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(booking)
	return nil
}

func (r *BookingRepository) ListByUnit(ctx context.Context, unit domainbooking.UnitID) ([]domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.UnitID == unit && b.Occupies() {
			out = append(out, b)
		}
	}
	sortByCheckIn(out)
	return out, nil
}

// Len is the number of stored bookings.
func (r *BookingRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *BookingRepository) put(booking *domainbooking.Booking) {
	stored := snapshot(booking)
	stored.Version++
	booking.Version = stored.Version
	r.items[stored.ID] = stored
}

func snapshot(b *domainbooking.Booking) domainbooking.Booking {
	out := *b
	out.ClearEvents()
	return out
}

func sortByCheckIn(bs []domainbooking.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Range.CheckIn.Equal(bs[j].Range.CheckIn) {
			return bs[i].ID < bs[j].ID
		}
		return bs[i].Range.CheckIn.Before(bs[j].Range.CheckIn)
	})
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
