package memory

import (
	"context"
	"errors"

	appoutbox "rentals/internal/app/outbox"
	"rentals/internal/app/uow"
	domainbooking "rentals/internal/domain/booking"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already closed")
	ErrReadOnly             = errors.New("memory: write in a read-only unit")
)

// Factory hands out units over shared in-memory stores. There is one writer
// at a time across all units: a second writer waits in Begin until the first
// commits or rolls back, which makes check-then-insert of bookings atomic.
type Factory struct {
	bookings *BookingRepository
	outbox   *Outbox
	writer   chan struct{}
}

func NewFactory(bookings *BookingRepository, outbox *Outbox) *Factory {
	return &Factory{bookings: bookings, outbox: outbox, writer: make(chan struct{}, 1)}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.bookings == nil || f.writer == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{repo: f.bookings, outbox: f.outbox, staged: make(map[domainbooking.BookingID]*domainbooking.Booking)}
	if !opts.ReadOnly {
		select {
		case f.writer <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		u.unlock = func() { <-f.writer }
	}
	return u, nil
}

// Unit stages booking writes and outbox records until Commit.
type Unit struct {
	repo    *BookingRepository
	outbox  *Outbox
	staged  map[domainbooking.BookingID]*domainbooking.Booking
	records []appoutbox.EventRecord
	unlock  func()
	closed  bool
}

func (u *Unit) Bookings() domainbooking.Repository {
	return unitBookings{u}
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.closed {
		return ErrUnitClosed
	}
	u.repo.mu.Lock()
	for _, b := range u.staged {
		u.repo.put(b)
	}
	u.repo.mu.Unlock()
	if u.outbox != nil && len(u.records) > 0 {
		u.outbox.append(u.records...)
	}
	u.close()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.closed {
		return nil
	}
	u.close()
	return nil
}

func (u *Unit) close() {
	u.closed = true
	u.staged = nil
	u.records = nil
	if u.unlock != nil {
		u.unlock()
		u.unlock = nil
	}
}

type unitBookings struct{ u *Unit }

func (r unitBookings) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if b, ok := r.u.staged[id]; ok {
		out := snapshot(b)
		return &out, nil
	}
	return r.u.repo.ByID(ctx, id)
}

func (r unitBookings) Save(ctx context.Context, booking *domainbooking.Booking) error {
	if r.u.closed {
		return ErrUnitClosed
	}
	if r.u.unlock == nil {
		return ErrReadOnly
	}
	b := snapshot(booking)
	r.u.staged[b.ID] = &b
	return nil
}

func (r unitBookings) ListByUnit(ctx context.Context, unit domainbooking.UnitID) ([]domainbooking.Booking, error) {
	committed, err := r.u.repo.ListByUnit(ctx, unit)
	if err != nil {
		return nil, err
	}
	if len(r.u.staged) == 0 {
		return committed, nil
	}
	out := committed[:0:0]
	for _, b := range committed {
		if _, overwritten := r.u.staged[b.ID]; !overwritten {
			out = append(out, b)
		}
	}
	for _, b := range r.u.staged {
		if b.UnitID == unit && b.Occupies() {
			out = append(out, *b)
		}
	}
	sortByCheckIn(out)
	return out, nil
}

var (
	_ uow.UoWFactory           = (*Factory)(nil)
	_ uow.UnitOfWork           = (*Unit)(nil)
	_ domainbooking.Repository = unitBookings{}
)
