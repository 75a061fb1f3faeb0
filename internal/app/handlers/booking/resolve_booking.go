package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentals/internal/app/commands"
	"rentals/internal/app/dto"
	"rentals/internal/app/middleware"
	"rentals/internal/app/outbox"
	"rentals/internal/app/uow"
	domainbooking "rentals/internal/domain/booking"
)

const resolveBookingKey = "booking.resolve"

const (
	DecisionConfirmed = "confirmed"
	DecisionRejected  = "rejected"
)

var ErrUnknownDecision = errors.New("booking: unknown submission decision")

// ResolveBookingCommand applies the submission service's decision on a
// requested booking. EventID makes redelivered decisions idempotent.
type ResolveBookingCommand struct {
	BookingID string
	Decision  string
	Reason    string
	EventID   string
}

func (c ResolveBookingCommand) Key() string { return resolveBookingKey }

func (c ResolveBookingCommand) IdempotencyKey() string { return c.EventID }

func (c ResolveBookingCommand) ResultPrototype() any { return &dto.Booking{} }

func (c ResolveBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errors.New("booking: booking id required")
	}
	switch c.Decision {
	case DecisionConfirmed, DecisionRejected:
		return nil
	default:
		return ErrUnknownDecision
	}
}

type ResolveBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ResolveBookingHandler) Handle(ctx context.Context, cmd ResolveBookingCommand) (*dto.Booking, error) {
	unit, ctx, release, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	if release != nil {
		defer func() {
			if !committed {
				release()
			}
		}()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	now := h.now()
	switch cmd.Decision {
	case DecisionConfirmed:
		err = b.Confirm(now)
	case DecisionRejected:
		err = b.Cancel(cmd.Reason, now)
	default:
		err = ErrUnknownDecision
	}
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}

	if release != nil {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	out := dto.MapBooking(b)
	return &out, nil
}

func (h *ResolveBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ResolveBookingCommand, *dto.Booking] = (*ResolveBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*ResolveBookingCommand)(nil)
