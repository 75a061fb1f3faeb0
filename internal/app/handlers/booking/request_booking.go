package booking

import (
	"context"
	"errors"
	"time"

	"rentals/internal/app/commands"
	"rentals/internal/app/dto"
	"rentals/internal/app/handlers/quotes"
	"rentals/internal/app/middleware"
	"rentals/internal/app/outbox"
	"rentals/internal/app/policies"
	"rentals/internal/app/uow"
	domainavailability "rentals/internal/domain/availability"
	domainbooking "rentals/internal/domain/booking"
	"rentals/internal/domain/shared/money"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string
	UnitID          string
	UnitKind        string
	UnitKey         string
	Rate            money.Money
	CheckIn         time.Time
	CheckOut        time.Time
	ReferralCode    string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

func (c RequestBookingCommand) Validate() error {
	if c.CommandID == "" {
		return errors.New("booking: command id required")
	}
	if c.UnitID == "" {
		return domainbooking.ErrUnitRequired
	}
	return nil
}

type RequestBookingResult struct {
	Booking dto.Booking `json:"booking"`
	Quote   dto.Quote   `json:"quote"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Calendar   domainavailability.Calendar
	Referrals  policies.ReferralPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

// Handle re-runs the availability check against the stored bookings inside
// the write unit, so two requests for the same dates cannot both succeed.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	kind, err := domainbooking.ParseUnitKind(cmd.UnitKind)
	if err != nil {
		return nil, err
	}
	now := h.now()
	dr, err := domainbooking.RequestedRange(cmd.CheckIn, cmd.CheckOut, now)
	if err != nil {
		return nil, err
	}

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

	key := domainbooking.UnitKey(cmd.UnitKey)
	existing, err := unit.Bookings().ListByUnit(ctx, domainbooking.UnitID(cmd.UnitID))
	if err != nil {
		return nil, err
	}
	if err := quotes.EnsureFree(h.Calendar, dr, existing, key); err != nil {
		return nil, err
	}
	quote, discount, err := quotes.PriceStay(ctx, h.Referrals, cmd.Rate, dr, cmd.ReferralCode)
	if err != nil {
		return nil, err
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		UnitID:    domainbooking.UnitID(cmd.UnitID),
		Kind:      kind,
		UnitKey:   key,
		Range:     dr,
		Total:     discount.FinalAmount,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}

	if release != nil {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &RequestBookingResult{Booking: dto.MapBooking(booking), Quote: quote}, nil
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
