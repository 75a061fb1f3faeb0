package extension

import (
	"context"
	"time"

	"rentals/internal/app/commands"
	"rentals/internal/app/dto"
	"rentals/internal/app/middleware"
	"rentals/internal/app/outbox"
	"rentals/internal/app/uow"
	domainbooking "rentals/internal/domain/booking"
)

const submitExtensionKey = "extension.submit"

type SubmitExtensionCommand struct {
	Request
	CommandID       string
	IdempotencyKeyV string
}

func (c SubmitExtensionCommand) Key() string { return submitExtensionKey }

func (c SubmitExtensionCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitExtensionCommand) ResultPrototype() any { return &dto.ExtensionSubmission{} }

type SubmitExtensionHandler struct {
	UoWFactory uow.UoWFactory
	Planner    Planner
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

// Handle submits the extension and stores it as a new booking that starts
// at the original checkout. The extension.submitted record in the outbox is
// the hand-off to the booking-submission service.
func (h *SubmitExtensionHandler) Handle(ctx context.Context, cmd SubmitExtensionCommand) (*dto.ExtensionSubmission, error) {
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

	res, err := h.Planner.plan(ctx, unit, cmd.Request)
	if err != nil {
		return nil, err
	}
	now := h.now()
	sub, err := res.plan.Submit(now)
	if err != nil {
		return nil, err
	}
	followOn, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		UnitID:    sub.UnitID,
		Kind:      sub.Kind,
		UnitKey:   sub.UnitKey,
		Range:     sub.Range(),
		Total:     sub.FinalAmount(),
		ExtendsID: sub.OriginalBookingID,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, followOn); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, res.plan, followOn); err != nil {
		return nil, err
	}

	if release != nil {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &dto.ExtensionSubmission{
		BookingID:         string(followOn.ID),
		OriginalBookingID: string(sub.OriginalBookingID),
		UnitKey:           string(sub.UnitKey),
		AnchorDate:        sub.AnchorDate.Format(time.DateOnly),
		NewEnd:            sub.NewEnd.Format(time.DateOnly),
		FinalAmount:       dto.MapMoney(sub.FinalAmount()),
	}, nil
}

func (h *SubmitExtensionHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

var _ commands.Handler[SubmitExtensionCommand, *dto.ExtensionSubmission] = (*SubmitExtensionHandler)(nil)
var _ middleware.IdempotentCommand = (*SubmitExtensionCommand)(nil)
