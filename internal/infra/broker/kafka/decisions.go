package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"rentals/internal/app/commands"
	"rentals/internal/app/dto"
	bookingapp "rentals/internal/app/handlers/booking"
	domainbooking "rentals/internal/domain/booking"
)

// DecisionsTopic carries the booking-submission service's verdicts.
const DecisionsTopic = "submission.decisions.v1"

type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// decisionEvent is a CloudEvent whose data names the booking and verdict.
type decisionEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		BookingID string `json:"booking_id"`
		Decision  string `json:"decision"`
		Reason    string `json:"reason"`
	} `json:"data"`
}

// DecisionHandler turns decision messages into ResolveBookingCommands.
// Malformed messages and decisions for unknown or already resolved bookings
// are logged and dropped; other failures are returned for redelivery.
type DecisionHandler struct {
	Commands commands.Bus
	Inbox    Inbox
	Logger   *slog.Logger
}

func (h DecisionHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	log := h.logger()
	var ev decisionEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil || ev.ID == "" {
		log.Warn("dropping malformed decision", "offset", msg.Offset, "error", err)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("kafka: inbox: %w", err)
		}
		if seen {
			log.Debug("decision already handled", "event_id", ev.ID)
			return nil
		}
	}

	cmd := bookingapp.ResolveBookingCommand{
		BookingID: ev.Data.BookingID,
		Decision:  ev.Data.Decision,
		Reason:    ev.Data.Reason,
		EventID:   ev.ID,
	}
	_, err := commands.Dispatch[bookingapp.ResolveBookingCommand, *dto.Booking](ctx, h.Commands, cmd)
	switch {
	case err == nil:
		log.Info("booking resolved", "booking_id", cmd.BookingID, "decision", cmd.Decision)
		return nil
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, bookingapp.ErrUnknownDecision):
		log.Warn("dropping decision", "event_id", ev.ID, "booking_id", cmd.BookingID, "error", err)
		return nil
	default:
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(ctx, ev.ID); ferr != nil {
				log.Error("inbox forget failed", "event_id", ev.ID, "error", ferr)
			}
		}
		return err
	}
}

func (h DecisionHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = DecisionHandler{}
