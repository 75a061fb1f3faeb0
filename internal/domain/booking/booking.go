package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/events"
	"rentals/internal/domain/shared/money"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrUnitRequired    = errors.New("booking: unit id required")
	ErrInvalidKind     = errors.New("booking: unknown unit kind")
	ErrCarVariation    = errors.New("booking: cars have no variations")
	ErrInvalidState    = errors.New("booking: invalid state transition")
)

type BookingID string

// UnitID identifies a bookable entity: a property listing or a car.
type UnitID string

// UnitKey selects the sub-unit inside a bookable entity. StandardUnit is the
// default listing of a property and the only unit a car has.
type UnitKey string

const StandardUnit UnitKey = ""

type UnitKind string

const (
	KindProperty UnitKind = "property"
	KindCar      UnitKind = "car"
)

func ParseUnitKind(raw string) (UnitKind, error) {
	switch UnitKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindProperty, "":
		return KindProperty, nil
	case KindCar:
		return KindCar, nil
	default:
		return "", ErrInvalidKind
	}
}

type State string

const (
	StateRequested State = "REQUESTED"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
)

// Booking is the snapshot of an existing reservation the engine reads.
type Booking struct {
	ID        BookingID
	UnitID    UnitID
	Kind      UnitKind
	UnitKey   UnitKey
	Range     daterange.DateRange
	Total     money.Money
	ExtendsID BookingID
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

// Occupies reports whether the booking still blocks its dates.
func (b *Booking) Occupies() bool {
	return b.State != StateCancelled
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// ListByUnit returns the bookings that occupy dates of the unit, across all unit keys.
	ListByUnit(ctx context.Context, unit UnitID) ([]Booking, error)
}

type CreateParams struct {
	ID        BookingID
	UnitID    UnitID
	Kind      UnitKind
	UnitKey   UnitKey
	Range     daterange.DateRange
	Total     money.Money
	ExtendsID BookingID
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("booking: id required")
	}
	if strings.TrimSpace(string(params.UnitID)) == "" {
		return nil, ErrUnitRequired
	}
	kind := params.Kind
	if kind == "" {
		kind = KindProperty
	}
	if kind == KindCar && params.UnitKey != StandardUnit {
		return nil, ErrCarVariation
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		UnitID:    params.UnitID,
		Kind:      kind,
		UnitKey:   params.UnitKey,
		Range:     params.Range,
		Total:     params.Total,
		ExtendsID: params.ExtendsID,
		State:     StateRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		UnitID:    b.UnitID,
		UnitKey:   b.UnitKey,
		Range:     b.Range,
		Total:     b.Total,
		ExtendsID: b.ExtendsID,
		At:        now,
	})
	return b, nil
}

func (b *Booking) Confirm(now time.Time) error {
	if b.State != StateRequested {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.State == StateCancelled {
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}
