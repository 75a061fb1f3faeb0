// Package extension plans a follow-on booking that lengthens an existing one.
//
// The new stay starts exactly where the original ends (the anchor) so there is
// never a gap. A Plan walks AnchorFixed -> AwaitingNewEnd -> Validated ->
// Quoted and ends in Submitted or Rejected.
package extension

import (
	"errors"
	"time"

	"rentals/internal/domain/availability"
	"rentals/internal/domain/booking"
	"rentals/internal/domain/pricing"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/events"
	"rentals/internal/domain/shared/money"
)

var (
	ErrInvalidTransition = errors.New("extension: invalid state transition")
	ErrOriginalCancelled = errors.New("extension: original booking is cancelled")
)

type State string

const (
	StateAnchorFixed    State = "ANCHOR_FIXED"
	StateAwaitingNewEnd State = "AWAITING_NEW_END"
	StateValidated      State = "VALIDATED"
	StateQuoted         State = "QUOTED"
	StateSubmitted      State = "SUBMITTED"
	StateRejected       State = "REJECTED"
)

func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateRejected
}

type Option func(*Plan)

// WithCalendar overrides availability.Default.
func WithCalendar(c availability.Calendar) Option {
	return func(p *Plan) { p.calendar = c }
}

// WithMinimumUnits sets the shortest extension accepted, in days. Values below one are ignored.
func WithMinimumUnits(n int) Option {
	return func(p *Plan) {
		if n >= 1 {
			p.minUnits = n
		}
	}
}

// WithOnChange registers fn to be called after every state transition.
func WithOnChange(fn func(State)) Option {
	return func(p *Plan) { p.onChange = fn }
}

type Plan struct {
	original booking.Booking
	bookings []booking.Booking
	calendar availability.Calendar
	minUnits int
	onChange func(State)

	anchor   time.Time
	unitKey  booking.UnitKey
	newEnd   time.Time
	state    State
	quote    pricing.RateQuote
	discount pricing.ReferralDiscount
	reason   string

	events.EventRecorder
}

// NewPlan pins the anchor to the original booking's checkout. bookings is the
// snapshot of the unit's existing bookings; the original may be part of it.
func NewPlan(original booking.Booking, bookings []booking.Booking, opts ...Option) (*Plan, error) {
	if !original.Occupies() {
		return nil, ErrOriginalCancelled
	}
	p := &Plan{
		original: original,
		bookings: bookings,
		calendar: availability.Default,
		minUnits: 1,
		anchor:   daterange.Day(original.Range.CheckOut),
		unitKey:  original.UnitKey,
		state:    StateAnchorFixed,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Plan) State() State                 { return p.state }
func (p *Plan) Anchor() time.Time            { return p.anchor }
func (p *Plan) NewEnd() time.Time            { return p.newEnd }
func (p *Plan) UnitKey() booking.UnitKey     { return p.unitKey }
func (p *Plan) Original() booking.Booking    { return p.original }
func (p *Plan) RejectionReason() string      { return p.reason }
func (p *Plan) RateQuote() pricing.RateQuote { return p.quote }

func (p *Plan) Discount() pricing.ReferralDiscount { return p.discount }

// Range is the candidate extension [anchor, newEnd). Its CheckOut is zero until an end is validated.
func (p *Plan) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: p.anchor, CheckOut: p.newEnd}
}

// EarliestEnd is the first end date the extension could validate with, for
// seeding a date picker.
func (p *Plan) EarliestEnd() (time.Time, bool) {
	return p.calendar.EarliestAvailableCheckout(p.anchor, p.bookings, p.unitKey, p.original.ID)
}

// LatestEnd is the check-in of the next booking after the anchor; false when open ended.
func (p *Plan) LatestEnd() (time.Time, bool) {
	return p.calendar.LatestAvailableCheckout(p.anchor, p.bookings, p.unitKey, p.original.ID)
}

// ChooseEnd selects a new end date. The plan moves to AwaitingNewEnd and, if
// the range passes validation, on to Validated. A failed check leaves it in
// AwaitingNewEnd with no end chosen and returns a *booking.Violation.
func (p *Plan) ChooseEnd(newEnd time.Time) error {
	if p.state.Terminal() {
		return ErrInvalidTransition
	}
	p.newEnd = time.Time{}
	p.quote = pricing.RateQuote{}
	p.discount = pricing.ReferralDiscount{}
	if p.state != StateAwaitingNewEnd {
		p.transition(StateAwaitingNewEnd)
	}
	end := daterange.Day(newEnd)
	if err := p.validate(end, p.unitKey); err != nil {
		return err
	}
	p.newEnd = end
	p.transition(StateValidated)
	return nil
}

// SwitchUnit moves the plan to another unit key. When an end date is already
// chosen the range must be free on the new unit too; otherwise the switch is
// refused with ViolationUnitUnavailableForDates and the prior unit is kept.
func (p *Plan) SwitchUnit(key booking.UnitKey) error {
	if p.state.Terminal() {
		return ErrInvalidTransition
	}
	if p.original.Kind == booking.KindCar && key != booking.StandardUnit {
		return booking.ErrCarVariation
	}
	if key == p.unitKey {
		return nil
	}
	if p.state == StateValidated || p.state == StateQuoted {
		if c, found := p.calendar.FindConflict(p.anchor, p.newEnd, p.bookings, key, p.original.ID); found {
			return booking.NewViolation(booking.ViolationUnitUnavailableForDates, c.Range, c.ID)
		}
	}
	p.unitKey = key
	if p.state == StateQuoted {
		p.quote = pricing.RateQuote{}
		p.discount = pricing.ReferralDiscount{}
		p.transition(StateValidated)
	}
	return nil
}

// Quote prices the validated range. It may be called again from Quoted to
// re-price with a different rate or referral.
func (p *Plan) Quote(rate money.Money, referralPercentage float64) (pricing.ReferralDiscount, error) {
	if p.state != StateValidated && p.state != StateQuoted {
		return pricing.ReferralDiscount{}, ErrInvalidTransition
	}
	q, err := pricing.Quote(rate, p.anchor, p.newEnd)
	if err != nil {
		return pricing.ReferralDiscount{}, err
	}
	p.quote = q
	p.discount = pricing.ApplyReferral(q, referralPercentage)
	if p.state != StateQuoted {
		p.transition(StateQuoted)
	}
	return p.discount, nil
}

// Submission is what the booking-submission collaborator receives.
type Submission struct {
	OriginalBookingID booking.BookingID
	UnitID            booking.UnitID
	Kind              booking.UnitKind
	UnitKey           booking.UnitKey
	AnchorDate        time.Time
	NewEnd            time.Time
	Quote             pricing.RateQuote
	Discount          pricing.ReferralDiscount
	SubmittedAt       time.Time
}

func (s Submission) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: s.AnchorDate, CheckOut: s.NewEnd}
}

func (s Submission) FinalAmount() money.Money {
	return s.Discount.FinalAmount
}

// Submit finalises a quoted plan and records ExtensionSubmitted.
func (p *Plan) Submit(now time.Time) (Submission, error) {
	if p.state != StateQuoted {
		return Submission{}, ErrInvalidTransition
	}
	sub := Submission{
		OriginalBookingID: p.original.ID,
		UnitID:            p.original.UnitID,
		Kind:              p.original.Kind,
		UnitKey:           p.unitKey,
		AnchorDate:        p.anchor,
		NewEnd:            p.newEnd,
		Quote:             p.quote,
		Discount:          p.discount,
		SubmittedAt:       now.UTC(),
	}
	p.Record(ExtensionSubmitted{
		OriginalBookingID: sub.OriginalBookingID,
		UnitID:            sub.UnitID,
		UnitKey:           sub.UnitKey,
		Range:             sub.Range(),
		FinalAmount:       sub.FinalAmount(),
		At:                sub.SubmittedAt,
	})
	p.transition(StateSubmitted)
	return sub, nil
}

// Reject abandons the plan.
func (p *Plan) Reject(reason string) error {
	if p.state.Terminal() {
		return ErrInvalidTransition
	}
	p.reason = reason
	p.transition(StateRejected)
	return nil
}

func (p *Plan) validate(end time.Time, key booking.UnitKey) error {
	candidate := daterange.DateRange{CheckIn: p.anchor, CheckOut: end}
	if !end.After(p.anchor) {
		return booking.NewViolation(booking.ViolationInvalidRange, candidate, "")
	}
	if end.Before(daterange.AddDays(p.anchor, p.minUnits)) {
		return booking.NewViolation(booking.ViolationBelowMinimumStay, candidate, "")
	}
	if c, found := p.calendar.FindConflict(p.anchor, end, p.bookings, key, p.original.ID); found {
		return booking.NewViolation(booking.ViolationBookingConflict, c.Range, c.ID)
	}
	return nil
}



func (p *Plan) transition(next State) {
	p.state = next
	if p.onChange != nil {
		p.onChange(next)
	}
}
