package extension

import (
	"context"
	"errors"
	"time"

	"rentals/internal/app/dto"
	"rentals/internal/app/handlers/quotes"
	"rentals/internal/app/policies"
	"rentals/internal/app/queries"
	"rentals/internal/app/uow"
	domainavailability "rentals/internal/domain/availability"
	domainbooking "rentals/internal/domain/booking"
	domainextension "rentals/internal/domain/extension"
	"rentals/internal/domain/shared/money"
)

const planExtensionKey = "extension.plan"

var ErrBookingRequired = errors.New("extension: booking id required")

// Request is what a guest fills in to extend a booking. A nil UnitKey keeps
// the unit of the original booking.
type Request struct {
	BookingID    string
	NewEnd       time.Time
	UnitKey      *string
	Rate         money.Money
	ReferralCode string
}

func (r Request) Validate() error {
	if r.BookingID == "" {
		return ErrBookingRequired
	}
	return nil
}

type PlanExtensionQuery struct {
	Request
}

func (q PlanExtensionQuery) Key() string { return planExtensionKey }

// Planner drives a domain plan to Quoted from a Request.
type Planner struct {
	Calendar  domainavailability.Calendar
	Referrals policies.ReferralPort
	// OnChange, when set, observes every transition of every plan.
	OnChange func(bookingID string, state domainextension.State)
}

type planned struct {
	plan     *domainextension.Plan
	referral policies.Referral
}

func (p Planner) plan(ctx context.Context, unit uow.UnitOfWork, req Request) (planned, error) {
	original, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(req.BookingID))
	if err != nil {
		return planned{}, err
	}
	bookings, err := unit.Bookings().ListByUnit(ctx, original.UnitID)
	if err != nil {
		return planned{}, err
	}
	opts := []domainextension.Option{domainextension.WithCalendar(p.Calendar)}
	if p.OnChange != nil {
		id := req.BookingID
		opts = append(opts, domainextension.WithOnChange(func(s domainextension.State) { p.OnChange(id, s) }))
	}
	plan, err := domainextension.NewPlan(*original, bookings, opts...)
	if err != nil {
		return planned{}, err
	}
	if req.UnitKey != nil {
		if err := plan.SwitchUnit(domainbooking.UnitKey(*req.UnitKey)); err != nil {
			return planned{}, err
		}
	}
	if err := plan.ChooseEnd(req.NewEnd); err != nil {
		return planned{}, err
	}
	ref, err := policies.ResolveReferral(ctx, p.Referrals, req.ReferralCode)
	if err != nil {
		return planned{}, err
	}
	if _, err := plan.Quote(req.Rate, ref.Percentage); err != nil {
		return planned{}, err
	}
	return planned{plan: plan, referral: ref}, nil
}

type PlanExtensionHandler struct {
	UoWFactory uow.UoWFactory
	Planner    Planner
}

// Handle is a dry run: the plan is validated and priced but not stored.
func (h *PlanExtensionHandler) Handle(ctx context.Context, q PlanExtensionQuery) (dto.ExtensionPlan, error) {
	unit, ctx, release, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.ExtensionPlan{}, err
	}
	if release != nil {
		defer release()
	}

	res, err := h.Planner.plan(ctx, unit, q.Request)
	if err != nil {
		return dto.ExtensionPlan{}, err
	}
	plan := res.plan
	out := dto.ExtensionPlan{
		BookingID:  q.BookingID,
		UnitKey:    string(plan.UnitKey()),
		AnchorDate: plan.Anchor().Format(time.DateOnly),
		NewEnd:     plan.NewEnd().Format(time.DateOnly),
		State:      string(plan.State()),
		Quote:      quotes.MapQuote(plan.RateQuote(), plan.Discount(), plan.Range(), res.referral),
	}
	if latest, ok := plan.LatestEnd(); ok {
		out.LatestEnd = latest.Format(time.DateOnly)
	}
	return out, nil
}

var _ queries.Handler[PlanExtensionQuery, dto.ExtensionPlan] = (*PlanExtensionHandler)(nil)
