package quotes

import (
	"context"
	"time"

	"rentals/internal/app/dto"
	"rentals/internal/app/policies"
	"rentals/internal/app/queries"
	"rentals/internal/app/uow"
	domainavailability "rentals/internal/domain/availability"
	domainbooking "rentals/internal/domain/booking"
	"rentals/internal/domain/pricing"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

const quoteStayKey = "quotes.stay"

type QuoteStayQuery struct {
	UnitID       string
	UnitKey      string
	Rate         money.Money
	CheckIn      time.Time
	CheckOut     time.Time
	ReferralCode string
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
	Calendar   domainavailability.Calendar
	Referrals  policies.ReferralPort
	Clock      func() time.Time
}

// Handle prices a stay on a free range. Taken dates come back as a
// ViolationBookingConflict naming the booking in the way.
func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.Quote, error) {
	dr, err := domainbooking.RequestedRange(q.CheckIn, q.CheckOut, h.now())
	if err != nil {
		return dto.Quote{}, err
	}
	unit, ctx, release, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Quote{}, err
	}
	if release != nil {
		defer release()
	}

	bookings, err := unit.Bookings().ListByUnit(ctx, domainbooking.UnitID(q.UnitID))
	if err != nil {
		return dto.Quote{}, err
	}
	if err := EnsureFree(h.Calendar, dr, bookings, domainbooking.UnitKey(q.UnitKey)); err != nil {
		return dto.Quote{}, err
	}
	out, _, err := PriceStay(ctx, h.Referrals, q.Rate, dr, q.ReferralCode)
	return out, err
}

func (h *QuoteStayHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

// EnsureFree returns a conflict violation when dr is taken on unitKey.
func EnsureFree(cal domainavailability.Calendar, dr daterange.DateRange, bookings []domainbooking.Booking, unitKey domainbooking.UnitKey, exclude ...domainbooking.BookingID) error {
	if conflict, found := cal.FindConflict(dr.CheckIn, dr.CheckOut, bookings, unitKey, exclude...); found {
		return domainbooking.NewViolation(domainbooking.ViolationBookingConflict, conflict.Range, conflict.ID)
	}
	return nil
}

// PriceStay quotes dr at rate and applies the referral behind code, if any.
func PriceStay(ctx context.Context, referrals policies.ReferralPort, rate money.Money, dr daterange.DateRange, code string) (dto.Quote, pricing.ReferralDiscount, error) {
	ref, err := policies.ResolveReferral(ctx, referrals, code)
	if err != nil {
		return dto.Quote{}, pricing.ReferralDiscount{}, err
	}
	q, err := pricing.Quote(rate, dr.CheckIn, dr.CheckOut)
	if err != nil {
		return dto.Quote{}, pricing.ReferralDiscount{}, err
	}
	discount := pricing.ApplyReferral(q, ref.Percentage)
	return MapQuote(q, discount, dr, ref), discount, nil
}

// MapQuote renders a priced range, attaching the referral when one applied.
func MapQuote(q pricing.RateQuote, d pricing.ReferralDiscount, dr daterange.DateRange, ref policies.Referral) dto.Quote {
	out := dto.MapQuote(q, d, dr.CheckIn.Format(time.DateOnly), dr.CheckOut.Format(time.DateOnly))
	if ref.Code != "" {
		out.Referral = &dto.Referral{Code: ref.Code, Percentage: d.Percentage, ReferrerName: ref.ReferrerName}
	}
	return out
}

var _ queries.Handler[QuoteStayQuery, dto.Quote] = (*QuoteStayHandler)(nil)
