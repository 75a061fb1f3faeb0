// Package pricing turns a rate and a date range into an amount payable.
package pricing

import (
	"errors"
	"math"
	"time"

	"rentals/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
	ErrNegativeRate  = errors.New("pricing: rate cannot be negative")
)

// UnitCount is the number of billable days or nights in [start, end): partial
// days round up and the result is never below one.
func UnitCount(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	n := int(math.Ceil(hours / 24))
	if n < 1 {
		return 1
	}
	return n
}

type RateQuote struct {
	RatePerUnit money.Money
	Units       int
	Subtotal    money.Money
}

// Quote prices a stay at rate per unit.
func Quote(rate money.Money, start, end time.Time) (RateQuote, error) {
	if rate.Currency == "" {
		return RateQuote{}, ErrCurrencyUnset
	}
	if rate.Amount < 0 {
		return RateQuote{}, ErrNegativeRate
	}
	units := UnitCount(start, end)
	return RateQuote{
		RatePerUnit: rate,
		Units:       units,
		Subtotal:    rate.Multiply(int64(units)),
	}, nil
}

type ReferralDiscount struct {
	Percentage     float64
	DiscountAmount money.Money
	FinalAmount    money.Money
}

// ApplyReferral takes percentage off the subtotal. Percentages outside
// [0, 100] are clamped so the final amount never drops below zero.
func ApplyReferral(q RateQuote, percentage float64) ReferralDiscount {
	switch {
	case math.IsNaN(percentage) || percentage < 0:
		percentage = 0
	case percentage > 100:
		percentage = 100
	}
	discount := q.Subtotal.Percent(percentage)
	final := money.Money{Amount: q.Subtotal.Amount - discount.Amount, Currency: q.Subtotal.Currency}
	if final.Amount < 0 {
		final.Amount = 0
	}
	return ReferralDiscount{
		Percentage:     percentage,
		DiscountAmount: discount,
		FinalAmount:    final,
	}
}

type Discount struct {
	Name   string
	Amount money.Money
}

// PriceBreakdown is the itemised form of a quote returned to clients.
type PriceBreakdown struct {
	Units     int
	Rate      money.Money
	Discounts []Discount
	Total     money.Money
}

// Breakdown itemises a quote and its referral discount.
func Breakdown(q RateQuote, d ReferralDiscount) PriceBreakdown {
	p := PriceBreakdown{Units: q.Units, Rate: q.RatePerUnit}
	if !d.DiscountAmount.IsZero() {
		p.Discounts = append(p.Discounts, Discount{Name: "referral", Amount: d.DiscountAmount})
	}
	_ = p.RecalculateTotal()
	return p
}

func (p *PriceBreakdown) Validate() error {
	if p.Rate.Currency == "" {
		return ErrCurrencyUnset
	}
	if p.Units <= 0 {
		return errors.New("pricing: units must be positive")
	}
	return nil
}

func (p *PriceBreakdown) RecalculateTotal() error {
	if err := p.Validate(); err != nil {
		return err
	}
	total := p.Rate.Multiply(int64(p.Units))
	for _, discount := range p.Discounts {
		amount := discount.Amount
		if amount.Amount > 0 {
			amount = amount.Neg()
		}
		res, err := total.Add(amount)
		if err != nil {
			return err
		}
		total = res
	}
	if total.Amount < 0 {
		total = money.Zero(total.Currency)
	}
	p.Total = total
	return nil
}
