package dto

import "rentals/internal/domain/pricing"

type Discount struct {
	Name   string   `json:"name"`
	Amount MoneyDTO `json:"amount"`
}

type Referral struct {
	Code         string  `json:"code"`
	Percentage   float64 `json:"percentage"`
	ReferrerName string  `json:"referrer_name,omitempty"`
}

// Quote is the priced form of a stay, itemised for display.
type Quote struct {
	CheckIn        string     `json:"check_in"`
	CheckOut       string     `json:"check_out"`
	Units          int        `json:"units"`
	RatePerUnit    MoneyDTO   `json:"rate_per_unit"`
	Subtotal       MoneyDTO   `json:"subtotal"`
	Discounts      []Discount `json:"discounts"`
	DiscountAmount MoneyDTO   `json:"discount_amount"`
	FinalAmount    MoneyDTO   `json:"final_amount"`
	Referral       *Referral  `json:"referral,omitempty"`
}

func MapQuote(q pricing.RateQuote, d pricing.ReferralDiscount, checkIn, checkOut string) Quote {
	b := pricing.Breakdown(q, d)
	discounts := make([]Discount, 0, len(b.Discounts))
	for _, item := range b.Discounts {
		discounts = append(discounts, Discount{Name: item.Name, Amount: MapMoney(item.Amount)})
	}
	return Quote{
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Units:          q.Units,
		RatePerUnit:    MapMoney(q.RatePerUnit),
		Subtotal:       MapMoney(q.Subtotal),
		Discounts:      discounts,
		DiscountAmount: MapMoney(d.DiscountAmount),
		FinalAmount:    MapMoney(b.Total),
	}
}
