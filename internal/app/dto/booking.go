package dto

import (
	"time"

	domainbooking "rentals/internal/domain/booking"
	"rentals/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

type Booking struct {
	ID        string    `json:"id"`
	UnitID    string    `json:"unit_id"`
	UnitKind  string    `json:"unit_kind"`
	UnitKey   string    `json:"unit_key,omitempty"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Units     int       `json:"units"`
	Status    string    `json:"status"`
	Total     MoneyDTO  `json:"total"`
	ExtendsID string    `json:"extends_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:        string(b.ID),
		UnitID:    string(b.UnitID),
		UnitKind:  string(b.Kind),
		UnitKey:   string(b.UnitKey),
		CheckIn:   b.Range.CheckIn,
		CheckOut:  b.Range.CheckOut,
		Units:     b.Range.Days(),
		Status:    string(b.State),
		Total:     MapMoney(b.Total),
		ExtendsID: string(b.ExtendsID),
		CreatedAt: b.CreatedAt,
	}
}
