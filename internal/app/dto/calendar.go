package dto

import "rentals/internal/domain/shared/daterange"

type Calendar struct {
	UnitID   string      `json:"unit_id"`
	UnitKey  string      `json:"unit_key,omitempty"`
	Occupied []DateRange `json:"occupied"`
}

func MapCalendar(unitID, unitKey string, occupied []daterange.DateRange) Calendar {
	out := Calendar{UnitID: unitID, UnitKey: unitKey, Occupied: make([]DateRange, 0, len(occupied))}
	for _, r := range occupied {
		out.Occupied = append(out.Occupied, DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut})
	}
	return out
}

// Availability answers whether a candidate range is free on a unit.
type Availability struct {
	UnitID           string     `json:"unit_id"`
	UnitKey          string     `json:"unit_key,omitempty"`
	CheckIn          string     `json:"check_in"`
	CheckOut         string     `json:"check_out"`
	Available        bool       `json:"available"`
	Conflict         *DateRange `json:"conflict,omitempty"`
	ConflictID       string     `json:"conflict_booking_id,omitempty"`
	EarliestCheckout string     `json:"earliest_checkout,omitempty"`
	LatestCheckout   string     `json:"latest_checkout,omitempty"`
}
