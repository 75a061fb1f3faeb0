package dto

type ExtensionPlan struct {
	BookingID  string `json:"booking_id"`
	UnitKey    string `json:"unit_key,omitempty"`
	AnchorDate string `json:"anchor_date"`
	NewEnd     string `json:"new_end"`
	State      string `json:"state"`
	LatestEnd  string `json:"latest_end,omitempty"`
	Quote      Quote  `json:"quote"`
}

type ExtensionSubmission struct {
	BookingID         string   `json:"booking_id"`
	OriginalBookingID string   `json:"original_booking_id"`
	UnitKey           string   `json:"unit_key,omitempty"`
	AnchorDate        string   `json:"anchor_date"`
	NewEnd            string   `json:"new_end"`
	FinalAmount       MoneyDTO `json:"final_amount"`
}
