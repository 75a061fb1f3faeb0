package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentals/internal/app/commands"
	bookingapp "rentals/internal/app/handlers/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Currency string
}

type createBookingRequest struct {
	UnitID       string `json:"unit_id" binding:"required"`
	UnitKind     string `json:"unit_kind"`
	UnitKey      string `json:"unit_key"`
	Rate         Rate   `json:"rate"`
	CheckIn      Date   `json:"check_in"`
	CheckOut     Date   `json:"check_out"`
	ReferralCode string `json:"referral_code"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	rate, err := req.Rate.money(h.Currency)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		UnitID:          req.UnitID,
		UnitKind:        req.UnitKind,
		UnitKey:         req.UnitKey,
		Rate:            rate,
		CheckIn:         req.CheckIn.Time,
		CheckOut:        req.CheckOut.Time,
		ReferralCode:    req.ReferralCode,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ BookingHTTP = BookingHandler{}
