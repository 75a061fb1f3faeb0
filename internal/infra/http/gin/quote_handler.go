package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentals/internal/app/dto"
	quotesapp "rentals/internal/app/handlers/quotes"
	"rentals/internal/app/queries"
)

type QuoteHandler struct {
	Queries  queries.Bus
	Currency string
}

type quoteRequest struct {
	UnitID       string `json:"unit_id" binding:"required"`
	UnitKey      string `json:"unit_key"`
	Rate         Rate   `json:"rate"`
	CheckIn      Date   `json:"check_in"`
	CheckOut     Date   `json:"check_out"`
	ReferralCode string `json:"referral_code"`
}

func (h QuoteHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if !bindJSON(c, &req) {
		return
	}
	rate, err := req.Rate.money(h.Currency)
	if err != nil {
		respondError(c, err)
		return
	}
	query := quotesapp.QuoteStayQuery{
		UnitID:       req.UnitID,
		UnitKey:      req.UnitKey,
		Rate:         rate,
		CheckIn:      req.CheckIn.Time,
		CheckOut:     req.CheckOut.Time,
		ReferralCode: req.ReferralCode,
	}
	result, err := queries.Ask[quotesapp.QuoteStayQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
