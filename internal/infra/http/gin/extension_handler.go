package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentals/internal/app/commands"
	"rentals/internal/app/dto"
	extensionapp "rentals/internal/app/handlers/extension"
	"rentals/internal/app/queries"
)

type ExtensionHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Currency string
}

// extensionRequest leaves unit_key out to keep the booked unit.
type extensionRequest struct {
	NewEnd       Date    `json:"new_end"`
	UnitKey      *string `json:"unit_key"`
	Rate         Rate    `json:"rate"`
	ReferralCode string  `json:"referral_code"`
}

func (h ExtensionHandler) request(c *gin.Context) (extensionapp.Request, bool) {
	var req extensionRequest
	if !bindJSON(c, &req) {
		return extensionapp.Request{}, false
	}
	rate, err := req.Rate.money(h.Currency)
	if err != nil {
		respondError(c, err)
		return extensionapp.Request{}, false
	}
	return extensionapp.Request{
		BookingID:    c.Param("id"),
		NewEnd:       req.NewEnd.Time,
		UnitKey:      req.UnitKey,
		Rate:         rate,
		ReferralCode: req.ReferralCode,
	}, true
}

func (h ExtensionHandler) Plan(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	result, err := queries.Ask[extensionapp.PlanExtensionQuery, dto.ExtensionPlan](c.Request.Context(), h.Queries, extensionapp.PlanExtensionQuery{Request: req})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ExtensionHandler) Submit(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	cmd := extensionapp.SubmitExtensionCommand{
		Request:         req,
		CommandID:       generateCommandID(),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[extensionapp.SubmitExtensionCommand, *dto.ExtensionSubmission](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ ExtensionHTTP = ExtensionHandler{}
