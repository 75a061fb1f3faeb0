package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentals/internal/app/commands"
	extensionapp "rentals/internal/app/handlers/extension"
	"rentals/internal/app/lookup"
	"rentals/internal/app/policies"
	"rentals/internal/app/queries"
	"rentals/internal/app/uow"
	"rentals/internal/domain/booking"
	"rentals/internal/domain/extension"
	"rentals/internal/domain/pricing"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Range     string `json:"range,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
}

// respondError maps application errors to HTTP statuses. Violations keep
// their kind and offending range so the client can highlight the dates.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	if v, ok := booking.AsViolation(err); ok {
		status := http.StatusUnprocessableEntity
		if v.Kind == booking.ViolationBookingConflict || v.Kind == booking.ViolationUnitUnavailableForDates {
			status = http.StatusConflict
		}
		c.JSON(status, errorBody{
			Error:     v.Error(),
			Kind:      string(v.Kind),
			Range:     v.Range.String(),
			BookingID: string(v.BookingID),
		})
		return
	}
	c.JSON(statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, lookup.ErrSuperseded),
		errors.Is(err, uow.ErrConflict),
		errors.Is(err, extension.ErrInvalidTransition),
		errors.Is(err, extension.ErrOriginalCancelled):
		return http.StatusConflict
	case errors.Is(err, booking.ErrCheckInInPast),
		errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, booking.ErrCarVariation),
		errors.Is(err, booking.ErrInvalidKind),
		errors.Is(err, booking.ErrUnitRequired),
		errors.Is(err, policies.ErrInvalidReferral),
		errors.Is(err, pricing.ErrCurrencyUnset),
		errors.Is(err, pricing.ErrNegativeRate),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrNegativeAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, policies.ErrReferralUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, commands.ErrInvalidCommand),
		errors.Is(err, queries.ErrInvalidQuery),
		errors.Is(err, extensionapp.ErrBookingRequired),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, commands.ErrNilBus),
		errors.Is(err, queries.ErrNilBus):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
