package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentals/internal/app/dto"
	availabilityapp "rentals/internal/app/handlers/availability"
	"rentals/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

// Check answers whether [check_in, check_out) is free on the unit.
func (h AvailabilityHandler) Check(c *gin.Context) {
	checkIn, err := parseDate(c.Query("check_in"))
	if err != nil {
		respondError(c, err)
		return
	}
	checkOut, err := parseDate(c.Query("check_out"))
	if err != nil {
		respondError(c, err)
		return
	}
	query := availabilityapp.CheckRangeQuery{
		UnitID:           c.Param("unit"),
		UnitKey:          c.Query("unit_key"),
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		ExcludeBookingID: c.Query("exclude"),
	}
	result, err := queries.Ask[availabilityapp.CheckRangeQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetCalendarQuery{UnitID: c.Param("unit"), UnitKey: c.Query("unit_key")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
