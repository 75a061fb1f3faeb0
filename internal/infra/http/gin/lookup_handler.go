package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	lookupsapp "rentals/internal/app/handlers/lookups"
	"rentals/internal/app/policies"
	"rentals/internal/app/queries"
)

// LookupHandler serves type-ahead lookups. Clients send a stable
// X-Session-ID so a newer keystroke supersedes the previous request.
type LookupHandler struct {
	Queries queries.Bus
}

func (h LookupHandler) Referral(c *gin.Context) {
	query := lookupsapp.ValidateReferralQuery{SessionID: c.GetHeader(sessionHeader), Code: c.Param("code")}
	result, err := queries.Ask[lookupsapp.ValidateReferralQuery, policies.Referral](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":          result.Code,
		"valid":         result.Valid,
		"percentage":    result.Percentage,
		"referrer_name": result.ReferrerName,
		"message":       result.Message,
	})
}

func (h LookupHandler) Locations(c *gin.Context) {
	query := lookupsapp.SuggestLocationsQuery{SessionID: c.GetHeader(sessionHeader), Query: c.Query("q")}
	result, err := queries.Ask[lookupsapp.SuggestLocationsQuery, []string](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": result})
}

var _ LookupHTTP = LookupHandler{}
