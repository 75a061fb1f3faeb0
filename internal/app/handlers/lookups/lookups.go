// Package lookups serves the type-ahead lookups of the booking forms. Each
// session has at most one lookup of a kind in progress; a newer one replaces
// it and the older caller gets lookup.ErrSuperseded.
package lookups

import (
	"context"
	"strings"
	"time"

	"rentals/internal/app/lookup"
	"rentals/internal/app/policies"
	"rentals/internal/app/queries"
)

const (
	validateReferralKey = "lookups.referral"
	suggestLocationsKey = "lookups.locations"
)

// MinLocationQuery is the shortest query sent to the location service.
const MinLocationQuery = 2

type ValidateReferralQuery struct {
	SessionID string
	Code      string
}

func (q ValidateReferralQuery) Key() string { return validateReferralKey }

type SuggestLocationsQuery struct {
	SessionID string
	Query     string
}

func (q SuggestLocationsQuery) Key() string { return suggestLocationsKey }

type ReferralHandler struct {
	debouncer *lookup.Debouncer[policies.Referral]
}

func NewReferralHandler(port policies.ReferralPort, delay time.Duration) *ReferralHandler {
	return &ReferralHandler{debouncer: lookup.NewDebouncer[policies.Referral](delay, port.Validate)}
}

// Handle reports the verdict for the code. An unknown code is not an error:
// it comes back with Valid false and the service's message.
func (h *ReferralHandler) Handle(ctx context.Context, q ValidateReferralQuery) (policies.Referral, error) {
	code := strings.TrimSpace(q.Code)
	if code == "" {
		return policies.Referral{Message: "referral code required"}, nil
	}
	return h.debouncer.Do(ctx, q.SessionID, code)
}

type LocationsHandler struct {
	debouncer *lookup.Debouncer[[]string]
}

func NewLocationsHandler(port policies.LocationPort, delay time.Duration) *LocationsHandler {
	return &LocationsHandler{debouncer: lookup.NewDebouncer[[]string](delay, port.Suggest)}
}

func (h *LocationsHandler) Handle(ctx context.Context, q SuggestLocationsQuery) ([]string, error) {
	query := strings.TrimSpace(q.Query)
	if len([]rune(query)) < MinLocationQuery {
		return []string{}, nil
	}
	return h.debouncer.Do(ctx, q.SessionID, query)
}

var (
	_ queries.Handler[ValidateReferralQuery, policies.Referral] = (*ReferralHandler)(nil)
	_ queries.Handler[SuggestLocationsQuery, []string]          = (*LocationsHandler)(nil)
)
