package memory

import (
	"context"
	"sort"
	"strings"

	"rentals/internal/app/policies"
)

// StaticReferrals serves referral codes from a fixed table, keyed by the
// upper-cased code. It stands in for the referral service in development.
type StaticReferrals map[string]policies.Referral

func DefaultReferrals() StaticReferrals {
	return StaticReferrals{
		"WELCOME10": {Valid: true, Percentage: 10, ReferrerName: "Rentals"},
		"FRIEND15":  {Valid: true, Percentage: 15, ReferrerName: "A friend"},
	}
}

func (s StaticReferrals) Validate(_ context.Context, code string) (policies.Referral, error) {
	ref, ok := s[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return policies.Referral{Code: code, Message: "referral code not found"}, nil
	}
	ref.Code = code
	return ref, nil
}

// StaticLocations suggests names from a fixed list by case-insensitive prefix.
type StaticLocations []string

func DefaultLocations() StaticLocations {
	return StaticLocations{"Diani", "Kilifi", "Kisumu", "Lamu", "Malindi", "Mombasa", "Naivasha", "Nairobi", "Nakuru", "Nanyuki", "Watamu"}
}

func (s StaticLocations) Suggest(_ context.Context, query string) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []string{}
	for _, name := range s {
		if strings.HasPrefix(strings.ToLower(name), q) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
