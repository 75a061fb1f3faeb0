package policies

import (
	"context"
	"errors"
	"strings"
)

var ErrReferralUnavailable = errors.New("policies: referral service unavailable")

// Referral is the verdict of the referral service on a code.
type Referral struct {
	Code         string  `json:"code"`
	Valid        bool    `json:"valid"`
	Percentage   float64 `json:"percentage"`
	ReferrerName string  `json:"referrer_name,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// ReferralPort validates referral codes against the remote referral service.
type ReferralPort interface {
	Validate(ctx context.Context, code string) (Referral, error)
}

var ErrInvalidReferral = errors.New("policies: referral code is not valid")

// ResolveReferral turns an optional code into a referral. An empty code is a
// zero-percent referral and never reaches the port.
func ResolveReferral(ctx context.Context, port ReferralPort, code string) (Referral, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Referral{Valid: true}, nil
	}
	if port == nil {
		return Referral{}, ErrReferralUnavailable
	}
	ref, err := port.Validate(ctx, code)
	if err != nil {
		return Referral{}, err
	}
	if !ref.Valid {
		return ref, ErrInvalidReferral
	}
	return ref, nil
}
