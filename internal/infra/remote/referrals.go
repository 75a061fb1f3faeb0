package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"rentals/internal/app/policies"
)

// ReferralClient validates codes against GET {base}/referrals/{code}.
// A 404 is an unknown code, not an outage.
type ReferralClient struct {
	client
}

func NewReferralClient(baseURL string, timeout time.Duration, rps float64) *ReferralClient {
	return &ReferralClient{client: newClient(baseURL, timeout, rps)}
}

// referralResponse is {valid, user: {name}, message}. percentage is an
// addition to that shape; services that omit it grant no discount.
type referralResponse struct {
	Valid bool `json:"valid"`
	User  struct {
		Name string `json:"name"`
	} `json:"user"`
	Message    string  `json:"message"`
	Percentage float64 `json:"percentage"`
}

func (c *ReferralClient) Validate(ctx context.Context, code string) (policies.Referral, error) {
	var resp referralResponse
	err := c.getJSON(ctx, "/referrals/"+url.PathEscape(code), &resp)
	switch {
	case errors.Is(err, errNotFound):
		return policies.Referral{Code: code, Message: "referral code not found"}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return policies.Referral{}, err
	case err != nil:
		return policies.Referral{}, fmt.Errorf("%w: %v", policies.ErrReferralUnavailable, err)
	}
	return policies.Referral{
		Code:         code,
		Valid:        resp.Valid,
		Percentage:   resp.Percentage,
		ReferrerName: resp.User.Name,
		Message:      resp.Message,
	}, nil
}

var _ policies.ReferralPort = (*ReferralClient)(nil)
