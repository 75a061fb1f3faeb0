package policies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type referralFunc func(ctx context.Context, code string) (Referral, error)

func (f referralFunc) Validate(ctx context.Context, code string) (Referral, error) { return f(ctx, code) }

func TestResolveReferral(t *testing.T) {
	port := referralFunc(func(_ context.Context, code string) (Referral, error) {
		if code == "FRIEND10" {
			return Referral{Code: code, Valid: true, Percentage: 10, ReferrerName: "Amina"}, nil
		}
		return Referral{Code: code, Message: "unknown code"}, nil
	})

	ref, err := ResolveReferral(context.Background(), port, "  ")
	require.NoError(t, err)
	assert.Zero(t, ref.Percentage)

	ref, err = ResolveReferral(context.Background(), port, "FRIEND10")
	require.NoError(t, err)
	assert.Equal(t, 10.0, ref.Percentage)

	ref, err = ResolveReferral(context.Background(), port, "NOPE")
	require.ErrorIs(t, err, ErrInvalidReferral)
	assert.Equal(t, "unknown code", ref.Message)

	_, err = ResolveReferral(context.Background(), nil, "FRIEND10")
	require.ErrorIs(t, err, ErrReferralUnavailable)
}
