package remote

import (
	"context"
	"errors"
	"net/url"
	"time"

	"rentals/internal/app/policies"
)

// LocationClient suggests place names from GET {base}/places?q=.
type LocationClient struct {
	client
}

func NewLocationClient(baseURL string, timeout time.Duration, rps float64) *LocationClient {
	return &LocationClient{client: newClient(baseURL, timeout, rps)}
}

func (c *LocationClient) Suggest(ctx context.Context, query string) ([]string, error) {
	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.getJSON(ctx, "/places?q="+url.QueryEscape(query), &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	return resp.Suggestions, nil
}

var _ policies.LocationPort = (*LocationClient)(nil)
