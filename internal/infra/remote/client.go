// Package remote holds HTTP clients for the referral and location services.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var errNotFound = errors.New("remote: not found")

// client is the shared transport: it waits for the limiter before every
// request and decodes JSON answers.
type client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newClient(baseURL string, timeout time.Duration, rps float64) client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

func (c client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote: http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
