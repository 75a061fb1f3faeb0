package ginserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentals/internal/domain/shared/money"
)

const sessionHeader = "X-Session-ID"

var errBadRequest = errors.New("bad request")

// Date accepts a calendar date or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", errBadRequest, raw)
}

// Rate is a per-unit price in minor units.
type Rate struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (r Rate) money(fallback string) (money.Money, error) {
	cur := r.Currency
	if cur == "" {
		cur = fallback
	}
	return money.New(r.Amount, cur)
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func generateCommandID() string {
	return uuid.NewString()
}
