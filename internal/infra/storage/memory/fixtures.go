package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	domainbooking "rentals/internal/domain/booking"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

type bookingFixture struct {
	ID        string `json:"id"`
	UnitID    string `json:"unit_id"`
	UnitKind  string `json:"unit_kind"`
	UnitKey   string `json:"unit_key"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	ExtendsID string `json:"extends_id"`
}

// LoadBookingFixtures seeds repo from a JSON array of bookings. A missing
// file is not an error. Invalid entries are logged and skipped.
func LoadBookingFixtures(ctx context.Context, repo *BookingRepository, path string, logger *slog.Logger) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("booking fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []bookingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}

	loaded := 0
	for _, fx := range fixtures {
		b, err := fx.booking()
		if err != nil {
			logger.Error("fixture invalid", "booking_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, b); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

func (fx bookingFixture) booking() (*domainbooking.Booking, error) {
	kind, err := domainbooking.ParseUnitKind(fx.UnitKind)
	if err != nil {
		return nil, err
	}
	in, err := time.Parse(time.DateOnly, fx.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("check_in: %w", err)
	}
	out, err := time.Parse(time.DateOnly, fx.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("check_out: %w", err)
	}
	dr, err := daterange.New(in, out)
	if err != nil {
		return nil, err
	}
	currency := fx.Currency
	if currency == "" {
		currency = "KES"
	}
	total, err := money.New(fx.Amount, currency)
	if err != nil {
		return nil, err
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(fx.ID),
		UnitID:    domainbooking.UnitID(fx.UnitID),
		Kind:      kind,
		UnitKey:   domainbooking.UnitKey(fx.UnitKey),
		Range:     dr,
		Total:     total,
		ExtendsID: domainbooking.BookingID(fx.ExtendsID),
		CreatedAt: in,
	})
	if err != nil {
		return nil, err
	}
	b.ClearEvents()
	switch domainbooking.State(strings.ToUpper(fx.Status)) {
	case domainbooking.StateConfirmed:
		b.State = domainbooking.StateConfirmed
	case domainbooking.StateCancelled:
		b.State = domainbooking.StateCancelled
	}
	return b, nil
}
