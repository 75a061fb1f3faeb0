// Package money holds amounts in integer minor units of an ISO currency.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrNegativeAmount   = errors.New("money: amount cannot be negative")
)

// Money is an amount in minor units (cents, KES cents). Arithmetic results may
// go negative; only constructed prices are required to be non-negative.
type Money struct {
	Amount   int64
	Currency string
}

func normalize(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	return code, nil
}

func New(amount int64, currency string) (Money, error) {
	code, err := normalize(currency)
	if err != nil {
		return Money{}, err
	}
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{Amount: amount, Currency: code}, nil
}

// Must is New for fixtures and tests.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(currency string) Money {
	code, _ := normalize(currency)
	return Money{Currency: code}
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	m.Amount += other.Amount
	return m, nil
}

func (m Money) Sub(other Money) (Money, error) {
	return m.Add(other.Neg())
}

func (m Money) Neg() Money {
	m.Amount = -m.Amount
	return m
}

func (m Money) Multiply(times int64) Money {
	m.Amount *= times
	return m
}

// Percent returns p percent of m, rounded half away from zero.
func (m Money) Percent(p float64) Money {
	m.Amount = int64(math.Round(float64(m.Amount) * p / 100))
	return m
}

func (m Money) IsZero() bool { return m.Amount == 0 }

// String renders "KES 90.00".
func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s %s%d.%02d", m.Currency, sign, amount/100, amount%100)
}

func (m Money) sameCurrency(other Money) error {
	switch {
	case m.Currency == "" || other.Currency == "":
		return ErrInvalidCurrency
	case m.Currency != other.Currency:
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}
