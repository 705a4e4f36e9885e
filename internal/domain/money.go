package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money is an immutable monetary amount in a single currency, rounded to two
// decimal places. The zero value is not a valid Money; use NewMoney.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates and normalises the amount and currency code. Negative
// amounts and currency codes that are not exactly three letters are rejected.
func NewMoney(amount float64, currency string) (Money, error) {
	return NewMoneyFromDecimal(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromDecimal builds a Money from an exact decimal amount.
func NewMoneyFromDecimal(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must not be negative, got %s", ErrValidation, amount)
	}
	code, err := normaliseCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount.Round(moneyScale), currency: code}, nil
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) (Money, error) {
	return NewMoneyFromDecimal(decimal.Zero, currency)
}

// Amount returns the decimal amount, already rounded to two places.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the upper-case three-letter currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the Money is the uninitialised zero value or a zero
// amount.
func (m Money) IsZero() bool { return m.currency == "" || m.amount.IsZero() }

// MinorUnits returns the amount expressed in minor units (e.g. cents), the
// representation payment providers expect.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(moneyScale).IntPart()
}

// Add returns the sum of two amounts in the same currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount).Round(moneyScale), currency: m.currency}, nil
}

// Subtract returns the difference of two amounts in the same currency. A
// negative result is rejected.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	result := m.amount.Sub(other.amount).Round(moneyScale)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("%w: subtraction of %s from %s would be negative", ErrValidation, other, m)
	}
	return Money{amount: result, currency: m.currency}, nil
}

// Multiply scales the amount by a non-negative factor.
func (m Money) Multiply(factor float64) (Money, error) {
	if factor < 0 {
		return Money{}, fmt.Errorf("%w: multiplication factor must not be negative, got %v", ErrValidation, factor)
	}
	return Money{
		amount:   m.amount.Mul(decimal.NewFromFloat(factor)).Round(moneyScale),
		currency: m.currency,
	}, nil
}

// Equal reports value equality of amount and currency.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders the amount with two decimals followed by the currency code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(moneyScale), m.currency)
}

func (m Money) requireSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: currency mismatch between %s and %s", ErrValidation, m.currency, other.currency)
	}
	return nil
}

func normaliseCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency must be a three-letter code, got %q", ErrValidation, currency)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency must be a three-letter code, got %q", ErrValidation, currency)
		}
	}
	return code, nil
}
