package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is a fixed-point amount held to exactly two decimal places.
type Money struct {
	decimal.Decimal
}

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// MaxMoney is the largest amount a NUMERIC(12,2) column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// ParseMoney parses a decimal string such as "2500" or "2500.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// String always renders two fractional digits.
func (m Money) String() string {
	return m.StringFixed(2)
}

// FormatUSD renders the amount with thousands separators, e.g. $2,000.00.
func (m Money) FormatUSD() string {
	fixed := m.Abs().StringFixed(2)
	_, frac, _ := strings.Cut(fixed, ".")
	sign := ""
	if m.IsNegative() {
		sign = "-"
	}
	return sign + "$" + usdPrinter.Sprintf("%d", m.Abs().IntPart()) + "." + frac
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both JSON numbers and numeric strings. The value is kept
// unrounded so validation can reject sub-cent input.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*m = Money{Decimal: d}
	return nil
}

// WholeCents reports whether the amount needs no rounding to two places.
func (m Money) WholeCents() bool {
	return m.Equal(m.Round(2))
}

func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}
