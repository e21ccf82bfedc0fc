// Package money converts between stored integer cents and decimal amounts.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseCents parses a decimal major-unit amount ("12.5", "12.50") into cents.
// More than two fractional digits or a negative value is rejected.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errs.Invalid("amount %q is not a number", s)
	}
	if d.IsNegative() {
		return 0, errs.Invalid("amount must not be negative")
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, errs.Invalid("amount %q has more than two decimal places", s)
	}
	return cents.IntPart(), nil
}

// Decimal returns cents as a major-unit decimal.
func Decimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents as "12.50".
func Format(cents int64) string {
	return Decimal(cents).StringFixed(2)
}

// Display renders cents with the currency symbol: "$12.50", or "12.50 EUR"
// for currencies without one.
func Display(cents int64, currency string) string {
	switch strings.ToLower(currency) {
	case "", "usd", "cad", "aud", "nzd":
		if cents < 0 {
			return "-$" + Format(-cents)
		}
		return "$" + Format(cents)
	case "eur":
		return "€" + Format(cents)
	case "gbp":
		return "£" + Format(cents)
	default:
		return fmt.Sprintf("%s %s", Format(cents), strings.ToUpper(currency))
	}
}

// Percent returns part/whole as a percentage rounded to one decimal place,
// or 0 when whole is 0.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	p := decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).Round(1)
	f, _ := p.Float64()
	return f
}

// Cents is an amount in request bodies. A JSON number is taken as cents; a
// JSON string is parsed as a major-unit decimal ("12.50").
type Cents int64

func (c *Cents) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseCents(s)
		if err != nil {
			return err
		}
		*c = Cents(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return errs.Invalid("amount must be whole cents or a decimal string")
	}
	*c = Cents(n)
	return nil
}
