// Package money provides the decimal value used for every monetary field of the treasury.
//
// It is a value object over shopspring/decimal with a fixed contract:
//   - At most Scale (18) fractional digits are ever kept.
//   - Every derived computation that could produce more digits (multiplication,
//     division, parsing) truncates toward zero.
//   - Addition and subtraction are exact.
//
// The contract is part of the type, so there is no package-level precision
// setting that concurrent callers could change under each other.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept by an Amount.
const Scale int32 = 18

// Amount is an arbitrary-precision decimal truncated to Scale fractional digits.
// The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New wraps a decimal, truncating it to Scale.
func New(d decimal.Decimal) Amount {
	return Amount{d: d.Truncate(Scale)}
}

// FromInt returns the amount for a whole number.
func FromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// Parse reads a base-10 string such as "100", "-0.5" or "1e-3".
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return New(d), nil
}

// MustParse is Parse for constants and tests. It panics on malformed input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal exposes the underlying decimal.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Neg returns -a.
func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

// Abs returns |a|.
func (a Amount) Abs() Amount { return Amount{d: a.d.Abs()} }

// Mul returns a * b truncated to Scale.
func (a Amount) Mul(b Amount) Amount { return New(a.d.Mul(b.d)) }

// Div returns a / b truncated toward zero at Scale.
func (a Amount) Div(b Amount) (Amount, error) {
	if b.d.IsZero() {
		return Zero, ErrDivisionByZero
	}
	q, _ := a.d.QuoRem(b.d, Scale)
	return Amount{d: q}, nil
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal reports whether a == b regardless of representation ("1.0" == "1").
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Float64 is a lossy conversion used for ratios and scores only.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// String returns the canonical base-10 form without trailing zeros.
func (a Amount) String() string { return a.d.String() }

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MarshalJSON encodes the amount as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a JSON string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		*a = Zero
		return nil
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value implements driver.Valuer. Amounts are stored as numeric strings.
func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	*a = New(d)
	return nil
}
