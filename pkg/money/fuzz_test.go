package money_test

import (
	"testing"

	"github.com/amirasaad/treasury/pkg/money"
)

func FuzzParse(f *testing.F) {
	f.Add("0")
	f.Add("100.5")
	f.Add("-0.000000000000000001")
	f.Add("1e10")
	f.Add("abc")
	f.Fuzz(func(t *testing.T, s string) {
		a, err := money.Parse(s)
		if err != nil {
			return
		}
		if a.Decimal().Exponent() < -money.Scale {
			t.Fatalf("more than %d fractional digits kept for %q: %s", money.Scale, s, a)
		}
		if !a.Add(a.Neg()).IsZero() {
			t.Fatalf("a + (-a) != 0 for %q", s)
		}
		back, err := money.Parse(a.String())
		if err != nil || !back.Equal(a) {
			t.Fatalf("round trip failed for %q: %v", s, err)
		}
	})
}
