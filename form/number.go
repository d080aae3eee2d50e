package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a numeric form value that may be left empty. The intake form
// submits either a number or an empty string for price, quantity, age and
// visit days.
type Number struct {
	decimal.NullDecimal
}

// Num returns a present Number holding v.
func Num(v int64) Number {
	return Number{decimal.NewNullDecimal(decimal.NewFromInt(v))}
}

// NumFloat returns a present Number holding v.
func NumFloat(v float64) Number {
	return Number{decimal.NewNullDecimal(decimal.NewFromFloat(v))}
}

// NumDecimal returns a present Number holding d.
func NumDecimal(d decimal.Decimal) Number {
	return Number{decimal.NewNullDecimal(d)}
}

// ParseNumber parses s. Empty, whitespace-only and "NaN" inputs yield an
// empty Number.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return Number{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}, fmt.Errorf("form: invalid number %q: %w", s, err)
	}
	return Number{decimal.NewNullDecimal(d)}, nil
}

// IsEmpty reports whether no value was entered.
func (n Number) IsEmpty() bool {
	return !n.Valid
}

// Value returns the number, or zero when empty.
func (n Number) Value() decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}

// String returns the plain decimal representation, or "" when empty.
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return n.Decimal.String()
}

// UnmarshalJSON accepts a number literal, a numeric string, "", "NaN" or null.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("form: invalid number: %w", err)
		}
		v, err := ParseNumber(s)
		if err != nil {
			return err
		}
		*n = v
		return nil
	}
	v, err := ParseNumber(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// MarshalJSON writes empty values as "" and present values as number literals.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte(`""`), nil
	}
	return []byte(n.Decimal.String()), nil
}
