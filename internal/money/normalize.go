package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumberFormat signals that a raw numeric field could not be parsed
// after comma/dot normalization.
var ErrInvalidNumberFormat = errors.New("invalid number format")

// Places is the fixed scale applied to every derived monetary or weight value.
const Places int32 = 2

// Parse converts a locale-tolerant numeric string into a decimal. When both
// "." and "," are present, "." is treated as a thousands separator and ","
// as the decimal point. A lone "," is treated as the decimal point.
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty value", ErrInvalidNumberFormat)
	}
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidNumberFormat, raw)
	}
	return d, nil
}

// Round rounds half away from zero at the given number of decimal places.
// Arithmetic is exact on the decimal representation, so Round(0.615, 2) is
// 0.62 and re-rounding an already rounded value is a no-op.
func Round(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

// Round2 rounds to the canonical two decimal places used for weights and amounts.
func Round2(v decimal.Decimal) decimal.Decimal {
	return Round(v, Places)
}

// Value is a decimal that unmarshals from either a JSON number or a
// locale-formatted string ("1.234,56", "12,5", "12.5").
type Value struct {
	decimal.Decimal
}

// NewValue wraps a decimal for use in request/response payloads.
func NewValue(d decimal.Decimal) Value {
	return Value{Decimal: d}
}

// UnmarshalJSON accepts numbers and locale-formatted strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return fmt.Errorf("%w: empty value", ErrInvalidNumberFormat)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidNumberFormat, raw)
		}
		d, err := Parse(s)
		if err != nil {
			return err
		}
		v.Decimal = d
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidNumberFormat, raw)
	}
	v.Decimal = d
	return nil
}

// MarshalJSON renders the value as a fixed two-decimal string so payloads
// never carry binary floating point artifacts.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Decimal.StringFixed(Places))
}
