package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/money"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"thousands dot decimal comma", "1.234,56", "1234.56"},
		{"decimal comma", "12,5", "12.5"},
		{"decimal dot", "12.5", "12.5"},
		{"plain integer", "42", "42"},
		{"negative comma", "-3,75", "-3.75"},
		{"surrounding spaces", "  7,25  ", "7.25"},
		{"multiple thousands groups", "1.234.567,89", "1234567.89"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := money.Parse(tc.raw)
			require.NoError(t, err)
			require.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "12,3,4", "1.2.3", "12..5"} {
		t.Run(raw, func(t *testing.T) {
			_, err := money.Parse(raw)
			require.ErrorIs(t, err, money.ErrInvalidNumberFormat)
		})
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.615", "0.62"},
		{"1.005", "1.01"},
		{"19.999", "20.00"},
		{"-0.615", "-0.62"},
		{"2.344", "2.34"},
		{"2.345", "2.35"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := money.Round2(decimal.RequireFromString(tc.in))
			require.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestRoundIdempotent(t *testing.T) {
	for _, raw := range []string{"0.615", "1.005", "12.345", "99.99", "-7.005"} {
		once := money.Round2(decimal.RequireFromString(raw))
		twice := money.Round2(once)
		require.True(t, once.Equal(twice), "round(%s) not idempotent: %s vs %s", raw, once, twice)
	}
}

func TestValueUnmarshal(t *testing.T) {
	var payload struct {
		Weight money.Value `json:"weight"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"weight":"1.234,56"}`), &payload))
	require.Equal(t, "1234.56", payload.Weight.StringFixed(2))

	require.NoError(t, json.Unmarshal([]byte(`{"weight":2.5}`), &payload))
	require.Equal(t, "2.50", payload.Weight.StringFixed(2))

	err := json.Unmarshal([]byte(`{"weight":"abc"}`), &payload)
	require.ErrorIs(t, err, money.ErrInvalidNumberFormat)

	err = json.Unmarshal([]byte(`{"weight":null}`), &payload)
	require.ErrorIs(t, err, money.ErrInvalidNumberFormat)
}

func TestValueMarshalFixedPrecision(t *testing.T) {
	v := money.NewValue(decimal.RequireFromString("19.9"))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `"19.90"`, string(data))
}
