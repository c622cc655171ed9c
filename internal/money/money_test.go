package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCeilToCents(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.123", "10.13"},
		{"10.1200001", "10.13"},
		{"10.12", "10.12"},
		{"0", "0"},
		{"0.001", "0.01"},
		{"187.833333", "187.84"},
	}
	for _, tc := range cases {
		got := CeilToCents(decimal.RequireFromString(tc.in))
		require.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"CeilToCents(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestCeilToRupiah(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100.1", 101},
		{"100.0", 100},
		{"100.99", 101},
		{"0", 0},
		{"1760000", 1760000},
		{"193600.0", 193600},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CeilToRupiah(decimal.RequireFromString(tc.in)),
			"CeilToRupiah(%s)", tc.in)
	}
}
