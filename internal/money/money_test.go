package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2.345", "2.35"},
		{"2.344", "2.34"},
		{"-2.345", "-2.35"},
		{"-2.344", "-2.34"},
		{"0.005", "0.01"},
		{"10", "10"},
	}
	for _, c := range cases {
		got := Round2(decimal.RequireFromString(c.in))
		assert.Equal(t, c.want, got.String(), "round(%s)", c.in)
	}
}

func TestPercent(t *testing.T) {
	// 10% of 50.00 = 5.00
	got := Percent(decimal.NewFromInt(50), decimal.NewFromInt(10))
	assert.Equal(t, "5", got.String())

	// 7.5% of 33.33 = 2.499750 → 2.50
	got = Percent(decimal.RequireFromString("33.33"), decimal.RequireFromString("7.5"))
	assert.Equal(t, "2.5", got.String())
}

func TestImpliedPercent(t *testing.T) {
	got := ImpliedPercent(decimal.NewFromInt(5), decimal.NewFromInt(50))
	assert.Equal(t, "10", got.String())

	assert.True(t, ImpliedPercent(decimal.NewFromInt(5), decimal.Zero).IsZero())
}
