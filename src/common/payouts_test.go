package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCommissionAmount(t *testing.T) {
	cases := []struct {
		subtotal float64
		rate     float32
		want     string
	}{
		{100.00, 0.10, "10.00"},
		{25.50, 0.15, "3.82"},
		{0.01, 0.10, "0.00"},
		{199.99, 0.075, "15.00"},
		{100.00, 0, "0.00"},
	}
	for _, c := range cases {
		got := CommissionAmount(c.subtotal, c.rate)
		want, _ := decimal.NewFromString(c.want)
		assert.True(t, got.Equal(want), "subtotal=%v rate=%v got=%s want=%s", c.subtotal, c.rate, got, want)
	}
}

func TestCommissionAmountIsExact(t *testing.T) {
	// 0.1 + 0.2 style float drift must not leak into payout amounts
	got := CommissionAmount(0.30, 1.0)
	assert.Equal(t, "0.30", got.StringFixed(2))
}
