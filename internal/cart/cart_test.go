package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLedger() *Ledger { return New(decimal.NewFromInt(10)) } // 10% cap

func TestAddOrMerge_NewLine(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("25.00"))

	assert.Equal(t, 1, ln.Sequence)
	assert.Equal(t, "50", ln.Gross.String())
	assert.Equal(t, "50", ln.Total.String())
	assert.False(t, ln.Cancellation)
}

func TestAddOrMerge_MergesSameCode(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("25.00"))
	ln := l.AddOrMerge("1001", "Mineral water 500ml", d("3"), d("25.00"))

	assert.Equal(t, "5", ln.Quantity.String())
	assert.Equal(t, "125", ln.Total.String())
	assert.Len(t, l.Lines(), 1)
}

func TestAddOrMerge_CoercesNonPositiveQuantity(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("1002", "Soda 1.5L", d("0"), d("8.90"))
	assert.Equal(t, "1", ln.Quantity.String())

	ln2 := l.AddOrMerge("1003", "Juice 1L", d("-4"), d("5.00"))
	assert.Equal(t, "1", ln2.Quantity.String())
}

func TestItemDiscount_Percent(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("25.00"))

	err := l.ApplyItemDiscount(ln.Sequence, DiscountPercent, d("10"), "manager promo")
	require.NoError(t, err)

	assert.Equal(t, "5", ln.Discount.String())
	assert.Equal(t, "45", ln.Total.String())
	assert.Equal(t, "10", ln.DiscountPercent.String())
}

func TestItemDiscount_PercentOverCapRejected(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("25.00"))

	err := l.ApplyItemDiscount(ln.Sequence, DiscountPercent, d("15"), "too much")
	require.Error(t, err)
	assert.Equal(t, apperr.Policy, apperr.KindOf(err))
	// Nothing mutated
	assert.Equal(t, "50", ln.Total.String())
	assert.True(t, ln.Discount.IsZero())
}

func TestItemDiscount_AbsoluteCappedByPercent(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("2001", "Olive oil 500ml", d("1"), d("40.00"))

	// Cap at 10% of 40.00 = 4.00
	err := l.ApplyItemDiscount(ln.Sequence, DiscountAbsolute, d("4.01"), "x")
	assert.Equal(t, apperr.Policy, apperr.KindOf(err))

	err = l.ApplyItemDiscount(ln.Sequence, DiscountAbsolute, d("4.00"), "loyalty")
	require.NoError(t, err)
	assert.Equal(t, "36", ln.Total.String())
	assert.Equal(t, "10", ln.DiscountPercent.String())
}

func TestItemDiscount_OnCancellationRejected(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("25.00"))
	cn, err := l.CancelQuantity("1001", "Mineral water 500ml", d("1"), d("25.00"))
	require.NoError(t, err)

	err = l.ApplyItemDiscount(cn.Sequence, DiscountPercent, d("5"), "x")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestCancelQuantity_NegativeLine(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("3"), d("25.00"))
	cn, err := l.CancelQuantity("1001", "Mineral water 500ml", d("2"), d("25.00"))
	require.NoError(t, err)

	assert.True(t, cn.Cancellation)
	assert.Equal(t, "-2", cn.Quantity.String())
	assert.Equal(t, "-50", cn.Total.String())
	assert.True(t, cn.Discount.IsZero())
}

func TestCancelQuantity_ProportionalDiscountUnwind(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("1001", "Mineral water 500ml", d("4"), d("25.00"))
	// 10% of 100.00 = 10.00 discount across 4 units → 2.50 per unit
	require.NoError(t, l.ApplyItemDiscount(ln.Sequence, DiscountPercent, d("10"), "promo"))

	_, err := l.CancelQuantity("1001", "Mineral water 500ml", d("1"), d("25.00"))
	require.NoError(t, err)

	// Discount reduced by round(10.00/4 × 1, 2) = 2.50
	assert.Equal(t, "7.5", ln.Discount.String())
	assert.Equal(t, "92.5", ln.Total.String())
}

func TestCancelQuantity_DiscountFlooredAtZero(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("3001", "Chocolate bar", d("2"), d("10.00"))
	require.NoError(t, l.ApplyItemDiscount(ln.Sequence, DiscountAbsolute, d("1.99"), "promo"))

	// Cancel both units — per-unit reduction 2×round(1.99/2,2) = 2.00 > 1.99
	_, err := l.CancelQuantity("3001", "Chocolate bar", d("2"), d("10.00"))
	require.NoError(t, err)
	assert.False(t, ln.Discount.IsNegative())
	assert.True(t, ln.Discount.IsZero())
}

func TestCancelQuantity_ZeroRejected(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("1"), d("25.00"))
	_, err := l.CancelQuantity("1001", "Mineral water 500ml", d("0"), d("25.00"))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestTotals_Breakdown(t *testing.T) {
	l := newLedger()
	a := l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("25.00")) // 50.00
	l.AddOrMerge("1002", "Soda 1.5L", d("1"), d("8.90"))                // 8.90
	require.NoError(t, l.ApplyItemDiscount(a.Sequence, DiscountPercent, d("10"), "promo"))
	_, err := l.CancelQuantity("1002", "Soda 1.5L", d("1"), d("8.90"))
	require.NoError(t, err)

	tt := l.Totals()
	assert.Equal(t, "58.9", tt.Subtotal.String())
	assert.Equal(t, "5", tt.ItemDiscounts.String())
	assert.Equal(t, "-8.9", tt.Cancellations.String())
	// net = 58.90 − 5.00 − 8.90 = 45.00
	assert.Equal(t, "45", tt.Net.String())
}

func TestSaleDiscount_PercentRecomputedAgainstNet(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("50.00")) // net 100.00
	require.NoError(t, l.ApplySaleDiscount(DiscountPercent, d("10"), "store closing")) // 10.00

	assert.Equal(t, "10", l.SaleDiscountAmount().String())
	assert.Equal(t, "90", l.FinalTotal().String())

	// Add another line — percent discount follows the new net
	l.AddOrMerge("1002", "Soda 1.5L", d("1"), d("50.00"))
	assert.Equal(t, "15", l.SaleDiscountAmount().String())
	assert.Equal(t, "135", l.FinalTotal().String())
}

func TestSaleDiscount_AbsoluteOverTotalRejected(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("1"), d("50.00"))

	err := l.ApplySaleDiscount(DiscountAbsolute, d("60.00"), "x")
	assert.Equal(t, apperr.Policy, apperr.KindOf(err))
}

func TestSaleDiscount_AbsoluteImpliedPercentOverCapRejected(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("1"), d("50.00"))

	// 6.00 of 50.00 = 12% > 10% cap
	err := l.ApplySaleDiscount(DiscountAbsolute, d("6.00"), "x")
	assert.Equal(t, apperr.Policy, apperr.KindOf(err))

	require.NoError(t, l.ApplySaleDiscount(DiscountAbsolute, d("5.00"), "ok"))
	assert.Equal(t, "45", l.FinalTotal().String())
}

func TestSaleDiscount_AbsoluteReclampedAfterCancellation(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("2"), d("50.00"))

	// 10.00 of 100.00 is exactly the 10% cap.
	require.NoError(t, l.ApplySaleDiscount(DiscountAbsolute, d("10.00"), "bulk deal"))
	assert.Equal(t, "10", l.SaleDiscountAmount().String())

	// Cancelling one unit halves the net; the stored absolute value must be
	// re-clamped to 10% of the new net, not carried over at 20%.
	_, err := l.CancelQuantity("1001", "Mineral water 500ml", d("1"), d("50.00"))
	require.NoError(t, err)

	assert.Equal(t, "5", l.SaleDiscountAmount().String())
	assert.Equal(t, "45", l.FinalTotal().String())
}

func TestAvailableQuantity(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("5"), d("25.00"))
	_, err := l.CancelQuantity("1001", "Mineral water 500ml", d("2"), d("25.00"))
	require.NoError(t, err)

	assert.Equal(t, "3", l.AvailableQuantity("1001").String())
}

func TestClear(t *testing.T) {
	l := newLedger()
	l.AddOrMerge("1001", "Mineral water 500ml", d("1"), d("25.00"))
	require.NoError(t, l.ApplySaleDiscount(DiscountPercent, d("5"), "x"))

	l.Clear()
	assert.True(t, l.Empty())
	assert.True(t, l.SaleDiscountAmount().IsZero())
	// Sequences restart
	ln := l.AddOrMerge("1002", "Soda 1.5L", d("1"), d("8.90"))
	assert.Equal(t, 1, ln.Sequence)
}

func TestLineInvariant_TotalEqualsRoundedFormula(t *testing.T) {
	l := newLedger()
	ln := l.AddOrMerge("4001", "Cheese by weight", d("0.335"), d("49.90"))
	require.NoError(t, l.ApplyItemDiscount(ln.Sequence, DiscountPercent, d("7"), "promo"))

	want := ln.UnitPrice.Mul(ln.Quantity).Sub(ln.Discount).Round(2)
	assert.True(t, ln.Total.Equal(want), "total %s != %s", ln.Total, want)
}
