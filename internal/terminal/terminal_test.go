package terminal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindRebindsAndClearsStaleSale(t *testing.T) {
	r := NewRegistry()
	maxPct := decimal.NewFromInt(10)

	first := SessionContext{OperatorID: uuid.New(), RegisterNumber: 1, SessionID: uuid.New()}
	term := r.Bind(1, first, maxPct)
	require.NotNil(t, term)
	term.Lock()
	term.Cart.AddOrMerge("1001", "Ground coffee 500g", decimal.NewFromInt(1), decimal.RequireFromString("10.00"))
	term.SaleStarted = true
	term.Unlock()

	second := SessionContext{OperatorID: uuid.New(), RegisterNumber: 1, SessionID: uuid.New()}
	rebound := r.Bind(1, second, maxPct)

	assert.Same(t, term, rebound)
	assert.Equal(t, second.OperatorID, rebound.Session.OperatorID)
	assert.True(t, rebound.Cart.Empty())
	assert.False(t, rebound.SaleStarted)
}

func TestActiveSaleDetection(t *testing.T) {
	r := NewRegistry()
	maxPct := decimal.NewFromInt(10)

	_, busy := r.ActiveSale()
	assert.False(t, busy)

	term := r.Bind(3, SessionContext{OperatorID: uuid.New(), RegisterNumber: 3}, maxPct)
	_, busy = r.ActiveSale()
	assert.False(t, busy)

	term.Lock()
	term.Cart.AddOrMerge("1001", "Ground coffee 500g", decimal.NewFromInt(1), decimal.RequireFromString("10.00"))
	term.Unlock()

	reg, busy := r.ActiveSale()
	assert.True(t, busy)
	assert.Equal(t, 3, reg)
}

func TestResetDropsAllTerminals(t *testing.T) {
	r := NewRegistry()
	maxPct := decimal.NewFromInt(10)
	r.Bind(1, SessionContext{RegisterNumber: 1}, maxPct)
	r.Bind(2, SessionContext{RegisterNumber: 2}, maxPct)

	r.Reset()
	assert.Nil(t, r.Get(1))
	assert.Nil(t, r.Get(2))
}
