package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

func TestPriceLookup(t *testing.T) {
	repo := newStubProductRepo(
		&model.Product{Code: "1001", Description: "Ground coffee 500g", UnitPrice: dec("10.00"), Active: true},
		&model.Product{Code: "3003", Description: "Discontinued item", UnitPrice: dec("1.00"), Active: false},
	)
	svc := NewCatalogService(repo, nil)

	resp, err := svc.PriceLookup(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "Ground coffee 500g", resp.Description)
	assert.True(t, resp.UnitPrice.Equal(dec("10.00")))

	// Unknown and inactive codes look the same to the till.
	_, err = svc.PriceLookup(context.Background(), "9999")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = svc.PriceLookup(context.Background(), "3003")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
