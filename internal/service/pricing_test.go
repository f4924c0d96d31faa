package service

import (
	"context"
	"errors"
	"testing"

	"fulfillment-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPricer map[int64]string

func (p stubPricer) VariantPrice(_ context.Context, variantID int64) (decimal.Decimal, error) {
	s, ok := p[variantID]
	if !ok {
		return decimal.Zero, &models.VariantNotFoundError{VariantID: variantID}
	}
	return decimal.RequireFromString(s), nil
}

func TestComputeTotal(t *testing.T) {
	engine := NewPricingEngine()
	pricer := stubPricer{1: "50.00", 2: "19.99"}

	items := []OrderItemRequest{
		{VariantID: 1, Quantity: 3},
		{VariantID: 2, Quantity: 2},
	}

	total, unitPrices, err := engine.ComputeTotal(context.Background(), pricer, items)
	require.NoError(t, err)

	assert.True(t, total.Equal(decimal.RequireFromString("189.98")), "got %s", total)
	assert.True(t, unitPrices[1].Equal(decimal.RequireFromString("50.00")))
	assert.True(t, unitPrices[2].Equal(decimal.RequireFromString("19.99")))
}

// Repeated sums of a cent value must not drift the way binary floats do.
func TestComputeTotalNoRoundingDrift(t *testing.T) {
	engine := NewPricingEngine()
	pricer := stubPricer{7: "0.10"}

	items := []OrderItemRequest{{VariantID: 7, Quantity: 3}}

	total, _, err := engine.ComputeTotal(context.Background(), pricer, items)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("0.30")), "got %s", total)
}

func TestComputeTotalUnknownVariant(t *testing.T) {
	engine := NewPricingEngine()
	pricer := stubPricer{1: "50.00"}

	items := []OrderItemRequest{
		{VariantID: 1, Quantity: 1},
		{VariantID: 99, Quantity: 1},
	}

	_, _, err := engine.ComputeTotal(context.Background(), pricer, items)
	require.Error(t, err)

	var notFound *models.VariantNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, int64(99), notFound.VariantID)
}

func TestComputeTotalEmptyItems(t *testing.T) {
	engine := NewPricingEngine()

	total, unitPrices, err := engine.ComputeTotal(context.Background(), stubPricer{}, nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.Empty(t, unitPrices)
}
