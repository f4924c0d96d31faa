package service

import (
	"context"

	"github.com/shopspring/decimal"
)

// VariantPricer resolves the current unit price of a variant. It fails
// with VariantNotFoundError when the variant does not exist.
type VariantPricer interface {
	VariantPrice(ctx context.Context, variantID int64) (decimal.Decimal, error)
}

// PricingEngine computes line and order totals with exact decimal
// arithmetic. It reads catalog state and has no side effects.
type PricingEngine struct{}

// NewPricingEngine creates a new pricing engine
func NewPricingEngine() *PricingEngine {
	return &PricingEngine{}
}

// ComputeTotal resolves each item's unit price through the pricer,
// multiplies by quantity and sums. It returns the order total and the
// per-variant unit prices so callers can snapshot them on order lines.
func (e *PricingEngine) ComputeTotal(ctx context.Context, pricer VariantPricer, items []OrderItemRequest) (decimal.Decimal, map[int64]decimal.Decimal, error) {
	total := decimal.Zero
	unitPrices := make(map[int64]decimal.Decimal, len(items))

	for _, item := range items {
		price, ok := unitPrices[item.VariantID]
		if !ok {
			var err error
			price, err = pricer.VariantPrice(ctx, item.VariantID)
			if err != nil {
				return decimal.Zero, nil, err
			}
			unitPrices[item.VariantID] = price
		}

		subtotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
	}

	return total, unitPrices, nil
}
