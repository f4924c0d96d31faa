package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InventoryLedger mutates variant stock counters. Both operations run on
// the caller's transaction so a deduction commits or rolls back together
// with the order rows it belongs to.
type InventoryLedger struct{}

// NewInventoryLedger creates a new inventory ledger
func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{}
}

// Deduct decrements a variant's stock by quantity. The conditional update
// never lets stock go negative: when the floor check fails no row is
// touched and InsufficientStockError carries the observed stock.
func (l *InventoryLedger) Deduct(ctx context.Context, q sqlx.ExtContext, variantID int64, quantity int) error {
	if quantity <= 0 {
		return &models.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	res, err := q.ExecContext(ctx,
		"UPDATE product_variants SET stock = stock - $1 WHERE variant_id = $2 AND stock >= $1",
		quantity, variantID)
	if err != nil {
		return fmt.Errorf("failed to deduct stock: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var available int
	err = sqlx.GetContext(ctx, q, &available,
		"SELECT stock FROM product_variants WHERE variant_id = $1", variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.VariantNotFoundError{VariantID: variantID}
	}
	if err != nil {
		return fmt.Errorf("failed to read stock: %w", err)
	}

	return &models.InsufficientStockError{
		VariantID: variantID,
		Requested: quantity,
		Available: available,
	}
}

// Restore increments a variant's stock by quantity, the compensating move
// for Deduct. Used by the configurable cancel-restock policy.
func (l *InventoryLedger) Restore(ctx context.Context, q sqlx.ExtContext, variantID int64, quantity int) error {
	if quantity <= 0 {
		return &models.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	res, err := q.ExecContext(ctx,
		"UPDATE product_variants SET stock = stock + $1 WHERE variant_id = $2",
		quantity, variantID)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &models.VariantNotFoundError{VariantID: variantID}
	}
	return nil
}
