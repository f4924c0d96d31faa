package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertOrder inserts a new order inside the caller's transaction.
func (s *Store) InsertOrder(ctx context.Context, q sqlx.ExtContext, order *models.Order) error {
	query := `
		INSERT INTO orders (client_id, shipper_id, status, payment_method, total_amount, delivery_token, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING order_id, created_at, updated_at`

	row := q.QueryRowxContext(ctx, query,
		order.ClientID, order.ShipperID, order.Status, order.PaymentMethod,
		order.TotalAmount, order.DeliveryToken, order.IdempotencyKey)
	return row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// InsertOrderLine inserts an order line inside the caller's transaction.
func (s *Store) InsertOrderLine(ctx context.Context, q sqlx.ExtContext, line *models.OrderLine) error {
	query := `
		INSERT INTO order_lines (order_id, variant_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING line_id`

	row := q.QueryRowxContext(ctx, query,
		line.OrderID, line.VariantID, line.Quantity, line.UnitPrice)
	return row.Scan(&line.ID)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.OrderNotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderForUpdate retrieves an order inside the caller's transaction,
// row-locked so concurrent transitions serialize.
func (s *Store) GetOrderForUpdate(ctx context.Context, q sqlx.ExtContext, orderID int64) (*models.Order, error) {
	var order models.Order
	err := sqlx.GetContext(ctx, q, &order, "SELECT * FROM orders WHERE order_id = $1 FOR UPDATE", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.OrderNotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key.
// Returns (nil, nil) when no order carries the key.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus sets the order status inside the caller's transaction.
func (s *Store) UpdateOrderStatus(ctx context.Context, q sqlx.ExtContext, orderID int64, status models.OrderStatus) (time.Time, error) {
	var updatedAt time.Time
	row := q.QueryRowxContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE order_id = $2 RETURNING updated_at",
		status, orderID)
	if err := row.Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, &models.OrderNotFoundError{OrderID: orderID}
		}
		return time.Time{}, err
	}
	return updatedAt, nil
}

// GetOrderLines retrieves the raw lines of an order inside the caller's
// transaction.
func (s *Store) GetOrderLines(ctx context.Context, q sqlx.ExtContext, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := sqlx.SelectContext(ctx, q, &lines,
		"SELECT * FROM order_lines WHERE order_id = $1 ORDER BY line_id", orderID)
	return lines, err
}

const orderLineDetailQuery = `
	SELECT l.variant_id, p.sku, p.product_name, v.size, v.color, l.quantity, l.unit_price
	FROM order_lines l
	JOIN product_variants v ON v.variant_id = l.variant_id
	JOIN products p ON p.product_id = v.product_id
	WHERE l.order_id = $1
	ORDER BY l.line_id`

// GetOrderLineDetails retrieves the lines of an order joined with variant
// display info.
func (s *Store) GetOrderLineDetails(ctx context.Context, orderID int64) ([]models.OrderLineDetail, error) {
	var lines []models.OrderLineDetail
	err := s.db.SelectContext(ctx, &lines, orderLineDetailQuery, orderID)
	return lines, err
}

// DeleteOrder hard-deletes an order and its lines inside the caller's
// transaction. No stock is restored.
func (s *Store) DeleteOrder(ctx context.Context, q sqlx.ExtContext, orderID int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM order_lines WHERE order_id = $1", orderID); err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, "DELETE FROM orders WHERE order_id = $1", orderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &models.OrderNotFoundError{OrderID: orderID}
	}
	return nil
}

// InsertOrderEvent appends a row to the order status-history trail.
func (s *Store) InsertOrderEvent(ctx context.Context, orderID int64, eventType string, occurredAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO order_events (order_id, event_type, occurred_at) VALUES ($1, $2, $3)",
		orderID, eventType, occurredAt)
	return err
}

// GetOrderEvents retrieves the status-history trail for an order.
func (s *Store) GetOrderEvents(ctx context.Context, orderID int64) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM order_events WHERE order_id = $1 ORDER BY occurred_at", orderID)
	return events, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
