package models

import "time"

// Event types
const (
	EventTypeOrderPlaced    = "ORDER_PLACED"
	EventTypeOrderConfirmed = "ORDER_CONFIRMED"
	EventTypeOrderShipped   = "ORDER_SHIPPED"
	EventTypeOrderDelivered = "ORDER_DELIVERED"
	EventTypeOrderCanceled  = "ORDER_CANCELED"
	EventTypeOrderDeleted   = "ORDER_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when an order is created and stock deducted
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	ClientID    int64           `json:"client_id"`
	TotalAmount string          `json:"total_amount"`
	TokenIssued bool            `json:"token_issued"`
	Lines       []OrderLineData `json:"lines"`
}

// OrderStatusEvent published on every status transition
type OrderStatusEvent struct {
	BaseEvent
	OrderID int64       `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

// OrderDeletedEvent published when an order is hard-deleted
type OrderDeletedEvent struct {
	BaseEvent
	OrderID int64 `json:"order_id"`
}

// OrderLineData represents line data in events
type OrderLineData struct {
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}
