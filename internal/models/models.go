package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a base product in the catalog
type Product struct {
	ID        int64     `db:"product_id" json:"product_id"`
	SKU       string    `db:"sku" json:"sku"`
	Name      string    `db:"product_name" json:"product_name"`
	Brand     *string   `db:"brand" json:"brand,omitempty"`
	Available bool      `db:"available" json:"available"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProductVariant is a sellable configuration (size/color) of a base product
// with its own stock and price. (product_id, size, color) is unique and
// stock never goes below zero.
type ProductVariant struct {
	ID        int64           `db:"variant_id" json:"variant_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Size      *string         `db:"size" json:"size,omitempty"`
	Color     string          `db:"color" json:"color"`
	Stock     int             `db:"stock" json:"stock"`
	Price     decimal.Decimal `db:"price" json:"price"`
}

// VariantDetail is a variant joined with its base product display fields.
type VariantDetail struct {
	VariantID   int64           `db:"variant_id" json:"variant_id"`
	ProductID   int64           `db:"product_id" json:"product_id"`
	SKU         string          `db:"sku" json:"sku"`
	ProductName string          `db:"product_name" json:"product_name"`
	Size        *string         `db:"size" json:"size,omitempty"`
	Color       string          `db:"color" json:"color"`
	Stock       int             `db:"stock" json:"stock"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

// Shipper represents a delivery partner
type Shipper struct {
	ID      int64   `db:"shipper_id" json:"shipper_id"`
	Name    string  `db:"shipper_name" json:"shipper_name"`
	Email   string  `db:"shipper_email" json:"shipper_email"`
	Contact *string `db:"shipper_contact" json:"shipper_contact,omitempty"`
}

// Order represents a purchase. The total is captured at creation time and
// the delivery token is present only when the total exceeded the configured
// threshold. Status moves only through the transition table in status.go.
type Order struct {
	ID             int64           `db:"order_id" json:"order_id"`
	ClientID       int64           `db:"client_id" json:"client_id"`
	ShipperID      *int64          `db:"shipper_id" json:"shipper_id,omitempty"`
	Status         OrderStatus     `db:"status" json:"status"`
	PaymentMethod  PaymentMethod   `db:"payment_method" json:"payment_method"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	DeliveryToken  *int            `db:"delivery_token" json:"delivery_token,omitempty"`
	IdempotencyKey string          `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderLine is one (variant, quantity) pairing within an order. The unit
// price is a snapshot taken at order time, never re-read from the variant.
type OrderLine struct {
	ID        int64           `db:"line_id" json:"line_id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	VariantID int64           `db:"variant_id" json:"variant_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// OrderLineDetail is an order line joined with variant display info.
type OrderLineDetail struct {
	VariantID   int64           `db:"variant_id" json:"variant_id"`
	SKU         string          `db:"sku" json:"sku"`
	ProductName string          `db:"product_name" json:"product_name"`
	Size        *string         `db:"size" json:"size,omitempty"`
	Color       string          `db:"color" json:"color"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// OrderInfo is the materialized order returned to callers.
type OrderInfo struct {
	OrderID       int64             `json:"order_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Status        OrderStatus       `json:"status"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	ShipperID     *int64            `json:"shipper_id,omitempty"`
	DeliveryToken *int              `json:"delivery_token,omitempty"`
	Lines         []OrderLineDetail `json:"order_lines"`
}

// ShippingStatus is the result of a status transition.
type ShippingStatus struct {
	OrderID   int64       `json:"order_id"`
	Status    OrderStatus `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderEvent is one row of the order status-history trail, written by the
// audit worker from consumed lifecycle events.
type OrderEvent struct {
	ID         int64     `db:"id" json:"id"`
	OrderID    int64     `db:"order_id" json:"order_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// PaymentMethod enumerates the accepted payment methods.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCash         PaymentMethod = "CASH"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentCash:
		return true
	}
	return false
}
