package models

import "fmt"

// OrderNotFoundError is returned when an order id matches no order.
type OrderNotFoundError struct {
	OrderID int64
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.OrderID)
}

// VariantNotFoundError is returned when a variant id matches no variant.
type VariantNotFoundError struct {
	VariantID int64
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("product variant %d not found", e.VariantID)
}

// ProductNotFoundError is returned when a SKU matches no base product.
type ProductNotFoundError struct {
	SKU string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with sku %q not found", e.SKU)
}

// ShipperNotFoundError is returned when a shipper id matches no shipper.
type ShipperNotFoundError struct {
	ShipperID int64
}

func (e *ShipperNotFoundError) Error() string {
	return fmt.Sprintf("shipper %d not found", e.ShipperID)
}

// InsufficientStockError is returned when a deduction would drive a
// variant's stock below zero. The whole order creation rolls back.
type InsufficientStockError struct {
	VariantID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %d: requested=%d, available=%d",
		e.VariantID, e.Requested, e.Available)
}

// InvalidTokenError is returned when the delivery-confirmation token given
// by the client does not match the one stored on the order.
type InvalidTokenError struct {
	Given *int
}

func (e *InvalidTokenError) Error() string {
	if e.Given == nil {
		return "delivery token required but not provided"
	}
	return fmt.Sprintf("invalid delivery token %d", *e.Given)
}

// InvalidTransitionError is returned for a status move outside the
// transition table.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition %s -> %s", e.From, e.To)
}

// AlreadyExistsError is returned on unique-key conflicts at creation time.
type AlreadyExistsError struct {
	Resource string
	Key      string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Resource, e.Key)
}

// ValidationError is returned when request input fails validation before
// any side effect is applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
