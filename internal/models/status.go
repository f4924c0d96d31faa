package models

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCanceled  OrderStatus = "CANCELED"
)

// validTransitions holds the forward edges of the order state machine.
// DELIVERED and CANCELED are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusShipped, StatusCanceled},
	StatusShipped:   {StatusDelivered, StatusCanceled},
}

// Transition checks whether an order may move from one status to another.
// Re-applying the current status is a no-op and allowed; every other move
// not present in the table returns InvalidTransitionError.
func Transition(from, to OrderStatus) error {
	if from == to {
		return nil
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

// Terminal reports whether the status accepts no further transitions.
func Terminal(s OrderStatus) bool {
	return s == StatusDelivered || s == StatusCanceled
}
