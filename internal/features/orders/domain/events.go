package domain

import "time"

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

const (
	EventOrderPlaced     = "orders.order.placed"
	EventOrderDispatched = "orders.order.dispatched"
)

// OrderPlaced is raised after a new order is persisted.
type OrderPlaced struct {
	BaseEvent
	Order *Order
}

// EventName returns the event type identifier.
func (e OrderPlaced) EventName() string {
	return EventOrderPlaced
}

// OrderDispatched is raised after a courier parcel is recorded on the order.
type OrderDispatched struct {
	BaseEvent
	Order *Order
}

// EventName returns the event type identifier.
func (e OrderDispatched) EventName() string {
	return EventOrderDispatched
}
