package domain

import (
	"fmt"
	"time"
)

// Notification is an admin inbox entry.
type Notification struct {
	// ID is the unique identifier for the notification.
	ID int64 `json:"id"`
	// OrderID links the notification to an order, when there is one.
	OrderID *int64 `json:"orderId"`
	// Message is the text shown in the admin panel.
	Message string `json:"message"`
	// Read is set once an operator acknowledged the entry.
	Read bool `json:"read"`
	// CreatedAt is the timestamp when the notification was recorded.
	CreatedAt time.Time `json:"createdAt"`
}

// NewOrderMessage is the inbox text recorded for a placed order.
func NewOrderMessage(orderID int64, customerName string) string {
	return fmt.Sprintf("New order #%d placed by %s", orderID, customerName)
}

// Email is one outgoing HTML message.
type Email struct {
	To      []string
	Subject string
	HTML    string
}
