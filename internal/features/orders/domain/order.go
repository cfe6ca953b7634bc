package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment state of an order.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of prepaid orders awaiting review.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed means the order was accepted. Cash-on-delivery orders start here.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusCancelled is terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusShipped means the parcel left the store.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered is terminal.
	OrderStatusDelivered OrderStatus = "delivered"
)

// PaymentStatus represents the settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentMethodCashOnDelivery is the only method that sends a COD amount to the courier.
const PaymentMethodCashOnDelivery = "cash_on_delivery"

// CourierStatusCreated is recorded when the courier accepts a parcel.
const CourierStatusCreated = "created"

var (
	ErrNoItems              = errors.New("order must contain at least one item")
	ErrInvalidQuantity      = errors.New("item quantity must be at least 1")
	ErrInvalidPrice         = errors.New("item price must not be negative")
	ErrInvalidStatus        = errors.New("order status is invalid")
	ErrInvalidPaymentStatus = errors.New("payment status is invalid")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrAlreadyDispatched    = errors.New("order already dispatched")
)

var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusFailed:  {PaymentStatusPending, PaymentStatusPaid},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the order may move from s to next. Staying put is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether payment may move from s to next. Staying put is allowed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LineItem is one product line of an order. Price is the unit price at checkout.
type LineItem struct {
	// ProductID references the catalog product, zero for ad-hoc lines.
	ProductID int64 `json:"productId"`
	// Name is the product name at checkout.
	Name string `json:"name"`
	// Quantity is the number of units purchased.
	Quantity int `json:"quantity"`
	// Price is the unit price.
	Price decimal.Decimal `json:"price"`
}

// Subtotal returns price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order represents a customer order in the system.
type Order struct {
	// ID is the unique identifier for the order.
	ID int64 `json:"id"`
	// UserID is the authenticated customer, nil for guest checkout.
	UserID *int64 `json:"userId"`
	// CustomerName is the recipient name.
	CustomerName string `json:"customerName"`
	// CustomerEmail receives the confirmation email.
	CustomerEmail string `json:"customerEmail"`
	// CustomerPhone is the recipient phone.
	CustomerPhone string `json:"customerPhone"`
	// ShippingAddress is the delivery address.
	ShippingAddress string `json:"shippingAddress"`
	// Items contains the purchased lines.
	Items []LineItem `json:"items"`
	// TotalAmount is the sum of line subtotals, fixed at creation.
	TotalAmount decimal.Decimal `json:"totalAmount"`
	// PaymentMethod is free-form, e.g. cash_on_delivery, bkash, nagad, card.
	PaymentMethod string `json:"paymentMethod"`
	// TransactionID is the payment provider reference, if any.
	TransactionID *string `json:"transactionId"`
	// PaymentStatus is the settlement state.
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	// Status is the fulfilment state.
	Status OrderStatus `json:"status"`
	// Courier, CourierConsignmentID and CourierStatus are set together by a successful dispatch.
	Courier              *string `json:"courier"`
	CourierConsignmentID *string `json:"courierConsignmentId"`
	CourierStatus        *string `json:"courierStatus"`
	// Version guards concurrent updates. Repositories bump it on every write.
	Version int64 `json:"version"`
	// CreatedAt is the timestamp when the order was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp of the last change.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewOrder builds a new order from validated checkout data.
func NewOrder(input PlaceOrderInput, userID *int64, now time.Time) (*Order, error) {
	items := make([]LineItem, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, LineItem{
			ProductID: in.ProductID,
			Name:      in.Name,
			Quantity:  in.Quantity,
			Price:     in.Price,
		})
	}

	order := &Order{
		UserID:          userID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: input.ShippingAddress,
		Items:           items,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   PaymentStatusPending,
		Status:          OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.TransactionID != "" {
		tx := input.TransactionID
		order.TransactionID = &tx
	}
	if order.IsCashOnDelivery() {
		order.Status = OrderStatusConfirmed
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	order.TotalAmount = order.ComputeTotal()
	return order, nil
}

// Validate enforces the line item invariants the total depends on.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if item.Price.IsNegative() {
			return ErrInvalidPrice
		}
	}
	return nil
}

// ComputeTotal sums the line subtotals.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// IsCashOnDelivery reports whether the courier collects payment.
func (o *Order) IsCashOnDelivery() bool {
	return o.PaymentMethod == PaymentMethodCashOnDelivery
}

// CODAmount is what the courier collects at the door.
func (o *Order) CODAmount() decimal.Decimal {
	if o.IsCashOnDelivery() {
		return o.TotalAmount
	}
	return decimal.Zero
}

// UpdateStatus moves the order along the fulfilment state machine.
func (o *Order) UpdateStatus(next OrderStatus, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	if o.Status != next {
		o.Status = next
		o.UpdatedAt = now
	}
	return nil
}

// UpdatePaymentStatus moves the order along the payment state machine.
func (o *Order) UpdatePaymentStatus(next PaymentStatus, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidPaymentStatus
	}
	if !o.PaymentStatus.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	if o.PaymentStatus != next {
		o.PaymentStatus = next
		o.UpdatedAt = now
	}
	return nil
}

// IsDispatched reports whether a courier parcel exists for the order.
func (o *Order) IsDispatched() bool {
	return o.CourierConsignmentID != nil && *o.CourierConsignmentID != ""
}

// CanDispatch checks the order may be handed to a courier.
func (o *Order) CanDispatch() error {
	if o.IsDispatched() {
		return ErrAlreadyDispatched
	}
	if !o.Status.CanTransitionTo(OrderStatusConfirmed) {
		return ErrInvalidTransition
	}
	return nil
}

// MarkDispatched records the courier parcel and confirms the order in one step.
func (o *Order) MarkDispatched(courier, consignmentID string, now time.Time) error {
	if err := o.CanDispatch(); err != nil {
		return err
	}
	status := CourierStatusCreated
	o.Courier = &courier
	o.CourierConsignmentID = &consignmentID
	o.CourierStatus = &status
	o.Status = OrderStatusConfirmed
	o.UpdatedAt = now
	return nil
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	c.UserID = clonePtr(o.UserID)
	c.TransactionID = clonePtr(o.TransactionID)
	c.Courier = clonePtr(o.Courier)
	c.CourierConsignmentID = clonePtr(o.CourierConsignmentID)
	c.CourierStatus = clonePtr(o.CourierStatus)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
