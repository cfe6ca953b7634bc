package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func sampleInput(method string) PlaceOrderInput {
	return PlaceOrderInput{
		CustomerName:    "Nusrat Jahan",
		CustomerEmail:   "nusrat@example.com",
		CustomerPhone:   "01700000000",
		ShippingAddress: "House 7, Road 3, Dhanmondi, Dhaka",
		PaymentMethod:   method,
		Items: []LineItemInput{
			{ProductID: 1, Name: "Pearl Drop Earrings", Quantity: 2, Price: decimal.RequireFromString("450.50")},
			{ProductID: 2, Name: "Silk Saree", Quantity: 1, Price: decimal.RequireFromString("1649.00")},
		},
	}
}

func TestNewOrder_ComputesTotalAndInitialState(t *testing.T) {
	tests := []struct {
		method     string
		wantStatus OrderStatus
	}{
		{PaymentMethodCashOnDelivery, OrderStatusConfirmed},
		{"bkash", OrderStatusPending},
		{"card", OrderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			userID := int64(9)
			order, err := NewOrder(sampleInput(tt.method), &userID, now)
			require.NoError(t, err)

			assert.True(t, decimal.RequireFromString("2550").Equal(order.TotalAmount), order.TotalAmount.String())
			assert.Equal(t, tt.wantStatus, order.Status)
			assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
			assert.Equal(t, int64(9), *order.UserID)
			assert.Nil(t, order.TransactionID)
			assert.False(t, order.IsDispatched())
			assert.Equal(t, now, order.CreatedAt)
		})
	}
}

func TestNewOrder_ExactDecimalTotal(t *testing.T) {
	in := sampleInput("card")
	in.Items = []LineItemInput{
		{Name: "Ribbon", Quantity: 3, Price: decimal.RequireFromString("0.10")},
		{Name: "Pin", Quantity: 1, Price: decimal.RequireFromString("0.20")},
	}
	in.TransactionID = "TX-1"

	order, err := NewOrder(in, nil, now)
	require.NoError(t, err)

	assert.Equal(t, "0.5", order.TotalAmount.String())
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "TX-1", *order.TransactionID)
	assert.Nil(t, order.UserID)
}

func TestNewOrder_Invariants(t *testing.T) {
	empty := sampleInput("card")
	empty.Items = nil
	_, err := NewOrder(empty, nil, now)
	assert.ErrorIs(t, err, ErrNoItems)

	zeroQty := sampleInput("card")
	zeroQty.Items[0].Quantity = 0
	_, err = NewOrder(zeroQty, nil, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	negPrice := sampleInput("card")
	negPrice.Items[1].Price = decimal.NewFromInt(-1)
	_, err = NewOrder(negPrice, nil, now)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestOrderStatus_Transitions(t *testing.T) {
	all := []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered}
	allowed := map[OrderStatus]map[OrderStatus]bool{
		OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true},
		OrderStatusConfirmed: {OrderStatusShipped: true, OrderStatusCancelled: true},
		OrderStatusShipped:   {OrderStatusDelivered: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := from == to || allowed[from][to]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestPaymentStatus_Transitions(t *testing.T) {
	all := []PaymentStatus{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed}
	allowed := map[PaymentStatus]map[PaymentStatus]bool{
		PaymentStatusPending: {PaymentStatusPaid: true, PaymentStatusFailed: true},
		PaymentStatusFailed:  {PaymentStatusPending: true, PaymentStatusPaid: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := from == to || allowed[from][to]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrder_UpdateStatus(t *testing.T) {
	order, err := NewOrder(sampleInput("card"), nil, now)
	require.NoError(t, err)

	later := now.Add(time.Hour)

	assert.ErrorIs(t, order.UpdateStatus("lost", later), ErrInvalidStatus)
	assert.ErrorIs(t, order.UpdateStatus(OrderStatusDelivered, later), ErrInvalidTransition)
	assert.Equal(t, OrderStatusPending, order.Status)

	require.NoError(t, order.UpdateStatus(OrderStatusPending, later))
	assert.Equal(t, now, order.UpdatedAt, "same-status update is a no-op")

	require.NoError(t, order.UpdateStatus(OrderStatusConfirmed, later))
	assert.Equal(t, later, order.UpdatedAt)
}

func TestOrder_UpdatePaymentStatus(t *testing.T) {
	order, err := NewOrder(sampleInput("card"), nil, now)
	require.NoError(t, err)

	assert.ErrorIs(t, order.UpdatePaymentStatus("refunded", now), ErrInvalidPaymentStatus)
	require.NoError(t, order.UpdatePaymentStatus(PaymentStatusFailed, now))
	require.NoError(t, order.UpdatePaymentStatus(PaymentStatusPaid, now))
	assert.ErrorIs(t, order.UpdatePaymentStatus(PaymentStatusPending, now), ErrInvalidTransition)
}

func TestOrder_MarkDispatched(t *testing.T) {
	order, err := NewOrder(sampleInput("card"), nil, now)
	require.NoError(t, err)

	require.NoError(t, order.MarkDispatched("steadfast", "1424107", now))

	assert.True(t, order.IsDispatched())
	assert.Equal(t, "steadfast", *order.Courier)
	assert.Equal(t, "1424107", *order.CourierConsignmentID)
	assert.Equal(t, CourierStatusCreated, *order.CourierStatus)
	assert.Equal(t, OrderStatusConfirmed, order.Status)

	assert.ErrorIs(t, order.MarkDispatched("steadfast", "2", now), ErrAlreadyDispatched)
	assert.Equal(t, "1424107", *order.CourierConsignmentID)
}

func TestOrder_CanDispatch_RejectsClosedOrders(t *testing.T) {
	order, err := NewOrder(sampleInput("card"), nil, now)
	require.NoError(t, err)
	require.NoError(t, order.UpdateStatus(OrderStatusCancelled, now))

	assert.ErrorIs(t, order.CanDispatch(), ErrInvalidTransition)
	assert.ErrorIs(t, order.MarkDispatched("steadfast", "1", now), ErrInvalidTransition)
	assert.Nil(t, order.Courier)
}

func TestOrder_CODAmount(t *testing.T) {
	cod, err := NewOrder(sampleInput(PaymentMethodCashOnDelivery), nil, now)
	require.NoError(t, err)
	assert.True(t, cod.TotalAmount.Equal(cod.CODAmount()))

	prepaid, err := NewOrder(sampleInput("nagad"), nil, now)
	require.NoError(t, err)
	assert.True(t, prepaid.CODAmount().IsZero())
}

func TestOrder_Clone(t *testing.T) {
	userID := int64(3)
	order, err := NewOrder(sampleInput("card"), &userID, now)
	require.NoError(t, err)
	require.NoError(t, order.MarkDispatched("steadfast", "1", now))

	clone := order.Clone()
	clone.Items[0].Name = "changed"
	*clone.CourierConsignmentID = "changed"
	*clone.UserID = 99

	assert.Equal(t, "Pearl Drop Earrings", order.Items[0].Name)
	assert.Equal(t, "1", *order.CourierConsignmentID)
	assert.Equal(t, int64(3), *order.UserID)

	var nilOrder *Order
	assert.Nil(t, nilOrder.Clone())
}

func TestOrder_MarshalJSON(t *testing.T) {
	order, err := NewOrder(sampleInput(PaymentMethodCashOnDelivery), nil, now)
	require.NoError(t, err)
	order.ID = 42

	data, err := json.Marshal(order)
	require.NoError(t, err)

	jsonString := string(data)
	assert.Contains(t, jsonString, `"id":42`)
	assert.Contains(t, jsonString, `"customerName":"Nusrat Jahan"`)
	assert.Contains(t, jsonString, `"totalAmount":"2550"`)
	assert.Contains(t, jsonString, `"status":"confirmed"`)
	assert.Contains(t, jsonString, `"courierConsignmentId":null`)
}

func TestEvents(t *testing.T) {
	placed := OrderPlaced{BaseEvent: BaseEvent{Timestamp: now}}
	dispatched := OrderDispatched{BaseEvent: BaseEvent{Timestamp: now}}

	assert.Equal(t, "orders.order.placed", placed.EventName())
	assert.Equal(t, "orders.order.dispatched", dispatched.EventName())
	assert.Equal(t, now, placed.OccurredAt())
}
