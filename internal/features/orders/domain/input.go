package domain

import "github.com/shopspring/decimal"

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	CustomerName    string          `json:"customerName" validate:"required,max=120"`
	CustomerEmail   string          `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone   string          `json:"customerPhone" validate:"required,max=32"`
	ShippingAddress string          `json:"shippingAddress" validate:"required,max=500"`
	Items           []LineItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required,max=32"`
	TransactionID   string          `json:"transactionId" validate:"omitempty,max=64"`
}

// LineItemInput is one checkout line.
type LineItemInput struct {
	ProductID int64           `json:"productId" validate:"gte=0"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
}
