package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CourierSteadfast is the identifier stored on dispatched orders.
const CourierSteadfast = "steadfast"

// ParcelRequest describes a shipment handed to a courier.
type ParcelRequest struct {
	// Invoice is the merchant reference, "ORD-<order id>".
	Invoice string `json:"invoice"`
	// RecipientName is the customer name printed on the label.
	RecipientName string `json:"recipientName"`
	// RecipientPhone is the customer phone the rider calls.
	RecipientPhone string `json:"recipientPhone"`
	// RecipientAddress is the delivery address.
	RecipientAddress string `json:"recipientAddress"`
	// CODAmount is collected at the door. Zero for prepaid orders.
	CODAmount decimal.Decimal `json:"codAmount"`
	// Note is an optional instruction for the rider.
	Note string `json:"note,omitempty"`
}

// InvoiceFor builds the merchant invoice reference for an order id.
func InvoiceFor(orderID int64) string {
	return fmt.Sprintf("ORD-%d", orderID)
}

// ParcelResponse is the courier's acknowledgement of a created parcel.
type ParcelResponse struct {
	// ConsignmentID is the courier-side identifier used for tracking.
	ConsignmentID string `json:"consignmentId"`
	// TrackingCode is the short code shown to customers, when provided.
	TrackingCode string `json:"trackingCode,omitempty"`
	// Status is the courier's initial parcel status.
	Status string `json:"status,omitempty"`
	// Message is the courier's human readable answer.
	Message string `json:"message,omitempty"`
}

// FlexibleID accepts identifiers sent either as JSON numbers or strings.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier is neither string nor number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}
