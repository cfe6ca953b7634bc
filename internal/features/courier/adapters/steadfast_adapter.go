package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"petal-pearl/internal/core/config"
	"petal-pearl/internal/core/httpclient"
	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/features/courier/domain"

	"go.uber.org/zap"
)

const (
	msgUnavailable = "Steadfast Courier service is currently unavailable (Server Error)"
	msgTimeout     = "Connection to Steadfast timed out. Please try again later."
	msgRejected    = "Steadfast API returned an error"
	msgFailed      = "Failed to connect to Steadfast"

	maxBodyBytes = 1 << 20
)

// SteadfastAdapter implements the CourierGateway interface using the Steadfast REST API.
type SteadfastAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the Steadfast credentials and base URL.
	config config.SteadfastConfig
}

// NewSteadfastAdapter creates a new instance of SteadfastAdapter.
func NewSteadfastAdapter(cfg config.SteadfastConfig) *SteadfastAdapter {
	return &SteadfastAdapter{
		client: httpclient.NewClient(cfg.Timeout),
		config: cfg,
	}
}

// Name implements CourierGateway.
func (a *SteadfastAdapter) Name() string {
	return domain.CourierSteadfast
}

// SupportsCourier implements CourierGateway.
func (a *SteadfastAdapter) SupportsCourier(courierName string) bool {
	return strings.EqualFold(courierName, domain.CourierSteadfast)
}

type createOrderPayload struct {
	Invoice          string      `json:"invoice"`
	RecipientName    string      `json:"recipient_name"`
	RecipientPhone   string      `json:"recipient_phone"`
	RecipientAddress string      `json:"recipient_address"`
	CODAmount        json.Number `json:"cod_amount"`
	Note             string      `json:"note,omitempty"`
}

type consignment struct {
	ConsignmentID domain.FlexibleID `json:"consignment_id"`
	TrackingCode  string            `json:"tracking_code"`
	Status        string            `json:"status"`
}

type createOrderResponse struct {
	Status        json.RawMessage   `json:"status"`
	Message       string            `json:"message"`
	ConsignmentID domain.FlexibleID `json:"consignment_id"`
	TrackingCode  string            `json:"tracking_code"`
	Consignment   *consignment      `json:"consignment"`
}

// CreateParcel books a parcel. It never retries; every failure is a *domain.CourierError.
func (a *SteadfastAdapter) CreateParcel(ctx context.Context, req domain.ParcelRequest) (*domain.ParcelResponse, error) {
	payload := createOrderPayload{
		Invoice:          req.Invoice,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		RecipientAddress: req.RecipientAddress,
		CODAmount:        json.Number(req.CODAmount.StringFixed(2)),
		Note:             req.Note,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.CourierError{Kind: domain.KindFailed, Message: err.Error(), Err: err}
	}

	httpReq, err := a.newRequest(ctx, http.MethodPost, a.config.BaseURL+"/create_order", bytes.NewReader(body))
	if err != nil {
		return nil, &domain.CourierError{Kind: domain.KindFailed, Message: err.Error(), Err: err}
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, translateTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, translateTransportError(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &domain.CourierError{Kind: domain.KindUnavailable, Message: msgUnavailable, StatusCode: resp.StatusCode}
	}

	var out createOrderResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := providerMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
		}
		return nil, &domain.CourierError{Kind: domain.KindFailed, Message: msg, StatusCode: resp.StatusCode}
	}

	// Anything other than an embedded numeric 200 is a rejection, including unparseable bodies.
	if decodeErr != nil || !embeddedOK(out.Status) {
		msg := providerMessage(raw)
		if msg == "" {
			msg = msgRejected
		}
		return nil, &domain.CourierError{Kind: domain.KindRejected, Message: msg, StatusCode: resp.StatusCode, Err: decodeErr}
	}

	parcel := &domain.ParcelResponse{
		ConsignmentID: string(out.ConsignmentID),
		TrackingCode:  out.TrackingCode,
		Message:       out.Message,
	}
	if c := out.Consignment; c != nil {
		if parcel.ConsignmentID == "" {
			parcel.ConsignmentID = string(c.ConsignmentID)
		}
		if parcel.TrackingCode == "" {
			parcel.TrackingCode = c.TrackingCode
		}
		parcel.Status = c.Status
	}

	if parcel.ConsignmentID == "" {
		return nil, &domain.CourierError{
			Kind:       domain.KindRejected,
			Message:    "Steadfast response did not include a consignment id",
			StatusCode: resp.StatusCode,
		}
	}

	logger.Get().Info("Steadfast parcel created",
		zap.String("invoice", req.Invoice),
		zap.String("consignment_id", parcel.ConsignmentID),
	)

	return parcel, nil
}

// Track fetches the raw tracking payload for a consignment.
func (a *SteadfastAdapter) Track(ctx context.Context, consignmentID string) (json.RawMessage, error) {
	if strings.TrimSpace(consignmentID) == "" {
		return nil, fmt.Errorf("consignment id is required")
	}

	httpReq, err := a.newRequest(ctx, http.MethodGet, a.config.BaseURL+"/track/"+url.PathEscape(consignmentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("steadfast API returned status: %d", resp.StatusCode)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("steadfast API returned a non-JSON tracking payload")
	}

	return json.RawMessage(raw), nil
}

func (a *SteadfastAdapter) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", a.config.APIKey)
	req.Header.Set("Secret-Key", a.config.Secret)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// embeddedOK reports whether the body's status field is the number 200.
func embeddedOK(status json.RawMessage) bool {
	status = bytes.TrimSpace(status)
	if len(status) == 0 || status[0] == '"' {
		return false
	}
	var n json.Number
	if err := json.Unmarshal(status, &n); err != nil {
		return false
	}
	f, err := n.Float64()
	return err == nil && f == http.StatusOK
}

// providerMessage extracts a string "message" field from a JSON object body, if any.
func providerMessage(raw []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	var msg string
	if err := json.Unmarshal(fields["message"], &msg); err != nil {
		return ""
	}
	return strings.TrimSpace(msg)
}

func translateTransportError(err error) *domain.CourierError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.CourierError{Kind: domain.KindTimeout, Message: msgTimeout, Err: err}
	}

	msg := err.Error()
	if msg == "" {
		msg = msgFailed
	}
	return &domain.CourierError{Kind: domain.KindFailed, Message: msg, Err: err}
}
