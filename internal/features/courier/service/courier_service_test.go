package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/courier/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is a minimal CourierGateway for routing tests.
type fakeGateway struct {
	name     string
	parcel   *domain.ParcelResponse
	tracking json.RawMessage
	err      error
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) SupportsCourier(n string) bool { return n == f.name }

func (f *fakeGateway) CreateParcel(context.Context, domain.ParcelRequest) (*domain.ParcelResponse, error) {
	return f.parcel, f.err
}

func (f *fakeGateway) Track(context.Context, string) (json.RawMessage, error) {
	return f.tracking, f.err
}

func TestCourierService_CreateParcel_RoutesByName(t *testing.T) {
	steadfast := &fakeGateway{name: "steadfast", parcel: &domain.ParcelResponse{ConsignmentID: "1"}}
	other := &fakeGateway{name: "pathao", parcel: &domain.ParcelResponse{ConsignmentID: "2"}}

	svc := NewCourierService([]ports.CourierGateway{other, steadfast})

	parcel, err := svc.CreateParcel(context.Background(), "steadfast", domain.ParcelRequest{})
	require.NoError(t, err)
	assert.Equal(t, "1", parcel.ConsignmentID)
}

func TestCourierService_CreateParcel_KeepsCourierError(t *testing.T) {
	courierErr := &domain.CourierError{Kind: domain.KindUnavailable, Message: "down"}
	svc := NewCourierService([]ports.CourierGateway{&fakeGateway{name: "steadfast", err: courierErr}})

	_, err := svc.CreateParcel(context.Background(), "steadfast", domain.ParcelRequest{})
	assert.ErrorIs(t, err, domain.ErrCourierUnavailable)
}

func TestCourierService_NotSupported(t *testing.T) {
	svc := NewCourierService(nil)

	_, err := svc.Resolve("redx")
	assert.ErrorIs(t, err, ErrCourierNotSupported)

	_, err = svc.Track(context.Background(), "redx", "1")
	assert.ErrorIs(t, err, ErrCourierNotSupported)

	_, err = svc.CreateParcel(context.Background(), "redx", domain.ParcelRequest{})
	assert.ErrorIs(t, err, ErrCourierNotSupported)
}

func TestCourierService_Track(t *testing.T) {
	gw := &fakeGateway{name: "steadfast", tracking: json.RawMessage(`{"delivery_status":"delivered"}`)}
	svc := NewCourierService([]ports.CourierGateway{gw})

	payload, err := svc.Track(context.Background(), "steadfast", "SF1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"delivery_status":"delivered"}`, string(payload))

	gw.err = errors.New("boom")
	_, err = svc.Track(context.Background(), "steadfast", "SF1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get tracking from steadfast")
}
