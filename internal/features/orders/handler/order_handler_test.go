package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"petal-pearl/internal/core/auth"
	courierdomain "petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

// MockOrderService is a mock implementation of ports.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*domain.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) Create(ctx context.Context, input domain.PlaceOrderInput, userID *int64) (*domain.Order, error) {
	return m.order(m.Called(ctx, input, userID))
}

func (m *MockOrderService) Dispatch(ctx context.Context, orderID int64) (*domain.Order, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	return m.order(m.Called(ctx, orderID, status))
}

func (m *MockOrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, status domain.PaymentStatus) (*domain.Order, error) {
	return m.order(m.Called(ctx, orderID, status))
}

func (m *MockOrderService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderService) Track(ctx context.Context, orderID int64) (json.RawMessage, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type stubProducts struct{ n int64 }

func (s stubProducts) Count(context.Context) (int64, error) { return s.n, nil }

func setupApp(svc *MockOrderService) *fiber.App {
	h := NewOrderHandler(svc, stubProducts{n: 24})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Post("/orders", auth.Optional(secret), h.Create)
	app.Get("/orders/mine", auth.Required(secret), h.Mine)

	admin := app.Group("", auth.Required(secret), auth.RequireAdmin())
	admin.Get("/orders", h.List)
	admin.Get("/orders/:id", h.Get)
	admin.Patch("/orders/:id/status", h.UpdateStatus)
	admin.Patch("/orders/:id/payment-status", h.UpdatePaymentStatus)
	admin.Post("/orders/:id/confirm", h.Confirm)
	admin.Get("/orders/:id/tracking", h.Tracking)
	admin.Get("/admin/stats", h.Stats)
	return app
}

func token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := auth.IssueToken(secret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func request(t *testing.T, app *fiber.App, method, target, body, bearer string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeError(t *testing.T, raw []byte) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	return errResp
}

const checkoutBody = `{
	"customerName": "Nusrat Jahan",
	"customerPhone": "01700000000",
	"shippingAddress": "Dhanmondi, Dhaka",
	"paymentMethod": "cash_on_delivery",
	"items": [{"productId": 1, "name": "Pearl Necklace", "quantity": 2, "price": 600}]
}`

func dispatchedOrder() *domain.Order {
	courier, consignment, status := "steadfast", "SF-1", domain.CourierStatusCreated
	return &domain.Order{
		ID:                   5,
		Status:               domain.OrderStatusConfirmed,
		PaymentStatus:        domain.PaymentStatusPending,
		TotalAmount:          decimal.NewFromInt(1200),
		Courier:              &courier,
		CourierConsignmentID: &consignment,
		CourierStatus:        &status,
	}
}

func TestOrderHandler_Create_Guest(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)

	svc.On("Create", mock.Anything, mock.MatchedBy(func(in domain.PlaceOrderInput) bool {
		return len(in.Items) == 1 && in.Items[0].Price.Equal(decimal.NewFromInt(600))
	}), (*int64)(nil)).Return(&domain.Order{ID: 1, Status: domain.OrderStatusConfirmed}, nil).Once()

	status, body := request(t, app, "POST", "/orders", checkoutBody, "")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, string(body), `"id":1`)
	svc.AssertExpectations(t)
}

func TestOrderHandler_Create_LinksAuthenticatedCustomer(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)

	svc.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(id *int64) bool {
		return id != nil && *id == 42
	})).Return(&domain.Order{ID: 2}, nil).Once()

	status, _ := request(t, app, "POST", "/orders", checkoutBody, token(t, 42, "customer"))
	assert.Equal(t, fiber.StatusCreated, status)
	svc.AssertExpectations(t)
}

func TestOrderHandler_Create_Errors(t *testing.T) {
	t.Run("Malformed body", func(t *testing.T) {
		app := setupApp(new(MockOrderService))
		status, _ := request(t, app, "POST", "/orders", `{"items":`, "")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("Validation", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)
		svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.Join(service.ErrInvalidInput, errors.New("customerName is required"))).Once()

		status, body := request(t, app, "POST", "/orders", checkoutBody, "")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, decodeError(t, body).Message, "customerName is required")
	})

	t.Run("Invalid token", func(t *testing.T) {
		app := setupApp(new(MockOrderService))
		status, _ := request(t, app, "POST", "/orders", checkoutBody, "Bearer garbage")
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestOrderHandler_Mine(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)
	svc.On("ListByUser", mock.Anything, int64(7)).Return([]*domain.Order{{ID: 3}}, nil).Once()

	status, body := request(t, app, "GET", "/orders/mine", "", token(t, 7, "customer"))
	assert.Equal(t, fiber.StatusOK, status)

	var orders []domain.Order
	require.NoError(t, json.Unmarshal(body, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, int64(3), orders[0].ID)

	status, _ = request(t, app, "GET", "/orders/mine", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestOrderHandler_AdminRoutesRequireAdmin(t *testing.T) {
	app := setupApp(new(MockOrderService))

	status, body := request(t, app, "POST", "/orders/5/confirm", "", token(t, 7, "customer"))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "test-ray-id", decodeError(t, body).RayID)

	status, _ = request(t, app, "GET", "/orders", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestOrderHandler_Confirm(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)
	svc.On("Dispatch", mock.Anything, int64(5)).Return(dispatchedOrder(), nil).Once()

	status, body := request(t, app, "POST", "/orders/5/confirm", "", token(t, 1, auth.RoleAdmin))
	assert.Equal(t, fiber.StatusOK, status)

	var order domain.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, "SF-1", *order.CourierConsignmentID)
}

func TestOrderHandler_Confirm_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"Not found", service.ErrOrderNotFound, fiber.StatusNotFound, "order not found"},
		{"Lease held", service.ErrDispatchInProgress, fiber.StatusConflict, ""},
		{"Already dispatched", service.ErrAlreadyDispatched, fiber.StatusConflict, ""},
		{"Invalid transition", service.ErrInvalidTransition, fiber.StatusConflict, ""},
		{"Version conflict", service.ErrConcurrentUpdate, fiber.StatusConflict, ""},
		{"Courier unavailable", &courierdomain.CourierError{Kind: courierdomain.KindUnavailable, Message: "Steadfast Courier service is currently unavailable (Server Error)"}, fiber.StatusServiceUnavailable, "currently unavailable"},
		{"Courier timeout", &courierdomain.CourierError{Kind: courierdomain.KindTimeout, Message: "Connection to Steadfast timed out. Please try again later."}, fiber.StatusGatewayTimeout, "timed out"},
		{"Courier rejected", &courierdomain.CourierError{Kind: courierdomain.KindRejected, Message: "Invalid recipient phone"}, fiber.StatusBadGateway, "Invalid recipient phone"},
		{"Courier failed", &courierdomain.CourierError{Kind: courierdomain.KindFailed, Message: "Failed to connect to Steadfast"}, fiber.StatusBadGateway, "Failed to connect"},
		{"Unknown", errors.New("connection reset"), fiber.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			app := setupApp(svc)
			svc.On("Dispatch", mock.Anything, int64(5)).Return(nil, tt.err).Once()

			status, body := request(t, app, "POST", "/orders/5/confirm", "", token(t, 1, auth.RoleAdmin))
			assert.Equal(t, tt.wantStatus, status)
			errResp := decodeError(t, body)
			assert.Equal(t, "test-ray-id", errResp.RayID)
			if tt.wantMsg != "" {
				assert.Contains(t, errResp.Message, tt.wantMsg)
			}
		})
	}
}

func TestOrderHandler_InvalidID(t *testing.T) {
	app := setupApp(new(MockOrderService))

	status, _ := request(t, app, "GET", "/orders/abc", "", token(t, 1, auth.RoleAdmin))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)
	admin := token(t, 1, auth.RoleAdmin)

	svc.On("UpdateStatus", mock.Anything, int64(5), domain.OrderStatusShipped).
		Return(&domain.Order{ID: 5, Status: domain.OrderStatusShipped}, nil).Once()
	svc.On("UpdateStatus", mock.Anything, int64(5), domain.OrderStatus("lost")).
		Return(nil, service.ErrInvalidStatus).Once()

	status, _ := request(t, app, "PATCH", "/orders/5/status", `{"status":"shipped"}`, admin)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = request(t, app, "PATCH", "/orders/5/status", `{"status":"lost"}`, admin)
	assert.Equal(t, fiber.StatusBadRequest, status)
	svc.AssertExpectations(t)
}

func TestOrderHandler_UpdatePaymentStatus(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)

	svc.On("UpdatePaymentStatus", mock.Anything, int64(5), domain.PaymentStatusPending).
		Return(nil, service.ErrInvalidTransition).Once()

	status, _ := request(t, app, "PATCH", "/orders/5/payment-status", `{"paymentStatus":"pending"}`, token(t, 1, auth.RoleAdmin))
	assert.Equal(t, fiber.StatusConflict, status)
	svc.AssertExpectations(t)
}

func TestOrderHandler_Tracking(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)
	admin := token(t, 1, auth.RoleAdmin)

	svc.On("Track", mock.Anything, int64(5)).Return(json.RawMessage(`{"delivery_status":"delivered"}`), nil).Once()
	svc.On("Track", mock.Anything, int64(6)).Return(nil, service.ErrNotDispatched).Once()
	svc.On("Track", mock.Anything, int64(7)).Return(nil, errors.New("failed to get tracking from steadfast: boom")).Once()

	status, body := request(t, app, "GET", "/orders/5/tracking", "", admin)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"delivery_status":"delivered"}`, string(body))

	status, _ = request(t, app, "GET", "/orders/6/tracking", "", admin)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = request(t, app, "GET", "/orders/7/tracking", "", admin)
	assert.Equal(t, fiber.StatusBadGateway, status)
}

func TestOrderHandler_Stats(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)

	svc.On("Count", mock.Anything).Return(int64(12), nil).Once()
	svc.On("TotalRevenue", mock.Anything).Return(decimal.RequireFromString("15400.50"), nil).Once()

	status, body := request(t, app, "GET", "/admin/stats", "", token(t, 1, auth.RoleAdmin))
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"totalOrders":12,"totalRevenue":"15400.5","totalProducts":24}`, string(body))
}

func TestOrderHandler_List(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)
	svc.On("List", mock.Anything).Return([]*domain.Order{{ID: 2}, {ID: 1}}, nil).Once()
	svc.On("Get", mock.Anything, int64(404)).Return(nil, service.ErrOrderNotFound).Once()

	admin := token(t, 1, auth.RoleAdmin)
	status, body := request(t, app, "GET", "/orders", "", admin)
	assert.Equal(t, fiber.StatusOK, status)
	var orders []domain.Order
	require.NoError(t, json.Unmarshal(body, &orders))
	assert.Len(t, orders, 2)

	status, _ = request(t, app, "GET", "/orders/404", "", admin)
	assert.Equal(t, fiber.StatusNotFound, status)
}
