package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"petal-pearl/internal/core/auth"
	"petal-pearl/internal/core/logger"
	courierdomain "petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/ports"
	"petal-pearl/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductCounter reports the catalog size for the admin dashboard.
type ProductCounter interface {
	Count(ctx context.Context) (int64, error)
}

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	// service is the order workflow.
	service ports.OrderService
	// products feeds the product count of the stats endpoint.
	products ProductCounter
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService, products ProductCounter) *OrderHandler {
	return &OrderHandler{
		service:  s,
		products: products,
	}
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id,omitempty"`
}

// StatusRequest is the body of PATCH /orders/:id/status.
type StatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// PaymentStatusRequest is the body of PATCH /orders/:id/payment-status.
type PaymentStatusRequest struct {
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

// StatsResponse is the admin dashboard summary.
type StatsResponse struct {
	TotalOrders   int64  `json:"totalOrders"`
	TotalRevenue  string `json:"totalRevenue"`
	TotalProducts int64  `json:"totalProducts"`
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func (h *OrderHandler) fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{
		Message: msg,
		RayID:   rayID(c),
	})
}

// writeError maps workflow errors onto HTTP statuses.
func (h *OrderHandler) writeError(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	msg := err.Error()

	var courierErr *courierdomain.CourierError
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPaymentStatus):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDispatchInProgress),
		errors.Is(err, service.ErrAlreadyDispatched),
		errors.Is(err, service.ErrConcurrentUpdate),
		errors.Is(err, service.ErrNotDispatched):
		status = http.StatusConflict
	case errors.As(err, &courierErr):
		switch courierErr.Kind {
		case courierdomain.KindUnavailable:
			status = http.StatusServiceUnavailable
		case courierdomain.KindTimeout:
			status = http.StatusGatewayTimeout
		default:
			status = http.StatusBadGateway
		}
		msg = courierErr.Message
	default:
		msg = "Internal Server Error"
	}

	if status >= http.StatusInternalServerError {
		logger.Get().Error("Order request failed",
			zap.String("path", c.Path()),
			zap.String("ray_id", rayID(c)),
			zap.Error(err),
		)
	}
	return h.fail(c, status, msg)
}

func (h *OrderHandler) orderID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Create places an order.
// @Summary Place an order
// @Description Creates an order from the checkout payload. A bearer token is optional; when present the order is linked to the customer.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body domain.PlaceOrderInput true "Checkout payload"
// @Success 201 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var input domain.PlaceOrderInput
	if err := c.BodyParser(&input); err != nil {
		return h.fail(c, http.StatusBadRequest, "Invalid request body")
	}

	var userID *int64
	if _, ok := auth.Claims(c); ok {
		id, err := auth.UserID(c)
		if err != nil {
			return h.fail(c, http.StatusUnauthorized, "Invalid access token")
		}
		userID = &id
	}

	order, err := h.service.Create(c.UserContext(), input, userID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(order)
}

// Mine lists the caller's orders.
// @Summary List my orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Failure 401 {object} ErrorResponse
// @Router /orders/mine [get]
func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return h.fail(c, http.StatusUnauthorized, "Invalid access token")
	}
	orders, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(orders)
}

// List returns every order, newest first.
// @Summary List orders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Failure 403 {object} ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(orders)
}

// Get returns one order.
// @Summary Get order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := h.orderID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid order id")
	}
	order, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(order)
}

// UpdateStatus moves the order along the fulfilment state machine.
// @Summary Update order status
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body StatusRequest true "New status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := h.orderID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid order id")
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "Invalid request body")
	}
	order, err := h.service.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(order)
}

// UpdatePaymentStatus moves the order along the payment state machine.
// @Summary Update payment status
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body PaymentStatusRequest true "New payment status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /orders/{id}/payment-status [patch]
func (h *OrderHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	id, ok := h.orderID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid order id")
	}
	var req PaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "Invalid request body")
	}
	order, err := h.service.UpdatePaymentStatus(c.UserContext(), id, req.PaymentStatus)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(order)
}

// Confirm books the Steadfast parcel and confirms the order.
// @Summary Confirm and dispatch an order
// @Description Creates the courier consignment and marks the order confirmed. Only one dispatch per order runs at a time.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	id, ok := h.orderID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid order id")
	}
	order, err := h.service.Dispatch(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(order)
}

// Tracking returns the courier tracking payload of a dispatched order.
// @Summary Track an order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} object
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /orders/{id}/tracking [get]
func (h *OrderHandler) Tracking(c *fiber.Ctx) error {
	id, ok := h.orderID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid order id")
	}
	payload, err := h.service.Track(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) || errors.Is(err, service.ErrNotDispatched) {
			return h.writeError(c, err)
		}
		logger.Get().Warn("Tracking lookup failed", zap.Int64("order_id", id), zap.Error(err))
		return h.fail(c, http.StatusBadGateway, err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

// Stats returns the admin dashboard summary.
// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StatsResponse
// @Router /admin/stats [get]
func (h *OrderHandler) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	orders, err := h.service.Count(ctx)
	if err != nil {
		return h.writeError(c, err)
	}
	revenue, err := h.service.TotalRevenue(ctx)
	if err != nil {
		return h.writeError(c, err)
	}

	var products int64
	if h.products != nil {
		if products, err = h.products.Count(ctx); err != nil {
			return h.writeError(c, err)
		}
	}

	return c.JSON(StatsResponse{
		TotalOrders:   orders,
		TotalRevenue:  revenue.String(),
		TotalProducts: products,
	})
}
