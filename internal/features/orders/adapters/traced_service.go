package adapter

import (
	"context"
	"encoding/json"

	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/features/orders/domain"
	"petal-pearl/internal/features/orders/ports"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const tracerName = "petal-pearl/internal/features/orders"

var _ ports.OrderService = (*TracedService)(nil)

// TracedService decorates the order service with tracing, logging and metrics.
type TracedService struct {
	inner   ports.OrderService
	tracer  trace.Tracer
	metrics serviceMetrics
}

// TracedOption configures a TracedService.
type TracedOption func(*TracedService)

// WithTracer sets the tracer spans are started from.
func WithTracer(tr trace.Tracer) TracedOption {
	return func(s *TracedService) {
		s.tracer = tr
	}
}

// WithMeter registers the order counters on m.
func WithMeter(m metric.Meter) TracedOption {
	return func(s *TracedService) {
		s.metrics = newServiceMetrics(m)
	}
}

// NewTracedService wraps the core order service.
func NewTracedService(inner ports.OrderService, opts ...TracedOption) *TracedService {
	s := &TracedService{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *TracedService) Create(ctx context.Context, input domain.PlaceOrderInput, userID *int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create",
		trace.WithAttributes(attribute.Int("order.items", len(input.Items)), attribute.String("order.payment_method", input.PaymentMethod)))
	defer span.End()

	order, err := s.inner.Create(ctx, input, userID)
	if err != nil {
		return nil, s.handleError(span, err, "Failed to place order")
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.metrics.recordPlaced(ctx, order.PaymentMethod)
	logger.Get().Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("total", order.TotalAmount.String()),
	)
	return order, nil
}

func (s *TracedService) Dispatch(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Dispatch", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := s.inner.Dispatch(ctx, orderID)
	if err != nil {
		s.metrics.recordDispatch(ctx, "failed")
		return nil, s.handleError(span, err, "Failed to dispatch order", zap.Int64("order_id", orderID))
	}
	s.metrics.recordDispatch(ctx, "succeeded")
	if order.CourierConsignmentID != nil {
		span.SetAttributes(attribute.String("courier.consignment_id", *order.CourierConsignmentID))
	}
	logger.Get().Info("Order dispatched", zap.Int64("order_id", orderID), zap.Stringp("consignment_id", order.CourierConsignmentID))
	return order, nil
}

func (s *TracedService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.status", string(status))))
	defer span.End()

	order, err := s.inner.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, s.handleError(span, err, "Failed to update order status", zap.Int64("order_id", orderID))
	}
	return order, nil
}

func (s *TracedService) UpdatePaymentStatus(ctx context.Context, orderID int64, status domain.PaymentStatus) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdatePaymentStatus",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.payment_status", string(status))))
	defer span.End()

	order, err := s.inner.UpdatePaymentStatus(ctx, orderID, status)
	if err != nil {
		return nil, s.handleError(span, err, "Failed to update payment status", zap.Int64("order_id", orderID))
	}
	return order, nil
}

func (s *TracedService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.TotalRevenue")
	defer span.End()

	total, err := s.inner.TotalRevenue(ctx)
	if err != nil {
		return decimal.Zero, s.handleError(span, err, "Failed to compute revenue")
	}
	return total, nil
}

func (s *TracedService) List(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(span, err, "Failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *TracedService) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByUser", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	orders, err := s.inner.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.handleError(span, err, "Failed to list customer orders", zap.Int64("user_id", userID))
	}
	return orders, nil
}

func (s *TracedService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := s.inner.Get(ctx, orderID)
	if err != nil {
		return nil, s.handleError(span, err, "Failed to load order", zap.Int64("order_id", orderID))
	}
	return order, nil
}

func (s *TracedService) Count(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Count")
	defer span.End()

	n, err := s.inner.Count(ctx)
	if err != nil {
		return 0, s.handleError(span, err, "Failed to count orders")
	}
	return n, nil
}

func (s *TracedService) Track(ctx context.Context, orderID int64) (json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Track", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	payload, err := s.inner.Track(ctx, orderID)
	if err != nil {
		return nil, s.handleError(span, err, "Failed to track order", zap.Int64("order_id", orderID))
	}
	return payload, nil
}

func (s *TracedService) handleError(span trace.Span, err error, msg string, fields ...zap.Field) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Get().Warn(msg, append(fields, zap.Error(err))...)
	return err
}

type serviceMetrics struct {
	ordersPlaced metric.Int64Counter
	dispatches   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.placed", metric.WithDescription("Number of orders placed"))
	dispatches, _ := m.Int64Counter("orders.dispatches", metric.WithDescription("Courier dispatch attempts by outcome"))
	return serviceMetrics{ordersPlaced: ordersPlaced, dispatches: dispatches}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, paymentMethod string) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("order.payment_method", paymentMethod)))
	}
}

func (m serviceMetrics) recordDispatch(ctx context.Context, outcome string) {
	if m.dispatches != nil {
		m.dispatches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
