package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petal-pearl/internal/core/events"
	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/features/notifications/domain"
	"petal-pearl/internal/features/notifications/ports"
	orderdomain "petal-pearl/internal/features/orders/domain"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrNotificationNotFound is returned when the notification does not exist.
var ErrNotificationNotFound = errors.New("notification not found")

const recordAttempts = 3

// Subscriber is the part of the event bus the service listens on.
type Subscriber interface {
	Subscribe(name string, h events.Handler)
}

// NotificationService sends order emails and keeps the admin inbox.
type NotificationService struct {
	repo   ports.Repository
	mailer ports.Mailer
	admins []string

	newBackOff func() backoff.BackOff
	now        func() time.Time
}

// Option configures a NotificationService.
type Option func(*NotificationService)

// WithBackOff overrides the retry schedule of Record.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(s *NotificationService) {
		s.newBackOff = fn
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *NotificationService) {
		s.now = now
	}
}

// NewNotificationService creates a new instance of NotificationService.
// admins receive every order email; the customer is added for confirmations.
func NewNotificationService(repo ports.Repository, mailer ports.Mailer, admins []string, opts ...Option) *NotificationService {
	s := &NotificationService{
		repo:   repo,
		mailer: mailer,
		admins: admins,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			return b
		},
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Subscribe wires the order event handlers onto the bus.
func (s *NotificationService) Subscribe(bus Subscriber) {
	bus.Subscribe(orderdomain.EventOrderPlaced, s.HandleOrderPlaced)
	bus.Subscribe(orderdomain.EventOrderDispatched, s.HandleOrderDispatched)
}

// HandleOrderPlaced records the inbox entry and emails the admins.
func (s *NotificationService) HandleOrderPlaced(ctx context.Context, e events.Event) error {
	placed, ok := e.(orderdomain.OrderPlaced)
	if !ok || placed.Order == nil {
		return fmt.Errorf("unexpected event %T", e)
	}
	order := placed.Order

	orderID := order.ID
	if _, err := s.Record(ctx, &orderID, domain.NewOrderMessage(order.ID, order.CustomerName)); err != nil {
		logger.Get().Error("Failed to record order notification", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	s.SendOrderNotification(ctx, order)
	return nil
}

// HandleOrderDispatched emails the confirmation.
func (s *NotificationService) HandleOrderDispatched(ctx context.Context, e events.Event) error {
	dispatched, ok := e.(orderdomain.OrderDispatched)
	if !ok || dispatched.Order == nil {
		return fmt.Errorf("unexpected event %T", e)
	}
	s.SendOrderConfirmation(ctx, dispatched.Order)
	return nil
}

// SendOrderNotification emails the admins about a new order. Failures are logged only.
func (s *NotificationService) SendOrderNotification(ctx context.Context, order *orderdomain.Order) {
	if len(s.admins) == 0 {
		logger.Get().Debug("No admin recipients configured, skipping order notification", zap.Int64("order_id", order.ID))
		return
	}

	html, err := render(newOrderTemplate, order)
	if err != nil {
		logger.Get().Error("Failed to render order notification", zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	s.send(ctx, order.ID, domain.Email{
		To:      s.admins,
		Subject: fmt.Sprintf("New Order #%d - Petal & Pearl", order.ID),
		HTML:    html,
	})
}

// SendOrderConfirmation emails the customer and the admins that the order is confirmed.
// Failures are logged only.
func (s *NotificationService) SendOrderConfirmation(ctx context.Context, order *orderdomain.Order) {
	recipients := s.confirmationRecipients(order)
	if len(recipients) == 0 {
		logger.Get().Debug("No recipients for order confirmation", zap.Int64("order_id", order.ID))
		return
	}

	tracking := "Pending"
	if order.CourierConsignmentID != nil && *order.CourierConsignmentID != "" {
		tracking = *order.CourierConsignmentID
	}
	html, err := render(confirmationTemplate, confirmationView{
		ID:             order.ID,
		CustomerName:   order.CustomerName,
		TrackingNumber: tracking,
	})
	if err != nil {
		logger.Get().Error("Failed to render order confirmation", zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	s.send(ctx, order.ID, domain.Email{
		To:      recipients,
		Subject: fmt.Sprintf("Order Confirmed #%d - Petal & Pearl", order.ID),
		HTML:    html,
	})
}

func (s *NotificationService) confirmationRecipients(order *orderdomain.Order) []string {
	seen := make(map[string]bool)
	var out []string
	for _, addr := range append([]string{order.CustomerEmail}, s.admins...) {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

func (s *NotificationService) send(ctx context.Context, orderID int64, msg domain.Email) {
	if s.mailer == nil {
		return
	}
	logger.Get().Info("Sending email",
		zap.Int64("order_id", orderID),
		zap.String("subject", msg.Subject),
		zap.Strings("to", msg.To),
	)
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Get().Error("SMTP delivery failed",
			zap.Int64("order_id", orderID),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}
	logger.Get().Info("Email sent", zap.Int64("order_id", orderID), zap.String("subject", msg.Subject))
}

// Record stores an inbox entry, retrying transient repository failures.
func (s *NotificationService) Record(ctx context.Context, orderID *int64, message string) (*domain.Notification, error) {
	var saved *domain.Notification
	op := func() error {
		n, err := s.repo.Create(ctx, &domain.Notification{
			OrderID:   orderID,
			Message:   message,
			CreatedAt: s.now(),
		})
		if err != nil {
			return err
		}
		saved = n
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), recordAttempts-1), ctx)
	notify := func(err error, wait time.Duration) {
		logger.Get().Warn("Retrying notification record", zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("failed to record notification: %w", err)
	}
	return saved, nil
}

// List returns the admin inbox, newest first.
func (s *NotificationService) List(ctx context.Context) ([]*domain.Notification, error) {
	return s.repo.List(ctx)
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) (*domain.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

// UnreadCount returns how many notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.UnreadCount(ctx)
}
