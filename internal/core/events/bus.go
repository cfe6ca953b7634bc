package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"petal-pearl/internal/core/logger"

	"go.uber.org/zap"
)

var (
	// ErrBusClosed is returned by Publish after Close.
	ErrBusClosed = errors.New("event bus closed")
	// ErrBusFull is returned when the queue cannot take another event.
	ErrBusFull = errors.New("event bus full")
)

// Event is anything published on the bus.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Handler reacts to one event. Returned errors are logged.
type Handler func(ctx context.Context, e Event) error

// Bus delivers events to subscribers on a single background worker.
// Publish never blocks the caller.
type Bus struct {
	queue    chan Event
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	done     chan struct{}
	start    sync.Once
}

// NewBus creates a bus holding up to buffer pending events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{
		queue:    make(chan Event, buffer),
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
}

// Subscribe registers h for events named name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish enqueues e for delivery.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}
	select {
	case b.queue <- e:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s", ErrBusFull, e.EventName())
	}
}

// Start launches the delivery worker. Calling it more than once is a no-op.
func (b *Bus) Start() {
	b.start.Do(func() {
		go b.run()
	})
}

func (b *Bus) run() {
	defer close(b.done)
	for e := range b.queue {
		b.deliver(e)
	}
}

func (b *Bus) deliver(e Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.EventName()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(h, e)
	}
}

func (b *Bus) invoke(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("Event handler panicked",
				zap.String("event", e.EventName()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := h(context.Background(), e); err != nil {
		logger.Get().Warn("Event handler failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}

// Close stops accepting events and waits for queued ones to drain, or for ctx to end.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.Start()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
