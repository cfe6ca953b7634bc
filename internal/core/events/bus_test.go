package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	name string
	id   int
}

func (e testEvent) EventName() string { return e.name }

func (e testEvent) OccurredAt() time.Time { return time.Time{} }

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := NewBus(8)

	var mu sync.Mutex
	var got []int
	bus.Subscribe("orders.order.placed", func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(testEvent).id)
		return nil
	})
	bus.Start()

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "orders.order.placed", id: 1}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "orders.order.placed", id: 2}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "unrelated", id: 3}))

	require.NoError(t, bus.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, got)
}

func TestBus_HandlerFailuresDoNotStopDelivery(t *testing.T) {
	bus := NewBus(4)

	calls := 0
	bus.Subscribe("x", func(context.Context, Event) error { panic("boom") })
	bus.Subscribe("x", func(context.Context, Event) error { return errors.New("smtp down") })
	bus.Subscribe("x", func(context.Context, Event) error { calls++; return nil })
	bus.Start()

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "x"}))
	require.NoError(t, bus.Close(context.Background()))

	assert.Equal(t, 1, calls)
}

func TestBus_FullQueue(t *testing.T) {
	bus := NewBus(1)

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "x"}))
	err := bus.Publish(context.Background(), testEvent{name: "x"})
	assert.ErrorIs(t, err, ErrBusFull)

	require.NoError(t, bus.Close(context.Background()))
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(1)
	bus.Start()
	require.NoError(t, bus.Close(context.Background()))
	require.NoError(t, bus.Close(context.Background()))

	err := bus.Publish(context.Background(), testEvent{name: "x"})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_CloseHonoursContext(t *testing.T) {
	bus := NewBus(2)
	release := make(chan struct{})
	bus.Subscribe("slow", func(context.Context, Event) error {
		<-release
		return nil
	})
	bus.Start()
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Close(ctx), context.DeadlineExceeded)

	close(release)
}
